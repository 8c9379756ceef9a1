package domain

import (
	"time"

	"github.com/google/uuid"
)

// Employee is an HR record. The photo is stored inline and served through
// its own endpoint, so it never appears in JSON listings.
type Employee struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Gender           string    `json:"gender"`
	Age              int       `json:"age"`
	Department       string    `json:"department"`
	HasPhoto         bool      `json:"hasPhoto"`
	Photo            []byte    `json:"-"`
	PhotoContentType string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// EmployeeUpdate carries a partial update; nil fields are left unchanged.
type EmployeeUpdate struct {
	Name             *string
	Gender           *string
	Age              *int
	Department       *string
	Photo            []byte
	PhotoContentType string
}

func (u EmployeeUpdate) IsEmpty() bool {
	return u.Name == nil && u.Gender == nil && u.Age == nil && u.Department == nil && len(u.Photo) == 0
}

const RoleHR = "HR"

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

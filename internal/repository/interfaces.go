package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepositoryInterface defines operations for HR user data access
type UserRepositoryInterface interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// EmployeeRepositoryInterface defines operations for employee data access
type EmployeeRepositoryInterface interface {
	List(ctx context.Context) ([]domain.Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	GetPhoto(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, id uuid.UUID, u domain.EmployeeUpdate) (*domain.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

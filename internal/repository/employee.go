package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

// employeeColumns never selects the photo itself; listings only need to know
// whether one exists.
const employeeColumns = `id, name, gender, age, department, photo IS NOT NULL, created_at, updated_at`

type EmployeeRepository struct {
	pool PgxPool
}

func NewEmployeeRepository(pool PgxPool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

func scanEmployee(row pgx.Row, e *domain.Employee) error {
	return row.Scan(
		&e.ID,
		&e.Name,
		&e.Gender,
		&e.Age,
		&e.Department,
		&e.HasPhoto,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
}

// List returns employees newest first.
func (r *EmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0)
	for rows.Next() {
		var e domain.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}

	return employees, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	var e domain.Employee
	err := scanEmployee(r.pool.QueryRow(ctx, query, id), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}

	return &e, nil
}

func (r *EmployeeRepository) GetPhoto(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	query := `SELECT photo, COALESCE(photo_content_type, '') FROM employees WHERE id = $1`

	var photo []byte
	var contentType string
	err := r.pool.QueryRow(ctx, query, id).Scan(&photo, &contentType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get employee photo: %w", err)
	}
	if len(photo) == 0 {
		return nil, "", domain.ErrPhotoNotFound
	}

	return photo, contentType, nil
}

func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO employees (id, name, gender, age, department, photo, photo_content_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	var photo []byte
	var contentType *string
	if len(e.Photo) > 0 {
		photo = e.Photo
		contentType = &e.PhotoContentType
	}

	err := r.pool.QueryRow(ctx, query,
		e.ID,
		e.Name,
		e.Gender,
		e.Age,
		e.Department,
		photo,
		contentType,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create employee: %w", err)
	}

	e.HasPhoto = len(photo) > 0
	return nil
}

// Update applies only the fields set in u and returns the stored record.
func (r *EmployeeRepository) Update(ctx context.Context, id uuid.UUID, u domain.EmployeeUpdate) (*domain.Employee, error) {
	if u.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.Gender != nil {
		add("gender", *u.Gender)
	}
	if u.Age != nil {
		add("age", *u.Age)
	}
	if u.Department != nil {
		add("department", *u.Department)
	}
	if len(u.Photo) > 0 {
		add("photo", u.Photo)
		add("photo_content_type", u.PhotoContentType)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE employees SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), employeeColumns,
	)

	var e domain.Employee
	err := scanEmployee(r.pool.QueryRow(ctx, query, args...), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}

	return &e, nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM employees WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrEmployeeNotFound
	}

	return nil
}

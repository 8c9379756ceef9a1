package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/auth"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

const maxPhotoBytes = 5 * 1024 * 1024

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type EmployeeRepository interface {
	List(ctx context.Context) ([]domain.Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	GetPhoto(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, id uuid.UUID, u domain.EmployeeUpdate) (*domain.Employee, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SessionIssuer interface {
	Issue(userID uuid.UUID, username, role string) (string, error)
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type EmployeeInput struct {
	Name             string `validate:"required,max=200"`
	Gender           string `validate:"max=20"`
	Age              int    `validate:"gte=0,lte=150"`
	Department       string `validate:"max=100"`
	Photo            []byte
	PhotoContentType string
}

// EmployeePatch mirrors domain.EmployeeUpdate with validation rules.
type EmployeePatch struct {
	Name             *string `validate:"omitempty,max=200"`
	Gender           *string `validate:"omitempty,max=20"`
	Age              *int    `validate:"omitempty,gte=0,lte=150"`
	Department       *string `validate:"omitempty,max=100"`
	Photo            []byte
	PhotoContentType string
}

// HRService covers the HR back office: login and employee records.
type HRService struct {
	users     UserRepository
	employees EmployeeRepository
	sessions  SessionIssuer
	validate  *validator.Validate
	audit     audit.Logger
	logger    *slog.Logger
}

func NewHRService(users UserRepository, employees EmployeeRepository, sessions SessionIssuer, auditLogger audit.Logger, logger *slog.Logger) *HRService {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &HRService{
		users:     users,
		employees: employees,
		sessions:  sessions,
		validate:  validator.New(),
		audit:     auditLogger,
		logger:    logger,
	}
}

// Login checks the password of an HR user and returns a signed session token.
// Unknown users, non-HR roles and wrong passwords are indistinguishable.
func (s *HRService) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := s.validate.Struct(in); err != nil {
		return "", domain.ErrBadRequest.WithMessage("Username and password required")
	}

	token, err := s.login(ctx, in)
	event := audit.Event{
		EventType: audit.EventHRLogin,
		Actor:     in.Username,
		Success:   err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	_ = s.audit.Log(ctx, event)

	return token, err
}

func (s *HRService) login(ctx context.Context, in LoginInput) (string, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.ErrInternal.WithError(err)
	}
	if user.Role != domain.RoleHR {
		return "", domain.ErrInvalidCredentials
	}

	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("stored password hash is unusable", "username", user.Username, "error", err)
		}
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return "", domain.ErrInternal.WithError(fmt.Errorf("issue session: %w", err))
	}
	return token, nil
}

func (s *HRService) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.List(ctx)
}

func (s *HRService) EmployeePhoto(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	return s.employees.GetPhoto(ctx, id)
}

func (s *HRService) CreateEmployee(ctx context.Context, actor string, in EmployeeInput) (*domain.Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if err := checkPhoto(in.Photo, in.PhotoContentType); err != nil {
		return nil, err
	}

	e := &domain.Employee{
		Name:             in.Name,
		Gender:           strings.TrimSpace(in.Gender),
		Age:              in.Age,
		Department:       strings.TrimSpace(in.Department),
		Photo:            in.Photo,
		PhotoContentType: in.PhotoContentType,
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logEmployee(ctx, audit.EventEmployeeCreated, actor, e.ID, nil)
	return e, nil
}

func (s *HRService) UpdateEmployee(ctx context.Context, actor string, id uuid.UUID, patch EmployeePatch) (*domain.Employee, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.ErrValidationFailed.WithError(errors.New("name: required"))
		}
		patch.Name = &name
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}
	if err := checkPhoto(patch.Photo, patch.PhotoContentType); err != nil {
		return nil, err
	}

	update := domain.EmployeeUpdate{
		Name:             patch.Name,
		Gender:           patch.Gender,
		Age:              patch.Age,
		Department:       patch.Department,
		Photo:            patch.Photo,
		PhotoContentType: patch.PhotoContentType,
	}

	e, err := s.employees.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logEmployee(ctx, audit.EventEmployeeUpdated, actor, id, map[string]string{
		"photo_replaced": strconv.FormatBool(len(patch.Photo) > 0),
	})
	return e, nil
}

func (s *HRService) DeleteEmployee(ctx context.Context, actor string, id uuid.UUID) error {
	if err := s.employees.Delete(ctx, id); err != nil {
		return err
	}
	s.logEmployee(ctx, audit.EventEmployeeDeleted, actor, id, nil)
	return nil
}

func (s *HRService) logEmployee(ctx context.Context, t audit.EventType, actor string, id uuid.UUID, meta map[string]string) {
	_ = s.audit.Log(ctx, audit.Event{
		EventType: t,
		Actor:     actor,
		Subject:   id.String(),
		Success:   true,
		Metadata:  meta,
	})
}

func checkPhoto(photo []byte, contentType string) error {
	if len(photo) == 0 {
		return nil
	}
	if len(photo) > maxPhotoBytes {
		return domain.ErrValidationFailed.WithMessage("Photo must be at most 5MB")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return domain.ErrValidationFailed.WithMessage("Photo must be an image")
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidationFailed.WithError(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return domain.ErrValidationFailed.WithError(errors.New(strings.Join(fields, "; ")))
}

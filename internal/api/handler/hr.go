package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facemood/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/service"
)

// HRService is satisfied by *service.HRService.
type HRService interface {
	Login(ctx context.Context, in service.LoginInput) (string, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	EmployeePhoto(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	CreateEmployee(ctx context.Context, actor string, in service.EmployeeInput) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, actor string, id uuid.UUID, patch service.EmployeePatch) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, actor string, id uuid.UUID) error
}

type HRHandler struct {
	service      HRService
	sessionTTL   time.Duration
	secureCookie bool
	logger       *slog.Logger
}

func NewHRHandler(service HRService, sessionTTL time.Duration, secureCookie bool, logger *slog.Logger) *HRHandler {
	return &HRHandler{
		service:      service,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Login POST /api/hr/login
func (h *HRHandler) Login(c *fiber.Ctx) error {
	var in service.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return domain.ErrBadRequest.WithMessage("Username and password required")
	}

	token, err := h.service.Login(c.UserContext(), in)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(SuccessResponse{Success: true})
}

// Logout POST /api/hr/logout
func (h *HRHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(SuccessResponse{Success: true})
}

// ListEmployees GET /api/employees
func (h *HRHandler) ListEmployees(c *fiber.Ctx) error {
	employees, err := h.service.ListEmployees(c.UserContext())
	if err != nil {
		return err
	}
	if employees == nil {
		employees = []domain.Employee{}
	}
	return c.JSON(employees)
}

// Photo GET /api/employees/:id/photo
func (h *HRHandler) Photo(c *fiber.Ctx) error {
	id, err := employeeID(c)
	if err != nil {
		return err
	}

	photo, contentType, err := h.service.EmployeePhoto(c.UserContext(), id)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=60")
	return c.Send(photo)
}

// CreateEmployee POST /api/employees - multipart name, gender, age,
// department and an optional "image" file.
func (h *HRHandler) CreateEmployee(c *fiber.Ctx) error {
	claims, err := middleware.GetSession(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return domain.ErrBadRequest.WithMessage("Expected multipart/form-data")
	}

	in := service.EmployeeInput{
		Name:       firstValue(form, "name"),
		Gender:     firstValue(form, "gender"),
		Department: firstValue(form, "department"),
	}
	if raw := firstValue(form, "age"); raw != "" {
		age, err := parseAge(raw)
		if err != nil {
			return err
		}
		in.Age = age
	}
	in.Photo, in.PhotoContentType, err = readPhoto(form)
	if err != nil {
		return err
	}

	employee, err := h.service.CreateEmployee(c.UserContext(), claims.Username, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(employee)
}

type employeePatchBody struct {
	Name       *string `json:"name"`
	Gender     *string `json:"gender"`
	Age        *int    `json:"age"`
	Department *string `json:"department"`
}

// UpdateEmployee PUT /api/employees/:id - partial update. Accepts multipart
// (to replace the photo) or a JSON body.
func (h *HRHandler) UpdateEmployee(c *fiber.Ctx) error {
	claims, err := middleware.GetSession(c)
	if err != nil {
		return err
	}
	id, err := employeeID(c)
	if err != nil {
		return err
	}

	var patch service.EmployeePatch
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return domain.ErrBadRequest.WithError(err)
		}
		patch.Name = optionalValue(form, "name")
		patch.Gender = optionalValue(form, "gender")
		patch.Department = optionalValue(form, "department")
		if raw := optionalValue(form, "age"); raw != nil {
			age, err := parseAge(*raw)
			if err != nil {
				return err
			}
			patch.Age = &age
		}
		patch.Photo, patch.PhotoContentType, err = readPhoto(form)
		if err != nil {
			return err
		}
	} else {
		var body employeePatchBody
		if err := c.BodyParser(&body); err != nil {
			return domain.ErrBadRequest.WithError(err)
		}
		patch.Name, patch.Gender, patch.Age, patch.Department = body.Name, body.Gender, body.Age, body.Department
	}

	employee, err := h.service.UpdateEmployee(c.UserContext(), claims.Username, id, patch)
	if err != nil {
		return err
	}
	return c.JSON(employee)
}

// DeleteEmployee DELETE /api/employees/:id
func (h *HRHandler) DeleteEmployee(c *fiber.Ctx) error {
	claims, err := middleware.GetSession(c)
	if err != nil {
		return err
	}
	id, err := employeeID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteEmployee(c.UserContext(), claims.Username, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func employeeID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrEmployeeNotFound
	}
	return id, nil
}

func parseAge(raw string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, domain.ErrValidationFailed.WithError(fmt.Errorf("age: %w", err))
	}
	return age, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := optionalValue(form, key); v != nil {
		return *v
	}
	return ""
}

// optionalValue distinguishes an absent field (nil) from an empty one.
func optionalValue(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func readPhoto(form *multipart.Form) ([]byte, string, error) {
	files := form.File["image"]
	if len(files) == 0 {
		return nil, "", nil
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		return nil, "", domain.ErrInternal.WithError(fmt.Errorf("open photo: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", domain.ErrInternal.WithError(fmt.Errorf("read photo: %w", err))
	}
	if len(data) == 0 {
		return nil, "", nil
	}

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		return nil, "", domain.ErrValidationFailed.WithError(errors.New("image: missing content type"))
	}
	return data, contentType, nil
}

package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

// AnalysisService is satisfied by *service.AnalysisService.
type AnalysisService interface {
	Analyze(ctx context.Context, image []byte) (*domain.Analysis, error)
}

type AnalyzeHandler struct {
	service AnalysisService
	logger  *slog.Logger
}

func NewAnalyzeHandler(service AnalysisService, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		service: service,
		logger:  logger,
	}
}

// Analyze POST /api/analyze - multipart form with a single "image" file.
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	image, err := readFormFile(c, "image")
	if err != nil {
		return err
	}
	if len(image) == 0 {
		return domain.ErrNoImage
	}

	analysis, err := h.service.Analyze(c.UserContext(), image)
	if err != nil {
		return err
	}

	return c.JSON(analysis)
}

// readFormFile returns the bytes of a multipart file field. A missing field
// is reported as ErrNoImage.
func readFormFile(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrNoImage
	}

	f, err := fh.Open()
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("open upload: %w", err))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("read upload: %w", err))
	}
	return data, nil
}

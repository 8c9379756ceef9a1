package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/config"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider/rekognition"
)

// ProviderType defines supported face analysis backends
type ProviderType string

const (
	// ProviderTypeRekognition is AWS Rekognition (production)
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeDeepFace is a self-hosted DeepFace server
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeMock returns deterministic faces without any network call
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceAnalyzer builds the analyzer selected by PROVIDER_TYPE.
//
// Rekognition credentials come from the AWS default chain
// (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY, shared config, instance role).
func NewFaceAnalyzer(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.FaceAnalyzer, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeRekognition, "":
		return createRekognitionProvider(ctx, cfg, auditLogger)

	case ProviderTypeDeepFace:
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, ProviderTypeRekognition, ProviderTypeDeepFace, ProviderTypeMock)
	}
}

func createRekognitionProvider(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.FaceAnalyzer, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	var opts []rekognition.ProviderOption
	if auditLogger != nil {
		opts = append(opts, rekognition.WithAuditLogger(auditLogger))
	}

	prov, err := rekognition.NewProvider(ctx, rekogConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("create rekognition provider: %w", err)
	}

	return prov, nil
}

func createDeepFaceProvider(cfg *config.Config) provider.FaceAnalyzer {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}

	return deepface.NewProvider(deepfaceConfig)
}

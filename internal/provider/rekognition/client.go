package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"

	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
)

const (
	errCodeAccessDenied       = "AccessDeniedException"
	errCodeUnrecognizedClient = "UnrecognizedClientException"
	errCodeInvalidSignature   = "InvalidSignatureException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
	errCodeThroughput         = "ProvisionedThroughputExceededException"
	errCodeThrottling         = "ThrottlingException"
	errCodeInternal           = "InternalServerError"
)

// API is the subset of the Rekognition client this package calls.
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// Client wraps the AWS Rekognition client.
type Client struct {
	rekognition API
	config      Config
}

// NewClient creates a Rekognition client using the AWS default credential
// chain (env vars, shared config, instance role).
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Client{
		rekognition: rekognition.NewFromConfig(awsCfg),
		config:      cfg,
	}, nil
}

// NewClientWithAPI is used by tests and by callers that build their own SDK client.
func NewClientWithAPI(api API, cfg Config) *Client {
	return &Client{rekognition: api, config: cfg}
}

// classifyError maps AWS error codes onto provider sentinels, keeping the
// original error in the chain for diagnostics.
func classifyError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied, errCodeUnrecognizedClient, errCodeInvalidSignature:
		return fmt.Errorf("%w: %w", provider.ErrInvalidCredentials, err)
	case errCodeInvalidParameter, errCodeInvalidImageFormat, errCodeImageTooLarge:
		return fmt.Errorf("%w: %w", provider.ErrInvalidImage, err)
	case errCodeThroughput, errCodeThrottling, errCodeInternal:
		return fmt.Errorf("%w: %w", provider.ErrUnavailable, err)
	}
	return err
}

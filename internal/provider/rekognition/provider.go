package rekognition

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
)

const (
	// maxImageSize is the maximum inline image size accepted by DetectFaces (5MB)
	maxImageSize = 5 * 1024 * 1024

	providerName = "rekognition"
)

// Provider implements provider.FaceAnalyzer using AWS Rekognition DetectFaces
// with the full attribute set.
type Provider struct {
	client      *Client
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

var _ provider.FaceAnalyzer = (*Provider)(nil)

func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithClient(client, opts...), nil
}

func NewProviderWithClient(client *Client, opts ...ProviderOption) *Provider {
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return providerName }

// logAudit is fire-and-forget: audit failures never affect detection.
func (p *Provider) logAudit(ctx context.Context, success bool, err error, metadata map[string]string) {
	if p.auditLogger == nil {
		return
	}

	event := audit.Event{
		EventType: audit.EventFaceAnalyzed,
		Provider:  providerName,
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}

	_ = p.auditLogger.Log(ctx, event)
}

func validateImage(image []byte) error {
	if len(image) == 0 {
		return provider.ErrInvalidImage
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: %w (%d bytes)", provider.ErrInvalidImage, ErrImageTooLarge, len(image))
	}
	return nil
}

// DetectFaces calls DetectFaces once. There is no retry: a failure is
// reported to the caller as is.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.FaceDetail, error) {
	meta := map[string]string{"image_size": strconv.Itoa(len(image))}

	if err := validateImage(image); err != nil {
		p.logAudit(ctx, false, err, meta)
		return nil, err
	}

	if p.client.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.client.config.Timeout)
		defer cancel()
	}

	output, err := p.client.rekognition.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		err = classifyError(err)
		p.logAudit(ctx, false, err, meta)
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	faces := make([]provider.FaceDetail, 0, len(output.FaceDetails))
	for i, detail := range output.FaceDetails {
		face, err := convertFaceDetail(detail)
		if err != nil {
			err = fmt.Errorf("face %d: %w", i+1, err)
			p.logAudit(ctx, false, err, meta)
			return nil, err
		}
		faces = append(faces, face)
	}

	meta["faces_count"] = strconv.Itoa(len(faces))
	p.logAudit(ctx, true, nil, meta)

	return faces, nil
}

// convertFaceDetail requires the attributes DetectFaces returns with
// Attributes=ALL. Anything missing means the response is not usable.
func convertFaceDetail(d types.FaceDetail) (provider.FaceDetail, error) {
	if d.AgeRange == nil || d.Gender == nil || d.Quality == nil || d.BoundingBox == nil {
		return provider.FaceDetail{}, fmt.Errorf("%w: missing face attributes", provider.ErrInvalidResponse)
	}
	if len(d.Emotions) == 0 {
		return provider.FaceDetail{}, fmt.Errorf("%w: no emotions", provider.ErrInvalidResponse)
	}

	emotions := make([]provider.Emotion, 0, len(d.Emotions))
	for _, e := range d.Emotions {
		emotions = append(emotions, provider.Emotion{
			Type:       string(e.Type),
			Confidence: float64(aws.ToFloat32(e.Confidence)),
		})
	}

	face := provider.FaceDetail{
		AgeLow:           int(aws.ToInt32(d.AgeRange.Low)),
		AgeHigh:          int(aws.ToInt32(d.AgeRange.High)),
		Gender:           string(d.Gender.Value),
		GenderConfidence: float64(aws.ToFloat32(d.Gender.Confidence)),
		Emotions:         emotions,
		Brightness:       float64(aws.ToFloat32(d.Quality.Brightness)),
		Sharpness:        float64(aws.ToFloat32(d.Quality.Sharpness)),
		Confidence:       float64(aws.ToFloat32(d.Confidence)),
		BoundingBox: provider.BoundingBox{
			Width:  float64(aws.ToFloat32(d.BoundingBox.Width)),
			Height: float64(aws.ToFloat32(d.BoundingBox.Height)),
			Left:   float64(aws.ToFloat32(d.BoundingBox.Left)),
			Top:    float64(aws.ToFloat32(d.BoundingBox.Top)),
		},
	}

	if d.Smile != nil {
		face.Smile = flag(d.Smile.Value, d.Smile.Confidence)
	}
	if d.Eyeglasses != nil {
		face.Eyeglasses = flag(d.Eyeglasses.Value, d.Eyeglasses.Confidence)
	}
	if d.Sunglasses != nil {
		face.Sunglasses = flag(d.Sunglasses.Value, d.Sunglasses.Confidence)
	}
	if d.Beard != nil {
		face.Beard = flag(d.Beard.Value, d.Beard.Confidence)
	}
	if d.Mustache != nil {
		face.Mustache = flag(d.Mustache.Value, d.Mustache.Confidence)
	}
	if d.EyesOpen != nil {
		face.EyesOpen = flag(d.EyesOpen.Value, d.EyesOpen.Confidence)
	}
	if d.MouthOpen != nil {
		face.MouthOpen = flag(d.MouthOpen.Value, d.MouthOpen.Confidence)
	}

	return face, nil
}

func flag(value bool, confidence *float32) *provider.Flag {
	return &provider.Flag{Value: value, Confidence: float64(aws.ToFloat32(confidence))}
}

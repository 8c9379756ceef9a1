package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
)

const (
	providerName = "deepface"

	// DeepFace estimates a single age; the range is widened around it so
	// callers see the same shape as Rekognition.
	ageSpread = 4
)

// emotionLabels maps DeepFace emotion keys onto the Rekognition vocabulary
// used in API responses.
var emotionLabels = map[string]string{
	"happy":    "HAPPY",
	"sad":      "SAD",
	"angry":    "ANGRY",
	"surprise": "SURPRISED",
	"fear":     "FEAR",
	"disgust":  "DISGUSTED",
	"neutral":  "CALM",
}

var genderLabels = map[string]string{
	"Man":   "Male",
	"Woman": "Female",
}

// Provider implements provider.FaceAnalyzer using a self-hosted DeepFace API
type Provider struct {
	client *Client
}

var _ provider.FaceAnalyzer = (*Provider)(nil)

func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.FaceDetail, error) {
	if len(img) == 0 {
		return nil, provider.ErrInvalidImage
	}

	resp, err := p.client.Analyze(ctx, base64.StdEncoding.EncodeToString(img))
	if err != nil {
		var se *statusError
		switch {
		case errors.As(err, &se) && se.Status < 500:
			return nil, fmt.Errorf("detect faces: %w: %w", provider.ErrInvalidImage, err)
		case errors.Is(err, ErrInvalidResponse):
			return nil, fmt.Errorf("detect faces: %w: %w", provider.ErrInvalidResponse, err)
		default:
			return nil, fmt.Errorf("detect faces: %w: %w", provider.ErrUnavailable, err)
		}
	}

	// Bounding boxes are reported as ratios; without dimensions they stay zero.
	width, height := imageSize(img)

	faces := make([]provider.FaceDetail, 0, len(resp.Results))
	for i, r := range resp.Results {
		if len(r.Emotion) == 0 || len(r.Gender) == 0 {
			return nil, fmt.Errorf("face %d: %w: missing gender or emotion", i+1, provider.ErrInvalidResponse)
		}
		faces = append(faces, convertResult(r, width, height))
	}

	return faces, nil
}

func convertResult(r AnalyzeResult, width, height int) provider.FaceDetail {
	face := provider.FaceDetail{
		AgeLow:     max(r.Age-ageSpread, 0),
		AgeHigh:    r.Age + ageSpread,
		Confidence: r.FaceConfidence * 100,
	}

	gender := r.DominantGender
	if gender == "" {
		var best float64
		for k, v := range r.Gender {
			if v > best {
				gender, best = k, v
			}
		}
	}
	face.GenderConfidence = r.Gender[gender]
	if label, ok := genderLabels[gender]; ok {
		gender = label
	}
	face.Gender = gender

	for name, conf := range r.Emotion {
		label, ok := emotionLabels[name]
		if !ok {
			continue
		}
		face.Emotions = append(face.Emotions, provider.Emotion{Type: label, Confidence: conf})
	}

	if width > 0 && height > 0 {
		face.BoundingBox = provider.BoundingBox{
			Width:  float64(r.Region.W) / float64(width),
			Height: float64(r.Region.H) / float64(height),
			Left:   float64(r.Region.X) / float64(width),
			Top:    float64(r.Region.Y) / float64(height),
		}
	}

	return face
}

func imageSize(img []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

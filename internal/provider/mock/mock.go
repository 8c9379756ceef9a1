package mock

import (
	"context"
	"crypto/sha256"

	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
)

// minFaceBytes abaixo disso a imagem é tratada como "sem rosto"
const minFaceBytes = 1000

var emotionNames = []string{"HAPPY", "CALM", "SURPRISED", "SAD", "CONFUSED", "ANGRY", "DISGUSTED", "FEAR"}

// Provider implementa provider.FaceAnalyzer para testes e desenvolvimento.
// O resultado é determinístico: mesma imagem, mesmo rosto.
type Provider struct{}

var _ provider.FaceAnalyzer = (*Provider)(nil)

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return "mock" }

// DetectFaces simula a detecção a partir do hash da imagem
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.FaceDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, provider.ErrInvalidImage
	}
	if len(image) < minFaceBytes {
		return []provider.FaceDetail{}, nil
	}

	sum := sha256.Sum256(image)

	age := 18 + int(sum[0])%50
	gender := "Female"
	if sum[1]%2 == 0 {
		gender = "Male"
	}

	// emoção dominante escolhida pelo hash, o resto divide a sobra
	top := int(sum[2]) % len(emotionNames)
	topConf := 60 + float64(sum[3]%40)
	emotions := make([]provider.Emotion, 0, len(emotionNames))
	rest := (100 - topConf) / float64(len(emotionNames)-1)
	for i, name := range emotionNames {
		conf := rest
		if i == top {
			conf = topConf
		}
		emotions = append(emotions, provider.Emotion{Type: name, Confidence: conf})
	}

	smiling := emotionNames[top] == "HAPPY"

	return []provider.FaceDetail{
		{
			AgeLow:           age,
			AgeHigh:          age + 8,
			Gender:           gender,
			GenderConfidence: 90 + float64(sum[4]%10),
			Emotions:         emotions,
			Smile:            &provider.Flag{Value: smiling, Confidence: 92.5},
			Eyeglasses:       &provider.Flag{Value: sum[5]%4 == 0, Confidence: 97},
			Sunglasses:       &provider.Flag{Value: false, Confidence: 99},
			Beard:            &provider.Flag{Value: gender == "Male" && sum[6]%3 == 0, Confidence: 88},
			Mustache:         &provider.Flag{Value: false, Confidence: 91},
			EyesOpen:         &provider.Flag{Value: true, Confidence: 96},
			MouthOpen:        &provider.Flag{Value: smiling, Confidence: 80},
			Brightness:       50 + float64(sum[7]%50),
			Sharpness:        50 + float64(sum[8]%50),
			Confidence:       99.9,
			BoundingBox: provider.BoundingBox{
				Width:  0.4,
				Height: 0.5,
				Left:   0.3,
				Top:    0.2,
			},
		},
	}, nil
}

package rekognition

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facemood/internal/audit"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
)

type mockRekognitionAPI struct {
	detectFacesFunc func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
	calls           int
}

func (m *mockRekognitionAPI) DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	m.calls++
	if m.detectFacesFunc != nil {
		return m.detectFacesFunc(ctx, params, optFns...)
	}
	return &rekognition.DetectFacesOutput{}, nil
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

func ptr[T any](v T) *T {
	return &v
}

func fakeImageData() []byte {
	data := make([]byte, 150)
	for i := range data {
		data[i] = byte(i % 256)
	}
	return data
}

func fullFaceDetail() types.FaceDetail {
	return types.FaceDetail{
		AgeRange: &types.AgeRange{Low: ptr(int32(25)), High: ptr(int32(35))},
		Gender:   &types.Gender{Value: types.GenderTypeFemale, Confidence: ptr(float32(98.0))},
		Emotions: []types.Emotion{
			{Type: types.EmotionNameCalm, Confidence: ptr(float32(10.1))},
			{Type: types.EmotionNameHappy, Confidence: ptr(float32(87.5))},
		},
		Smile:     &types.Smile{Value: true, Confidence: ptr(float32(95.25))},
		EyesOpen:  &types.EyeOpen{Value: true, Confidence: ptr(float32(90.0))},
		MouthOpen: &types.MouthOpen{Value: false, Confidence: ptr(float32(70.0))},
		Quality: &types.ImageQuality{
			Brightness: ptr(float32(80.0)),
			Sharpness:  ptr(float32(90.0)),
		},
		Confidence: ptr(float32(99.5)),
		BoundingBox: &types.BoundingBox{
			Left:   ptr(float32(0.1)),
			Top:    ptr(float32(0.2)),
			Width:  ptr(float32(0.3)),
			Height: ptr(float32(0.4)),
		},
	}
}

func newTestProvider(api API, opts ...ProviderOption) *Provider {
	return NewProviderWithClient(NewClientWithAPI(api, Config{Region: "us-east-1"}), opts...)
}

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.FaceAnalyzer = (*Provider)(nil)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Positive(t, cfg.Timeout)
}

func TestDetectFaces_Success(t *testing.T) {
	var gotInput *rekognition.DetectFacesInput
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			gotInput = params
			return &rekognition.DetectFacesOutput{FaceDetails: []types.FaceDetail{fullFaceDetail()}}, nil
		},
	}
	auditLog := &recordingAudit{}
	p := newTestProvider(mock, WithAuditLogger(auditLog))

	faces, err := p.DetectFaces(context.Background(), fakeImageData())

	require.NoError(t, err)
	require.Len(t, faces, 1)

	require.NotNil(t, gotInput)
	assert.Equal(t, []types.Attribute{types.AttributeAll}, gotInput.Attributes)

	f := faces[0]
	assert.Equal(t, 25, f.AgeLow)
	assert.Equal(t, 35, f.AgeHigh)
	assert.Equal(t, "Female", f.Gender)
	assert.InDelta(t, 98.0, f.GenderConfidence, 0.001)
	require.Len(t, f.Emotions, 2)
	assert.Equal(t, "CALM", f.Emotions[0].Type)
	require.NotNil(t, f.Smile)
	assert.True(t, f.Smile.Value)
	assert.Nil(t, f.Beard)
	assert.Nil(t, f.Eyeglasses)
	require.NotNil(t, f.MouthOpen)
	assert.False(t, f.MouthOpen.Value)
	assert.InDelta(t, 0.3, f.BoundingBox.Width, 0.0001)
	assert.InDelta(t, 99.5, f.Confidence, 0.0001)

	require.Len(t, auditLog.events, 1)
	assert.True(t, auditLog.events[0].Success)
	assert.Equal(t, "1", auditLog.events[0].Metadata["faces_count"])
}

func TestDetectFaces_NoFaces(t *testing.T) {
	mock := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return &rekognition.DetectFacesOutput{FaceDetails: []types.FaceDetail{}}, nil
		},
	}

	faces, err := newTestProvider(mock).DetectFaces(context.Background(), fakeImageData())

	require.NoError(t, err)
	assert.Empty(t, faces)
}

func TestDetectFaces_MalformedDetail(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.FaceDetail)
	}{
		{"no emotions", func(d *types.FaceDetail) { d.Emotions = nil }},
		{"no gender", func(d *types.FaceDetail) { d.Gender = nil }},
		{"no age range", func(d *types.FaceDetail) { d.AgeRange = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := fullFaceDetail()
			tt.mutate(&detail)
			mock := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return &rekognition.DetectFacesOutput{FaceDetails: []types.FaceDetail{detail}}, nil
				},
			}

			faces, err := newTestProvider(mock).DetectFaces(context.Background(), fakeImageData())

			require.Error(t, err)
			assert.Nil(t, faces)
			assert.ErrorIs(t, err, provider.ErrInvalidResponse)
		})
	}
}

func TestDetectFaces_ErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"throttled", &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}, provider.ErrUnavailable},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException"}, provider.ErrInvalidCredentials},
		{"bad image", &smithy.GenericAPIError{Code: "InvalidImageFormatException"}, provider.ErrInvalidImage},
		{"network", errors.New("dial tcp: connection refused"), provider.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					return nil, tt.err
				},
			}
			auditLog := &recordingAudit{}

			faces, err := newTestProvider(mock, WithAuditLogger(auditLog)).DetectFaces(context.Background(), fakeImageData())

			require.Error(t, err)
			assert.Nil(t, faces)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, tt.err, "original error must stay in the chain")
			assert.Equal(t, 1, mock.calls, "no retries")
			require.Len(t, auditLog.events, 1)
			assert.False(t, auditLog.events[0].Success)
		})
	}
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"empty", 0, provider.ErrInvalidImage},
		{"tiny is left to Rekognition", 4, nil},
		{"too large", maxImageSize + 1, ErrImageTooLarge},
		{"ok", 1024, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateImage(make([]byte, tt.size))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, provider.ErrInvalidImage)
		})
	}
}

func TestDetectFaces_InvalidImageSkipsAWS(t *testing.T) {
	mock := &mockRekognitionAPI{}

	_, err := newTestProvider(mock).DetectFaces(context.Background(), nil)

	assert.ErrorIs(t, err, provider.ErrInvalidImage)
	assert.Zero(t, mock.calls)
}

func TestDetectFaces_TinyImageReachesAWS(t *testing.T) {
	mock := &mockRekognitionAPI{}

	faces, err := newTestProvider(mock).DetectFaces(context.Background(), []byte("tiny"))

	require.NoError(t, err)
	assert.Empty(t, faces)
	assert.Equal(t, 1, mock.calls)
}

func TestIntegration_DetectFaces(t *testing.T) {
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		t.Skip("Skipping integration test: AWS_ACCESS_KEY_ID not set")
	}

	p, err := NewProvider(context.Background(), DefaultConfig())
	require.NoError(t, err)

	// random bytes are rejected by Rekognition as an invalid image
	_, err = p.DetectFaces(context.Background(), fakeImageData())
	assert.ErrorIs(t, err, provider.ErrInvalidImage)
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
	"github.com/saturnino-fabrica-de-software/facemood/internal/push"
	"github.com/saturnino-fabrica-de-software/facemood/internal/ws"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockFaceAnalyzer struct {
	mock.Mock
}

func (m *MockFaceAnalyzer) Name() string { return "mock-analyzer" }

func (m *MockFaceAnalyzer) DetectFaces(ctx context.Context, image []byte) ([]provider.FaceDetail, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.FaceDetail), args.Error(1)
}

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockBroadcaster) Broadcast(ctx context.Context, note push.Notification) push.Result {
	args := m.Called(ctx, note)
	return args.Get(0).(push.Result)
}

type recordedEvent struct {
	Type ws.EventType
	Data interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) Publish(t ws.EventType, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: t, Data: data})
}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) ObserveAnalysis(_, outcome string, _ int, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func happyFace() provider.FaceDetail {
	return provider.FaceDetail{
		AgeLow:           25,
		AgeHigh:          35,
		Gender:           "Female",
		GenderConfidence: 98.0001,
		Emotions: []provider.Emotion{
			{Type: "CALM", Confidence: 10.1},
			{Type: "HAPPY", Confidence: 87.5},
			{Type: "SAD", Confidence: 1.234},
		},
		Smile:      &provider.Flag{Value: true, Confidence: 95.256},
		Brightness: 80.129,
		Sharpness:  90.0,
		Confidence: 99.99912,
		BoundingBox: provider.BoundingBox{
			Width: 0.3, Height: 0.4, Left: 0.1, Top: 0.2,
		},
	}
}

var testImage = []byte("jpeg-bytes")

func TestAnalysisService_Analyze(t *testing.T) {
	tests := []struct {
		name        string
		image       []byte
		setupMock   func(*MockFaceAnalyzer)
		wantErr     *domain.AppError
		wantFaces   int
		wantMessage string
		wantOutcome string
		wantEvent   ws.EventType
	}{
		{
			name:        "empty image is an input error",
			image:       nil,
			setupMock:   func(m *MockFaceAnalyzer) {},
			wantErr:     domain.ErrNoImage,
			wantOutcome: metrics.OutcomeNoImage,
		},
		{
			name:  "no faces is a normal result",
			image: testImage,
			setupMock: func(m *MockFaceAnalyzer) {
				m.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{}, nil)
			},
			wantFaces:   0,
			wantMessage: "No faces detected in the image",
			wantOutcome: metrics.OutcomeNoFace,
			wantEvent:   ws.EventNoFaceDetected,
		},
		{
			name:  "one face",
			image: testImage,
			setupMock: func(m *MockFaceAnalyzer) {
				m.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{happyFace()}, nil)
			},
			wantFaces:   1,
			wantOutcome: metrics.OutcomeFaces,
			wantEvent:   ws.EventAnalysisCompleted,
		},
		{
			name:  "provider network error",
			image: testImage,
			setupMock: func(m *MockFaceAnalyzer) {
				m.On("DetectFaces", mock.Anything, testImage).Return(nil, errors.New("dial tcp: i/o timeout"))
			},
			wantErr:     domain.ErrAnalysisFailed,
			wantOutcome: metrics.OutcomeFailed,
			wantEvent:   ws.EventAnalysisFailed,
		},
		{
			name:  "face without emotions is malformed",
			image: testImage,
			setupMock: func(m *MockFaceAnalyzer) {
				f := happyFace()
				f.Emotions = nil
				m.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{f}, nil)
			},
			wantErr:     domain.ErrAnalysisFailed,
			wantOutcome: metrics.OutcomeFailed,
			wantEvent:   ws.EventAnalysisFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := new(MockFaceAnalyzer)
			tt.setupMock(analyzer)
			publisher := &fakePublisher{}
			recorder := &fakeRecorder{}

			svc := NewAnalysisService(analyzer, testLogger(), WithEvents(publisher), WithRecorder(recorder))

			result, err := svc.Analyze(context.Background(), tt.image)

			if tt.wantErr != nil {
				var appErr *domain.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantErr.Code, appErr.Code)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.True(t, result.Success)
				assert.Equal(t, tt.wantFaces, result.FacesDetected)
				assert.Len(t, result.Results, tt.wantFaces)
				assert.Equal(t, tt.wantMessage, result.Message)
			}

			assert.Equal(t, []string{tt.wantOutcome}, recorder.outcomes)
			if tt.wantEvent != "" {
				require.Len(t, publisher.events, 1)
				assert.Equal(t, tt.wantEvent, publisher.events[0].Type)
			} else {
				assert.Empty(t, publisher.events)
			}
			analyzer.AssertExpectations(t)
		})
	}
}

func TestAnalysisService_ProviderErrorDetails(t *testing.T) {
	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, testImage).Return(nil, errors.New("network unreachable"))

	svc := NewAnalysisService(analyzer, testLogger())
	_, err := svc.Analyze(context.Background(), testImage)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.StatusCode)
	assert.Equal(t, "Failed to analyze image", appErr.Message)
	assert.Equal(t, "network unreachable", appErr.Details())
	analyzer.AssertNumberOfCalls(t, "DetectFaces", 1)
}

func TestAnalysisService_MapsAttributes(t *testing.T) {
	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{happyFace()}, nil)

	svc := NewAnalysisService(analyzer, testLogger())
	result, err := svc.Analyze(context.Background(), testImage)
	require.NoError(t, err)

	face := result.Results[0]
	assert.Equal(t, 1, face.FaceID)
	assert.Equal(t, domain.AgeRange{Low: 25, High: 35}, face.AgeRange)
	assert.Equal(t, domain.Gender{Value: "Female", Confidence: 98}, face.Gender)
	assert.Equal(t, []domain.Emotion{
		{Type: "HAPPY", Confidence: 87.5},
		{Type: "CALM", Confidence: 10.1},
		{Type: "SAD", Confidence: 1.23},
	}, face.Emotions)
	require.NotNil(t, face.Attributes.Smile)
	assert.Equal(t, 95.26, face.Attributes.Smile.Confidence)
	assert.Nil(t, face.Attributes.Beard)
	assert.Equal(t, 80.13, face.Quality.Brightness)
	assert.Equal(t, 100.0, face.Confidence)
	assert.Equal(t, 0.3, face.BoundingBox.Width)
}

func TestAnalysisService_EmotionsSortedNonIncreasing(t *testing.T) {
	detail := happyFace()
	detail.Emotions = []provider.Emotion{
		{Type: "FEAR", Confidence: 3},
		{Type: "SAD", Confidence: 40},
		{Type: "ANGRY", Confidence: 40},
		{Type: "HAPPY", Confidence: 17},
	}
	second := happyFace()

	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{detail, second}, nil)

	svc := NewAnalysisService(analyzer, testLogger())
	result, err := svc.Analyze(context.Background(), testImage)
	require.NoError(t, err)
	require.Equal(t, 2, result.FacesDetected)

	for _, face := range result.Results {
		assert.True(t, sort.SliceIsSorted(face.Emotions, func(i, j int) bool {
			return face.Emotions[i].Confidence > face.Emotions[j].Confidence
		}))
	}
	// ties keep provider order
	assert.Equal(t, "SAD", result.Results[0].Emotions[0].Type)
	assert.Equal(t, "ANGRY", result.Results[0].Emotions[1].Type)
	assert.Equal(t, 2, result.Results[1].FaceID)
}

func TestAnalysisService_NotifiesTopEmotionOfFirstFace(t *testing.T) {
	first := happyFace()
	second := happyFace()
	second.Emotions = []provider.Emotion{{Type: "ANGRY", Confidence: 99}}

	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{first, second}, nil)

	broadcaster := new(MockBroadcaster)
	broadcaster.On("Enabled").Return(true)
	broadcaster.On("Broadcast", mock.Anything, push.Notification{
		Title: "Emotion detected",
		Body:  "happy (87.5%)",
		Icon:  "/network-detection.svg",
		Data:  push.NotificationData{URL: "/"},
	}).Return(push.Result{Attempted: 2, Sent: 1, Failed: 1})

	svc := NewAnalysisService(analyzer, testLogger(), WithNotifier(broadcaster))
	_, err := svc.Analyze(context.Background(), testImage)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))

	broadcaster.AssertExpectations(t)
}

func TestAnalysisService_PushDoesNotBlockResponse(t *testing.T) {
	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{happyFace()}, nil)

	release := make(chan struct{})
	broadcaster := new(MockBroadcaster)
	broadcaster.On("Enabled").Return(true)
	broadcaster.On("Broadcast", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(push.Result{})

	svc := NewAnalysisService(analyzer, testLogger(), WithNotifier(broadcaster))

	done := make(chan struct{})
	go func() {
		_, _ = svc.Analyze(context.Background(), testImage)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Analyze waited for the push fan-out")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))
}

func TestAnalysisService_NoPushWhenDisabledOrNoFaces(t *testing.T) {
	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, []byte("one")).Return([]provider.FaceDetail{happyFace()}, nil)
	analyzer.On("DetectFaces", mock.Anything, []byte("none")).Return([]provider.FaceDetail{}, nil)

	disabled := new(MockBroadcaster)
	disabled.On("Enabled").Return(false)

	svc := NewAnalysisService(analyzer, testLogger(), WithNotifier(disabled))
	_, err := svc.Analyze(context.Background(), []byte("one"))
	require.NoError(t, err)
	_, err = svc.Analyze(context.Background(), []byte("none"))
	require.NoError(t, err)

	require.NoError(t, svc.Wait(context.Background()))
	disabled.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}

func TestAnalysisService_WaitHonoursContext(t *testing.T) {
	analyzer := new(MockFaceAnalyzer)
	analyzer.On("DetectFaces", mock.Anything, testImage).Return([]provider.FaceDetail{happyFace()}, nil)

	release := make(chan struct{})
	defer close(release)
	broadcaster := new(MockBroadcaster)
	broadcaster.On("Enabled").Return(true)
	broadcaster.On("Broadcast", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(push.Result{})

	svc := NewAnalysisService(analyzer, testLogger(), WithNotifier(broadcaster))
	_, err := svc.Analyze(context.Background(), testImage)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Wait(ctx), context.DeadlineExceeded)
}

func TestEmotionNotification(t *testing.T) {
	tests := []struct {
		emotion domain.Emotion
		want    string
	}{
		{domain.Emotion{Type: "HAPPY", Confidence: 87.5}, "happy (87.5%)"},
		{domain.Emotion{Type: "CALM", Confidence: 90}, "calm (90%)"},
		{domain.Emotion{Type: "SURPRISED", Confidence: 12.34}, "surprised (12.34%)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			note := EmotionNotification(tt.emotion, "/icon.svg")
			assert.Equal(t, tt.want, note.Body)
			assert.Equal(t, "Emotion detected", note.Title)
			assert.Equal(t, "/icon.svg", note.Icon)
			assert.Equal(t, "/", note.Data.URL)
		})
	}
}

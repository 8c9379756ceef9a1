package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facemood/internal/provider"
	"github.com/saturnino-fabrica-de-software/facemood/internal/push"
	"github.com/saturnino-fabrica-de-software/facemood/internal/ws"
)

const (
	defaultPushTimeout = 10 * time.Second
	notificationTitle  = "Emotion detected"
)

type PushBroadcaster interface {
	Enabled() bool
	Broadcast(ctx context.Context, note push.Notification) push.Result
}

type EventPublisher interface {
	Publish(eventType ws.EventType, data interface{})
}

type AnalysisRecorder interface {
	ObserveAnalysis(provider, outcome string, faces int, d time.Duration)
}

// AnalysisService turns provider output into client-facing face records and
// kicks off the push fan-out. Notification work never delays or fails the
// analysis result.
type AnalysisService struct {
	analyzer    provider.FaceAnalyzer
	notifier    PushBroadcaster
	events      EventPublisher
	recorder    AnalysisRecorder
	logger      *slog.Logger
	pushIcon    string
	pushTimeout time.Duration

	inflight sync.WaitGroup
}

type AnalysisOption func(*AnalysisService)

func WithNotifier(n PushBroadcaster) AnalysisOption {
	return func(s *AnalysisService) { s.notifier = n }
}

func WithEvents(p EventPublisher) AnalysisOption {
	return func(s *AnalysisService) { s.events = p }
}

func WithRecorder(r AnalysisRecorder) AnalysisOption {
	return func(s *AnalysisService) { s.recorder = r }
}

func WithPushIcon(icon string) AnalysisOption {
	return func(s *AnalysisService) { s.pushIcon = icon }
}

func WithPushTimeout(d time.Duration) AnalysisOption {
	return func(s *AnalysisService) { s.pushTimeout = d }
}

func NewAnalysisService(analyzer provider.FaceAnalyzer, logger *slog.Logger, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		analyzer:    analyzer,
		logger:      logger,
		pushIcon:    "/network-detection.svg",
		pushTimeout: defaultPushTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs a single detection. Zero faces is a successful result with a
// message; provider failures become ErrAnalysisFailed carrying the cause.
func (s *AnalysisService) Analyze(ctx context.Context, image []byte) (*domain.Analysis, error) {
	if len(image) == 0 {
		s.observe(metrics.OutcomeNoImage, 0, 0)
		return nil, domain.ErrNoImage
	}

	start := time.Now()
	details, err := s.analyzer.DetectFaces(ctx, image)
	elapsed := time.Since(start)
	if err != nil {
		s.fail(ctx, err, elapsed)
		return nil, domain.ErrAnalysisFailed.WithError(err)
	}

	if len(details) == 0 {
		s.observe(metrics.OutcomeNoFace, 0, elapsed)
		s.publish(ws.EventNoFaceDetected, nil)
		return &domain.Analysis{
			Success:       true,
			FacesDetected: 0,
			Message:       domain.NoFacesMessage,
		}, nil
	}

	results := make([]domain.FaceAttributes, 0, len(details))
	for i, d := range details {
		face, err := toFaceAttributes(i+1, d)
		if err != nil {
			s.fail(ctx, err, elapsed)
			return nil, domain.ErrAnalysisFailed.WithError(err)
		}
		results = append(results, face)
	}

	analysis := &domain.Analysis{
		Success:       true,
		FacesDetected: len(results),
		Results:       results,
	}

	s.observe(metrics.OutcomeFaces, len(results), elapsed)
	s.publish(ws.EventAnalysisCompleted, analysis)
	s.notifyTopEmotion(results[0])

	return analysis, nil
}

func (s *AnalysisService) fail(ctx context.Context, err error, elapsed time.Duration) {
	s.logger.ErrorContext(ctx, "face analysis failed",
		"provider", s.analyzer.Name(),
		"error", err,
		"duration_ms", elapsed.Milliseconds(),
	)
	s.observe(metrics.OutcomeFailed, 0, elapsed)
	s.publish(ws.EventAnalysisFailed, map[string]string{"error": err.Error()})
}

// notifyTopEmotion is fire-and-forget: it runs detached from the request
// context with its own timeout.
func (s *AnalysisService) notifyTopEmotion(face domain.FaceAttributes) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}
	top, ok := face.TopEmotion()
	if !ok {
		return
	}

	note := EmotionNotification(top, s.pushIcon)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
		defer cancel()

		res := s.notifier.Broadcast(ctx, note)
		if res.Attempted > 0 {
			s.logger.Debug("push fan-out finished",
				"attempted", res.Attempted,
				"sent", res.Sent,
				"failed", res.Failed,
				"expired", res.Expired,
			)
		}
	}()
}

// Wait blocks until background notifications have finished or ctx is done.
func (s *AnalysisService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AnalysisService) observe(outcome string, faces int, d time.Duration) {
	if s.recorder != nil {
		s.recorder.ObserveAnalysis(s.analyzer.Name(), outcome, faces, d)
	}
}

func (s *AnalysisService) publish(t ws.EventType, data interface{}) {
	if s.events != nil {
		s.events.Publish(t, data)
	}
}

// EmotionNotification renders e.g. "happy (87.5%)".
func EmotionNotification(top domain.Emotion, icon string) push.Notification {
	return push.Notification{
		Title: notificationTitle,
		Body:  fmt.Sprintf("%s (%s%%)", strings.ToLower(top.Type), strconv.FormatFloat(top.Confidence, 'f', -1, 64)),
		Icon:  icon,
		Data:  push.NotificationData{URL: "/"},
	}
}

var errNoEmotions = errors.New("face has no emotions")

func toFaceAttributes(id int, d provider.FaceDetail) (domain.FaceAttributes, error) {
	if len(d.Emotions) == 0 {
		return domain.FaceAttributes{}, fmt.Errorf("face %d: %w: %w", id, provider.ErrInvalidResponse, errNoEmotions)
	}

	emotions := make([]domain.Emotion, 0, len(d.Emotions))
	for _, e := range d.Emotions {
		emotions = append(emotions, domain.Emotion{Type: e.Type, Confidence: round2(e.Confidence)})
	}
	sort.SliceStable(emotions, func(i, j int) bool {
		return emotions[i].Confidence > emotions[j].Confidence
	})

	return domain.FaceAttributes{
		FaceID:   id,
		AgeRange: domain.AgeRange{Low: d.AgeLow, High: d.AgeHigh},
		Gender: domain.Gender{
			Value:      d.Gender,
			Confidence: round2(d.GenderConfidence),
		},
		Emotions: emotions,
		Attributes: domain.FaceFeatures{
			Smile:      feature(d.Smile),
			Eyeglasses: feature(d.Eyeglasses),
			Sunglasses: feature(d.Sunglasses),
			Beard:      feature(d.Beard),
			Mustache:   feature(d.Mustache),
			EyesOpen:   feature(d.EyesOpen),
			MouthOpen:  feature(d.MouthOpen),
		},
		Quality: domain.Quality{
			Brightness: round2(d.Brightness),
			Sharpness:  round2(d.Sharpness),
		},
		Confidence: round2(d.Confidence),
		BoundingBox: domain.BoundingBox{
			Width:  d.BoundingBox.Width,
			Height: d.BoundingBox.Height,
			Left:   d.BoundingBox.Left,
			Top:    d.BoundingBox.Top,
		},
	}, nil
}

func feature(f *provider.Flag) *domain.Feature {
	if f == nil {
		return nil
	}
	return &domain.Feature{Value: f.Value, Confidence: round2(f.Confidence)}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

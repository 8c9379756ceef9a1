// Package kiosk drives the attendance capture loop: open a camera, grab a
// frame, submit it for analysis and give spoken and audible feedback.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
	"github.com/saturnino-fabrica-de-software/facemood/internal/history"
)

const (
	MinAutoInterval     = 3 * time.Second
	MaxAutoInterval     = 30 * time.Second
	DefaultAutoInterval = 5 * time.Second

	statusTTL = 3 * time.Second
)

const (
	SpeechStarted      = "Webcam started. Ready for attendance."
	SpeechStopped      = "Webcam stopped"
	SpeechCameraError  = "Error accessing webcam"
	SpeechNoFace       = "No face detected. Please position yourself in front of the camera."
	SpeechError        = "Error processing image"
	StatusAnalyzing    = "Analyzing..."
	StatusMarked       = "✓ Attendance marked successfully!"
	StatusNoFace       = "⚠ No face detected. Please try again."
	speechMarkedFormat = "Attendance marked. You seem %s. Have a great day!"
)

var (
	ErrBusy            = errors.New("kiosk: analysis already in progress")
	ErrNotActive       = errors.New("kiosk: camera is not active")
	ErrInvalidInterval = errors.New("kiosk: auto capture interval must be between 3s and 30s")
)

type State string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateAnalyzing State = "analyzing"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeMarked
	OutcomeNoFace
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMarked:
		return "marked"
	case OutcomeNoFace:
		return "no_face"
	case OutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

type status struct {
	text      string
	expiresAt time.Time
}

// Kiosk is safe for concurrent use. At most one analysis runs at a time;
// a capture requested while one is in flight returns ErrBusy.
type Kiosk struct {
	camera   Camera
	analyzer Analyzer
	speaker  Speaker
	tones    TonePlayer
	history  *history.Log
	logger   *slog.Logger
	now      func() time.Time
	ticker   func(time.Duration) Ticker
	quality  int

	analyzing atomic.Bool
	dropped   atomic.Int64

	mu           sync.Mutex
	stream       Stream
	streamCtx    context.Context
	streamCancel context.CancelFunc
	status       status
	lastResult   *domain.FaceAttributes
	autoEnabled  bool
	autoInterval time.Duration
	autoCancel   context.CancelFunc
	autoWG       sync.WaitGroup
}

type Option func(*Kiosk)

func WithSpeaker(s Speaker) Option {
	return func(k *Kiosk) { k.speaker = s }
}

func WithTones(t TonePlayer) Option {
	return func(k *Kiosk) { k.tones = t }
}

func WithHistory(h *history.Log) Option {
	return func(k *Kiosk) { k.history = h }
}

func WithLogger(l *slog.Logger) Option {
	return func(k *Kiosk) { k.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(k *Kiosk) { k.now = now }
}

func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(k *Kiosk) { k.ticker = newTicker }
}

func WithJPEGQuality(q int) Option {
	return func(k *Kiosk) {
		if q > 0 && q <= 100 {
			k.quality = q
		}
	}
}

func New(camera Camera, analyzer Analyzer, opts ...Option) *Kiosk {
	k := &Kiosk{
		camera:       camera,
		analyzer:     analyzer,
		speaker:      silentSpeaker{},
		tones:        silentTones{},
		history:      history.New(history.DefaultCapacity),
		logger:       slog.Default(),
		now:          time.Now,
		ticker:       newTimeTicker,
		quality:      JPEGQuality,
		autoInterval: DefaultAutoInterval,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Start opens the camera. Calling Start on an active kiosk is a no-op.
func (k *Kiosk) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.stream != nil {
		return nil
	}

	stream, err := k.camera.Open(ctx)
	if err != nil {
		k.setStatusLocked("Error accessing webcam: "+err.Error(), false)
		k.speaker.Speak(SpeechCameraError)
		return fmt.Errorf("open camera: %w", err)
	}

	k.stream = stream
	k.streamCtx, k.streamCancel = context.WithCancel(context.Background())
	if k.autoEnabled {
		k.startLoopLocked()
	}
	k.speaker.Speak(SpeechStarted)
	k.logger.Info("camera started")
	return nil
}

// Stop releases the camera, disables auto capture and waits for the capture
// loop to exit.
func (k *Kiosk) Stop() error {
	k.mu.Lock()
	if k.stream == nil {
		k.mu.Unlock()
		return nil
	}
	k.stopLoopLocked()
	k.autoEnabled = false
	k.streamCancel()
	stream := k.stream
	k.stream = nil
	k.mu.Unlock()

	k.autoWG.Wait()

	err := stream.Close()
	k.speaker.Speak(SpeechStopped)
	k.logger.Info("camera stopped")
	if err != nil {
		return fmt.Errorf("close camera: %w", err)
	}
	return nil
}

// EnableAutoCapture captures on every interval while the camera is active.
// Re-enabling with a new interval restarts the loop.
func (k *Kiosk) EnableAutoCapture(interval time.Duration) error {
	if interval < MinAutoInterval || interval > MaxAutoInterval {
		return ErrInvalidInterval
	}

	k.mu.Lock()
	k.stopLoopLocked()
	k.autoEnabled = true
	k.autoInterval = interval
	if k.stream != nil {
		k.startLoopLocked()
	}
	k.mu.Unlock()

	return nil
}

func (k *Kiosk) DisableAutoCapture() {
	k.mu.Lock()
	k.stopLoopLocked()
	k.autoEnabled = false
	k.mu.Unlock()

	k.autoWG.Wait()
}

func (k *Kiosk) AutoCapture() (bool, time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.autoEnabled, k.autoInterval
}

func (k *Kiosk) startLoopLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	k.autoCancel = cancel
	ticker := k.ticker(k.autoInterval)

	k.autoWG.Add(1)
	go func() {
		defer k.autoWG.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				k.tick(ctx)
			}
		}
	}()
}

func (k *Kiosk) stopLoopLocked() {
	if k.autoCancel != nil {
		k.autoCancel()
		k.autoCancel = nil
	}
}

// tick never queues: if an analysis is running the tick is dropped.
func (k *Kiosk) tick(ctx context.Context) {
	if k.analyzing.Load() {
		k.dropTick()
		return
	}

	k.autoWG.Add(1)
	go func() {
		defer k.autoWG.Done()

		if _, err := k.Capture(ctx); err != nil {
			if errors.Is(err, ErrBusy) {
				k.dropTick()
				return
			}
			if ctx.Err() == nil {
				k.logger.Debug("auto capture failed", "error", err)
			}
		}
	}()
}

func (k *Kiosk) dropTick() {
	n := k.dropped.Add(1)
	k.logger.Debug("auto capture tick dropped", "dropped_total", n)
}

// DroppedTicks reports how many auto-capture ticks found an analysis in flight.
func (k *Kiosk) DroppedTicks() int64 {
	return k.dropped.Load()
}

// Capture grabs one frame and runs it through analysis. Analysis failures are
// reported through feedback and also returned with OutcomeFailed.
//
// A capture is bound to the stream it started on: Stop cancels it, and a
// cancelled capture or one that outlives its stream returns OutcomeNone
// without feedback or history.
func (k *Kiosk) Capture(ctx context.Context) (Outcome, error) {
	k.mu.Lock()
	stream := k.stream
	streamCtx := k.streamCtx
	k.mu.Unlock()
	if stream == nil {
		return OutcomeNone, ErrNotActive
	}

	if !k.analyzing.CompareAndSwap(false, true) {
		return OutcomeNone, ErrBusy
	}
	defer k.analyzing.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(streamCtx, cancel)()

	k.setStatus(StatusAnalyzing, false)

	result, err := k.submit(ctx, stream)
	if ctx.Err() != nil || !k.streaming(stream) {
		k.clearStatus(StatusAnalyzing)
		if err == nil {
			err = ErrNotActive
		}
		return OutcomeNone, err
	}
	if err != nil {
		k.tones.Play(ToneError)
		k.speaker.Speak(SpeechError)
		k.setStatus("Error: "+errorMessage(err), true)
		k.logger.Warn("capture failed", "error", err)
		return OutcomeFailed, err
	}

	if result.FacesDetected == 0 || len(result.Results) == 0 {
		k.tones.Play(ToneError)
		k.speaker.Speak(SpeechNoFace)
		k.setStatus(StatusNoFace, true)
		return OutcomeNoFace, nil
	}

	face := result.Results[0]
	entry, ok := history.EntryFromFace(face, k.now())
	if !ok {
		err := errors.New("analysis returned a face without emotions")
		k.tones.Play(ToneError)
		k.speaker.Speak(SpeechError)
		k.setStatus("Error: "+err.Error(), true)
		return OutcomeFailed, err
	}

	k.history.Add(entry)
	k.mu.Lock()
	k.lastResult = &face
	k.mu.Unlock()

	k.tones.Play(ToneSuccess)
	k.speaker.Speak(fmt.Sprintf(speechMarkedFormat, entry.Emotion))
	k.setStatus(StatusMarked, true)
	k.logger.Info("attendance marked",
		"emotion", entry.Emotion,
		"age", entry.Age,
		"gender", entry.Gender,
	)

	return OutcomeMarked, nil
}

func (k *Kiosk) submit(ctx context.Context, stream Stream) (*domain.Analysis, error) {
	frame, err := stream.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture frame: %w", err)
	}

	img, err := frame.JPEG(k.quality)
	if err != nil {
		return nil, err
	}

	return k.analyzer.Analyze(ctx, img)
}

func errorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func (k *Kiosk) streaming(stream Stream) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stream == stream
}

// clearStatus empties the status line if it still shows text.
func (k *Kiosk) clearStatus(text string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.status.text == text {
		k.status = status{}
	}
}

func (k *Kiosk) setStatus(text string, expires bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.setStatusLocked(text, expires)
}

func (k *Kiosk) setStatusLocked(text string, expires bool) {
	k.status = status{text: text}
	if expires {
		k.status.expiresAt = k.now().Add(statusTTL)
	}
}

// Status returns the current status line, or "" once it has expired.
func (k *Kiosk) Status() string {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.status.expiresAt.IsZero() && !k.now().Before(k.status.expiresAt) {
		return ""
	}
	return k.status.text
}

func (k *Kiosk) State() State {
	k.mu.Lock()
	active := k.stream != nil
	k.mu.Unlock()

	switch {
	case !active:
		return StateIdle
	case k.analyzing.Load():
		return StateAnalyzing
	default:
		return StateReady
	}
}

func (k *Kiosk) History() []history.Entry {
	return k.history.Entries()
}

func (k *Kiosk) LastResult() (domain.FaceAttributes, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.lastResult == nil {
		return domain.FaceAttributes{}, false
	}
	return *k.lastResult, true
}

package kiosk

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

// JPEGQuality is the default encoding quality for captured frames.
const JPEGQuality = 95

// Camera opens a capture stream. A denied or missing device is reported by Open.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

type Stream interface {
	Capture(ctx context.Context) (Frame, error)
	Close() error
}

// Frame is a single captured image. It only lives for one analysis.
type Frame struct {
	Image image.Image
}

func (f Frame) Width() int  { return f.Image.Bounds().Dx() }
func (f Frame) Height() int { return f.Image.Bounds().Dy() }

func (f Frame) JPEG(quality int) ([]byte, error) {
	if f.Image == nil {
		return nil, fmt.Errorf("encode frame: empty frame")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

type Speaker interface {
	Speak(text string)
}

type Tone struct {
	Frequency float64
	Duration  time.Duration
}

var (
	ToneSuccess = Tone{Frequency: 800, Duration: 300 * time.Millisecond}
	ToneError   = Tone{Frequency: 200, Duration: 500 * time.Millisecond}
)

type TonePlayer interface {
	Play(t Tone)
}

// Analyzer submits an encoded image and returns the analysis result.
type Analyzer interface {
	Analyze(ctx context.Context, jpeg []byte) (*domain.Analysis, error)
}

// Ticker abstracts time.Ticker so the capture loop can be driven in tests.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type silentSpeaker struct{}

func (silentSpeaker) Speak(string) {}

type silentTones struct{}

func (silentTones) Play(Tone) {}

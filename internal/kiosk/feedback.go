package kiosk

import (
	"log/slog"
)

// LogSpeaker writes utterances to the log for headless kiosks.
type LogSpeaker struct {
	Logger *slog.Logger
}

func (s LogSpeaker) Speak(text string) {
	s.Logger.Info("speak", "text", text)
}

type LogTones struct {
	Logger *slog.Logger
}

func (t LogTones) Play(tone Tone) {
	t.Logger.Info("tone", "hz", tone.Frequency, "duration_ms", tone.Duration.Milliseconds())
}

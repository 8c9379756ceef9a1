// Package history keeps the most recent attendance results in memory.
package history

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

const DefaultCapacity = 10

type Entry struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Gender     string    `json:"gender"`
	Age        int       `json:"age"`
	Emotion    string    `json:"emotion"`
	Confidence float64   `json:"confidence"`
}

// EntryFromFace builds an entry from a face with at least one emotion.
// The age is the rounded midpoint of the range and the emotion is lower case.
func EntryFromFace(face domain.FaceAttributes, at time.Time) (Entry, bool) {
	top, ok := face.TopEmotion()
	if !ok {
		return Entry{}, false
	}
	return Entry{
		ID:         uuid.New(),
		Timestamp:  at,
		Gender:     face.Gender.Value,
		Age:        face.AgeRange.Midpoint(),
		Emotion:    strings.ToLower(top.Type),
		Confidence: top.Confidence,
	}, true
}

// Log is a bounded, most-recent-first list. Add evicts the oldest entry
// once capacity is reached.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

func (l *Log) Add(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, Entry{})
	}
	copy(l.entries[1:], l.entries[:len(l.entries)-1])
	l.entries[0] = e
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

func (l *Log) Capacity() int {
	return l.capacity
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = l.entries[:0]
}

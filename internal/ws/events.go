package ws

import (
	"time"
)

type EventType string

const (
	EventAnalysisCompleted EventType = "analysis.completed"
	EventNoFaceDetected    EventType = "analysis.no_face"
	EventAnalysisFailed    EventType = "analysis.failed"
	EventSubscriberAdded   EventType = "push.subscribed"
)

type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

package models

import "time"

// Event types written to the log store.
const (
	EventQuestionReceived = "QUESTION_RECEIVED"
	EventAnswered         = "ANSWERED"
	EventEscalated        = "ESCALATED"
	EventOpenAIUsage      = "OPENAI_USAGE"
	EventProviderError    = "PROVIDER_ERROR"
)

// LogEvent is one row in the event log.
type LogEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details"`
}

// EventCount aggregates how many times an event type occurred.
type EventCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

package domain

import "time"

// OccurrenceContext carries request-scoped details attached to a tracked
// error.
type OccurrenceContext struct {
	UserID    string         `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	URL       string         `json:"url,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// ErrorOccurrence is one classified error observed by the monitor.
// Immutable once created; only window membership changes.
type ErrorOccurrence struct {
	Timestamp      time.Time          `json:"timestamp"`
	Classification Classification     `json:"classification"`
	Error          string             `json:"error,omitempty"`
	Context        *OccurrenceContext `json:"context,omitempty"`
}

// PatternKey groups occurrences that share category and user message.
func (o ErrorOccurrence) PatternKey() string {
	return string(o.Classification.Category) + ":" + o.Classification.UserMessage
}

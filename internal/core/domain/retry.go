package domain

import (
	"fmt"
	"time"
)

// QueuedRetry is a delayed retry waiting in the webhook retry queue.
// Immutable once created; only queue membership changes.
type QueuedRetry struct {
	DeliveryID  string         `json:"delivery_id"`
	Attempt     int            `json:"attempt"`
	Error       string         `json:"error"`
	Context     map[string]any `json:"context,omitempty"`
	EnqueuedAt  time.Time      `json:"enqueued_at"`
	NextRetryAt time.Time      `json:"next_retry_at"`
}

// Key identifies the entry within the queue.
func (r QueuedRetry) Key() string {
	return fmt.Sprintf("%s-%d", r.DeliveryID, r.Attempt)
}

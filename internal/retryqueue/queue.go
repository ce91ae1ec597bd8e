// Package retryqueue buffers delayed webhook retries. Entries wait until
// their due time, then a periodic sweep removes and surfaces them. The
// sweep runs only while the queue is non-empty.
package retryqueue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/monitor"
)

// DefaultSweepInterval is how often due entries are collected.
const DefaultSweepInterval = 5 * time.Second

// RetryFunc is invoked for each due entry. The queue itself only logs;
// re-invoking the original operation is the caller's responsibility.
type RetryFunc func(entry domain.QueuedRetry)

// Stats is the operational view of the queue.
type Stats struct {
	Size       int           `json:"size"`
	OldestKey  string        `json:"oldest_key,omitempty"`
	OldestWait time.Duration `json:"oldest_wait,omitempty"`
}

// Option configures a Queue.
type Option func(*Queue)

// WithSweepInterval overrides the sweep period.
func WithSweepInterval(d time.Duration) Option {
	return func(q *Queue) { q.interval = d }
}

// WithNow sets the time source. Useful for testing.
func WithNow(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// OnRetry sets the callback invoked for each due entry.
func OnRetry(fn RetryFunc) Option {
	return func(q *Queue) { q.onRetry = fn }
}

// Queue is the webhook retry buffer. Safe for concurrent use.
type Queue struct {
	interval time.Duration
	now      func() time.Time
	onRetry  RetryFunc

	mu      sync.Mutex
	entries map[string]domain.QueuedRetry
	running bool
	stop    chan struct{}
	done    chan struct{}
	closed  bool
}

// New creates a Queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		interval: DefaultSweepInterval,
		now:      time.Now,
		entries:  make(map[string]domain.QueuedRetry),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue stores a retry due after delay, keyed by deliveryID and
// attempt number. The sweep starts if not already running.
func (q *Queue) Enqueue(deliveryID string, attempt int, err error, context map[string]any, delay time.Duration) {
	now := q.now()
	entry := domain.QueuedRetry{
		DeliveryID:  deliveryID,
		Attempt:     attempt,
		Context:     context,
		EnqueuedAt:  now,
		NextRetryAt: now.Add(delay),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.entries[entry.Key()] = entry
	monitor.RetryQueueDepth.Set(float64(len(q.entries)))

	if !q.running {
		q.running = true
		q.stop = make(chan struct{})
		q.done = make(chan struct{})
		go q.sweepLoop(q.stop, q.done)
	}
}

// Stats returns queue size and the oldest pending entry.
func (q *Queue) Stats() Stats {
	now := q.now()

	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{Size: len(q.entries)}
	var oldest time.Time
	for key, entry := range q.entries {
		if s.OldestKey == "" || entry.EnqueuedAt.Before(oldest) {
			oldest = entry.EnqueuedAt
			s.OldestKey = key
		}
	}
	if s.OldestKey != "" {
		s.OldestWait = now.Sub(oldest)
	}
	return s
}

// Close stops the sweep permanently. Pending entries are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	running := q.running
	stop := q.stop
	done := q.done
	q.running = false
	q.mu.Unlock()

	if running {
		close(stop)
		<-done
	}
}

func (q *Queue) sweepLoop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if q.sweep() {
				return
			}
		}
	}
}

// sweep removes and processes every due entry. Returns true once the
// queue is empty and the loop should exit.
func (q *Queue) sweep() bool {
	now := q.now()

	q.mu.Lock()
	var due []domain.QueuedRetry
	for key, entry := range q.entries {
		if !entry.NextRetryAt.After(now) {
			due = append(due, entry)
			delete(q.entries, key)
		}
	}
	empty := len(q.entries) == 0
	if empty && !q.closed {
		// Stop the periodic sweep while idle; the next enqueue restarts it.
		q.running = false
	}
	monitor.RetryQueueDepth.Set(float64(len(q.entries)))
	onRetry := q.onRetry
	q.mu.Unlock()

	for _, entry := range due {
		slog.Info("retrying webhook delivery",
			"delivery_id", entry.DeliveryID,
			"attempt", entry.Attempt,
			"waited", now.Sub(entry.EnqueuedAt),
		)
		if onRetry != nil {
			onRetry(entry)
		}
	}
	return empty
}

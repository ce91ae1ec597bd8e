// Package breaker provides a per-key circuit breaker guarding boundary
// operations against repeated failures.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State string

const (
	// Closed is the normal operating state. Calls flow through.
	Closed State = "closed"

	// Open is the tripped state. Calls are rejected immediately.
	Open State = "open"

	// HalfOpen allows exactly one trial call to probe recovery.
	HalfOpen State = "half_open"
)

// ErrOpen is returned when the circuit is open and rejecting calls.
var ErrOpen = errors.New("circuit open")

// IsOpen reports whether err is a rejection due to an open circuit.
func IsOpen(err error) bool {
	return errors.Is(err, ErrOpen)
}

// Default values.
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
)

// Func is the signature for protected operations.
type Func func(ctx context.Context) error

// Status is a point-in-time view of a breaker's internals.
type Status struct {
	Name                string    `json:"name"`
	State               State     `json:"state"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	OpenedAt            time.Time `json:"opened_at,omitzero"`
}

// Breaker is a circuit breaker for one protected key. Safe for
// concurrent use.
type Breaker struct {
	name string
	cfg  config

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	trialBusy bool
}

// New creates a Breaker with the given options.
func New(name string, opts ...Option) *Breaker {
	cfg := config{
		failureThreshold: DefaultFailureThreshold,
		resetTimeout:     DefaultResetTimeout,
		clock:            realClock{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Breaker{
		name:  name,
		cfg:   cfg,
		state: Closed,
	}
}

// Name returns the protected key.
func (b *Breaker) Name() string {
	return b.name
}

// Do executes fn with circuit breaker protection. When the circuit is
// open and the reset timeout has not elapsed, fn is not invoked and
// ErrOpen is returned.
func (b *Breaker) Do(ctx context.Context, fn Func) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	b.record(err)
	return err
}

// Status returns the breaker's current state and failure count.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return Status{
		Name:                b.name,
		State:               b.state,
		ConsecutiveFailures: b.failures,
		OpenedAt:            b.openedAt,
	}
}

// Reset forces the circuit back to closed and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toClosed()
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	switch b.state {
	case Open:
		return ErrOpen
	case HalfOpen:
		if b.trialBusy {
			return ErrOpen
		}
		b.trialBusy = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		if err != nil {
			b.failures++
			if b.failures >= b.cfg.failureThreshold {
				b.toOpen()
			}
		} else {
			b.failures = 0
		}

	case HalfOpen:
		b.trialBusy = false
		if err != nil {
			b.toOpen()
		} else {
			b.toClosed()
		}
	}
}

// refresh moves an expired open circuit to half-open. Callers hold the lock.
func (b *Breaker) refresh() {
	if b.state == Open && b.cfg.clock.Now().Sub(b.openedAt) >= b.cfg.resetTimeout {
		b.state = HalfOpen
		b.trialBusy = false
	}
}

func (b *Breaker) toOpen() {
	wasOpen := b.state == Open
	b.state = Open
	b.openedAt = b.cfg.clock.Now()
	if !wasOpen && b.cfg.onOpen != nil {
		b.cfg.onOpen(b.name)
	}
}

func (b *Breaker) toClosed() {
	wasClosed := b.state == Closed
	b.state = Closed
	b.failures = 0
	b.trialBusy = false
	b.openedAt = time.Time{}
	if !wasClosed && b.cfg.onClose != nil {
		b.cfg.onClose(b.name)
	}
}

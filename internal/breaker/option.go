package breaker

import "time"

type config struct {
	failureThreshold int
	resetTimeout     time.Duration
	clock            Clock

	onOpen  func(name string)
	onClose func(name string)
}

// Option configures a Breaker.
type Option func(*config)

// WithFailureThreshold sets consecutive failures before opening the
// circuit. Default is 5.
func WithFailureThreshold(n int) Option {
	return func(c *config) {
		c.failureThreshold = n
	}
}

// WithResetTimeout sets how long the circuit stays open before allowing
// a trial call. Default is 60 seconds.
func WithResetTimeout(d time.Duration) Option {
	return func(c *config) {
		c.resetTimeout = d
	}
}

// WithClock sets the clock for time operations. Useful for testing.
func WithClock(clock Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// OnOpen sets a hook fired once each time the circuit opens.
func OnOpen(fn func(name string)) Option {
	return func(c *config) {
		c.onOpen = fn
	}
}

// OnClose sets a hook fired once each time the circuit closes.
func OnClose(fn func(name string)) Option {
	return func(c *config) {
		c.onClose = fn
	}
}

package breaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vietddude/sentinel/internal/breaker"
)

var errTest = errors.New("test error")

// fakeClock is a test clock that allows manual time control.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type BreakerSuite struct {
	suite.Suite
	clock *fakeClock
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.clock = newFakeClock()
}

func (s *BreakerSuite) newBreaker(opts ...breaker.Option) *breaker.Breaker {
	opts = append([]breaker.Option{
		breaker.WithFailureThreshold(5),
		breaker.WithResetTimeout(30 * time.Second),
		breaker.WithClock(s.clock),
	}, opts...)
	return breaker.New("webhook:github", opts...)
}

func (s *BreakerSuite) fail(b *breaker.Breaker) error {
	return b.Do(context.Background(), func(ctx context.Context) error {
		return errTest
	})
}

func (s *BreakerSuite) succeed(b *breaker.Breaker) error {
	return b.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.newBreaker()

	st := b.Status()
	s.Equal(breaker.Closed, st.State)
	s.Equal(0, st.ConsecutiveFailures)
}

func (s *BreakerSuite) TestOpensAfterThresholdFailures() {
	b := s.newBreaker()

	for i := 0; i < 4; i++ {
		s.ErrorIs(s.fail(b), errTest)
		s.Equal(breaker.Closed, b.Status().State)
	}

	s.ErrorIs(s.fail(b), errTest)
	s.Equal(breaker.Open, b.Status().State)
}

func (s *BreakerSuite) TestOpenRejectsWithoutInvoking() {
	b := s.newBreaker()
	for i := 0; i < 5; i++ {
		s.fail(b)
	}

	invoked := false
	err := b.Do(context.Background(), func(ctx context.Context) error {
		invoked = true
		return nil
	})

	s.True(breaker.IsOpen(err))
	s.False(invoked)
}

func (s *BreakerSuite) TestSuccessResetsFailureCount() {
	b := s.newBreaker()

	s.fail(b)
	s.fail(b)
	s.succeed(b)
	s.Equal(0, b.Status().ConsecutiveFailures)

	// Needs the full threshold again to open.
	for i := 0; i < 4; i++ {
		s.fail(b)
	}
	s.Equal(breaker.Closed, b.Status().State)
}

func (s *BreakerSuite) TestHalfOpenAfterResetTimeout() {
	b := s.newBreaker()
	for i := 0; i < 5; i++ {
		s.fail(b)
	}

	s.clock.Advance(30 * time.Second)
	s.Equal(breaker.HalfOpen, b.Status().State)
}

func (s *BreakerSuite) TestHalfOpenSuccessCloses() {
	b := s.newBreaker()
	for i := 0; i < 5; i++ {
		s.fail(b)
	}
	s.clock.Advance(30 * time.Second)

	s.NoError(s.succeed(b))

	st := b.Status()
	s.Equal(breaker.Closed, st.State)
	s.Equal(0, st.ConsecutiveFailures)
}

func (s *BreakerSuite) TestHalfOpenFailureReopens() {
	b := s.newBreaker()
	for i := 0; i < 5; i++ {
		s.fail(b)
	}
	s.clock.Advance(30 * time.Second)

	s.ErrorIs(s.fail(b), errTest)
	s.Equal(breaker.Open, b.Status().State)

	// The timeout restarted: still rejecting just before it elapses.
	s.clock.Advance(29 * time.Second)
	s.True(breaker.IsOpen(s.succeed(b)))

	s.clock.Advance(1 * time.Second)
	s.NoError(s.succeed(b))
	s.Equal(breaker.Closed, b.Status().State)
}

func (s *BreakerSuite) TestRejectsBeforeTimeoutElapses() {
	b := s.newBreaker()
	for i := 0; i < 5; i++ {
		s.fail(b)
	}

	s.clock.Advance(29 * time.Second)
	s.True(breaker.IsOpen(s.succeed(b)))
}

func (s *BreakerSuite) TestHooksFireOncePerTransition() {
	var opened, closed int
	b := s.newBreaker(
		breaker.OnOpen(func(name string) { opened++ }),
		breaker.OnClose(func(name string) { closed++ }),
	)

	for i := 0; i < 5; i++ {
		s.fail(b)
	}
	s.Equal(1, opened)

	// Rejected calls while open must not re-fire the hook.
	s.succeed(b)
	s.Equal(1, opened)

	s.clock.Advance(30 * time.Second)
	s.succeed(b)
	s.Equal(1, closed)

	for i := 0; i < 5; i++ {
		s.fail(b)
	}
	s.Equal(2, opened)
}

func (s *BreakerSuite) TestRunReturnsValue() {
	b := s.newBreaker()

	got, err := breaker.Run(context.Background(), b, func(ctx context.Context) (string, error) {
		return "delivery-42", nil
	})
	s.NoError(err)
	s.Equal("delivery-42", got)
}

func (s *BreakerSuite) TestResetClosesOpenCircuit() {
	b := s.newBreaker()
	for i := 0; i < 5; i++ {
		s.fail(b)
	}
	s.Equal(breaker.Open, b.Status().State)

	b.Reset()

	st := b.Status()
	s.Equal(breaker.Closed, st.State)
	s.Equal(0, st.ConsecutiveFailures)
	s.NoError(s.succeed(b))
}

func (s *BreakerSuite) TestRegistryDoIsolatesKeys() {
	reg := breaker.NewRegistry(
		breaker.WithFailureThreshold(2),
		breaker.WithClock(s.clock),
	)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := reg.Do(ctx, "webhook:github", func(ctx context.Context) error {
			return errTest
		})
		s.ErrorIs(err, errTest)
	}

	// The failing key trips and rejects without invoking.
	invoked := false
	err := reg.Do(ctx, "webhook:github", func(ctx context.Context) error {
		invoked = true
		return nil
	})
	s.True(breaker.IsOpen(err))
	s.False(invoked)

	// Sibling keys keep flowing.
	s.NoError(reg.Do(ctx, "webhook:stripe", func(ctx context.Context) error {
		return nil
	}))

	snap := reg.Snapshot()
	s.Equal(breaker.Open, snap["webhook:github"].State)
	s.Equal(breaker.Closed, snap["webhook:stripe"].State)
}

func (s *BreakerSuite) TestRegistryCachesPerKey() {
	reg := breaker.NewRegistry(breaker.WithClock(s.clock))

	a := reg.Get("webhook:github")
	b := reg.Get("webhook:github")
	c := reg.Get("webhook:stripe")

	s.Same(a, b)
	s.NotSame(a, c)

	snap := reg.Snapshot()
	s.Len(snap, 2)
	s.Equal(breaker.Closed, snap["webhook:github"].State)
}

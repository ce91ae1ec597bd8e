// Package backoff decides retry eligibility and delay for classified
// failures.
package backoff

import (
	"math"
	"math/rand"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

const (
	// MaxDelay caps every computed delay.
	MaxDelay = 30 * time.Second

	// jitterFraction is the maximum uniform jitter added to a delay.
	jitterFraction = 0.3

	defaultBaseDelay = 1 * time.Second
)

// Per-category base delays. Categories missing here use the default when
// retryable.
var baseDelays = map[domain.Category]time.Duration{
	domain.CategoryNetworkUnavailable: 1 * time.Second,
	domain.CategoryNetworkTimeout:     3 * time.Second,
	domain.CategoryConnectionRefused:  2 * time.Second,
	domain.CategoryRateLimitExceeded:  5 * time.Second,
	domain.CategoryDatabaseError:      2 * time.Second,
	domain.CategoryDatabaseTimeout:    500 * time.Millisecond,
	domain.CategoryServiceUnavailable: 1 * time.Second,
	domain.CategoryGitHubAPIError:     1 * time.Second,
	domain.CategoryThirdPartyService:  1 * time.Second,
}

// ShouldRetry reports whether the failure is worth retrying at all.
func ShouldRetry(c domain.Classification) bool {
	if !c.IsTransient {
		return false
	}
	return c.HasStrategy(domain.RecoveryRetryImmediate) ||
		c.HasStrategy(domain.RecoveryRetryBackoff)
}

// Delay computes the wait before the given attempt. Attempts are
// 1-indexed; attempt <= 0 or a non-retryable classification yields 0.
// The delay grows as base * 2^(attempt-1) with up to 30% uniform jitter,
// capped at MaxDelay.
func Delay(c domain.Classification, attempt int) time.Duration {
	if attempt <= 0 || !ShouldRetry(c) {
		return 0
	}

	base, ok := baseDelays[c.Category]
	if !ok {
		base = defaultBaseDelay
	}

	delay := float64(base) * math.Pow(2, float64(attempt-1))
	delay += delay * jitterFraction * rand.Float64()
	if delay > float64(MaxDelay) {
		return MaxDelay
	}
	return time.Duration(delay)
}

package alerting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/monitor"
)

// fakeChannel records dispatched events.
type fakeChannel struct {
	name   string
	filter severityFilter
	fail   bool

	mu     sync.Mutex
	events []domain.AlertEvent
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

func (c *fakeChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	if c.fail {
		return errors.New("send failed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func classified(cat domain.Category, sev domain.Severity, msg string) domain.Classification {
	return domain.Classification{
		Category:           cat,
		Severity:           sev,
		IsTransient:        false,
		RecoveryStrategies: []domain.RecoveryStrategy{domain.RecoveryGracefulDegrade},
		UserMessage:        msg,
	}
}

// testEngine returns an engine and monitor on a shared controllable clock.
func testEngine() (*Engine, *monitor.Monitor, *time.Time) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }
	mon := monitor.New(monitor.WithNow(now))
	e := NewEngine(mon, WithNow(now))
	return e, mon, &current
}

func TestProcessError_CriticalErrorDispatches(t *testing.T) {
	e, _, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "critical-errors",
		Trigger:     domain.TriggerCriticalError,
		Suppression: 5 * time.Minute,
	})

	e.ProcessError(nil, classified(domain.CategoryDatabaseError, domain.SeverityCritical, "db down"), nil)
	e.Flush()

	if ch.count() != 1 {
		t.Fatalf("dispatched = %d, want 1", ch.count())
	}
	ev := ch.events[0]
	if ev.RuleName != "critical-errors" {
		t.Errorf("RuleName = %s, want critical-errors", ev.RuleName)
	}
	if ev.Severity != domain.AlertCritical {
		t.Errorf("Severity = %s, want critical", ev.Severity)
	}
	if ev.ID == "" {
		t.Error("event must carry an id")
	}
}

func TestProcessError_SuppressionWindow(t *testing.T) {
	e, _, now := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "critical-errors",
		Trigger:     domain.TriggerCriticalError,
		Suppression: 10 * time.Minute,
	})

	c := classified(domain.CategoryDatabaseError, domain.SeverityCritical, "db down")

	e.ProcessError(nil, c, nil)
	e.ProcessError(nil, c, nil)
	e.Flush()
	if ch.count() != 1 {
		t.Fatalf("dispatched = %d, want 1 (second trigger suppressed)", ch.count())
	}

	*now = now.Add(11 * time.Minute)
	e.ProcessError(nil, c, nil)
	e.Flush()
	if ch.count() != 2 {
		t.Fatalf("dispatched = %d, want 2 after suppression expiry", ch.count())
	}
}

func TestProcessError_SeverityThresholdFiltersRule(t *testing.T) {
	e, _, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:              "high-only",
		Trigger:           domain.TriggerCriticalError,
		SeverityThreshold: domain.SeverityHigh,
		Suppression:       time.Minute,
	})

	e.ProcessError(nil, classified(domain.CategoryValidationFailed, domain.SeverityMedium, "meh"), nil)
	e.Flush()

	if ch.count() != 0 {
		t.Errorf("dispatched = %d, want 0 (below severity threshold)", ch.count())
	}
}

func TestProcessError_CategoryFilter(t *testing.T) {
	e, _, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "github-only",
		Trigger:     domain.TriggerCriticalError,
		Categories:  []domain.Category{domain.CategoryGitHubAPIError},
		Suppression: time.Minute,
	})

	e.ProcessError(nil, classified(domain.CategoryDatabaseError, domain.SeverityCritical, "db"), nil)
	e.Flush()
	if ch.count() != 0 {
		t.Fatalf("dispatched = %d, want 0 (category filtered)", ch.count())
	}

	e.ProcessError(nil, classified(domain.CategoryGitHubAPIError, domain.SeverityCritical, "gh"), nil)
	e.Flush()
	if ch.count() != 1 {
		t.Fatalf("dispatched = %d, want 1", ch.count())
	}
}

func TestProcessError_RepeatedErrorsTrigger(t *testing.T) {
	e, mon, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "repeats",
		Trigger:     domain.TriggerRepeatedErrors,
		Threshold:   3,
		Suppression: time.Hour,
	})

	c := classified(domain.CategoryWebhookValidation, domain.SeverityMedium, "bad signature")
	for i := 0; i < 3; i++ {
		mon.Track(nil, c, nil)
		e.ProcessError(nil, c, nil)
	}
	e.Flush()

	if ch.count() != 1 {
		t.Errorf("dispatched = %d, want 1 (fires on third occurrence, then suppressed)", ch.count())
	}
}

func TestProcessError_ErrorSpikeTrigger(t *testing.T) {
	e, mon, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "spike",
		Trigger:     domain.TriggerErrorSpike,
		Threshold:   0.2, // errors per minute
		Suppression: time.Hour,
	})

	c := classified(domain.CategoryServiceUnavailable, domain.SeverityHigh, "upstream")
	mon.Track(nil, c, nil)
	e.ProcessError(nil, c, nil) // rate 1/15 ≈ 0.067, below threshold
	mon.Track(nil, c, nil)
	mon.Track(nil, c, nil)
	mon.Track(nil, c, nil)
	e.ProcessError(nil, c, nil) // rate 4/15 ≈ 0.27, above threshold
	e.Flush()

	if ch.count() != 1 {
		t.Errorf("dispatched = %d, want 1", ch.count())
	}
}

func TestProcessError_HealthDegradationTrigger(t *testing.T) {
	e, mon, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "unhealthy",
		Trigger:     domain.TriggerHealthDegradation,
		Suppression: time.Hour, // default threshold 70
	})

	c := classified(domain.CategoryInternalError, domain.SeverityCritical, "boom")
	for i := 0; i < 4; i++ {
		mon.Track(nil, c, nil)
	}
	e.ProcessError(nil, c, nil)
	e.Flush()

	if ch.count() != 1 {
		t.Errorf("dispatched = %d, want 1 (score well below 70)", ch.count())
	}
}

func TestProcessError_CustomConditionOverrides(t *testing.T) {
	e, _, _ := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "custom",
		Trigger:     domain.TriggerCriticalError,
		Suppression: time.Minute,
		Condition: func(c domain.Classification, m monitor.MetricsSnapshot) bool {
			return c.Category == domain.CategoryConfigurationError
		},
	})

	// Low severity and not critical: default logic would never fire.
	e.ProcessError(nil, classified(domain.CategoryConfigurationError, domain.SeverityLow, "bad config"), nil)
	e.Flush()

	if ch.count() != 1 {
		t.Errorf("dispatched = %d, want 1 (custom condition fully overrides)", ch.count())
	}
}

func TestDispatch_ChannelFailureDoesNotAbortSiblings(t *testing.T) {
	e, _, _ := testEngine()
	bad := &fakeChannel{name: "bad", fail: true}
	good := &fakeChannel{name: "good"}
	e.RegisterChannel(bad)
	e.RegisterChannel(good)
	e.AddRule(Rule{
		Name:        "critical-errors",
		Trigger:     domain.TriggerCriticalError,
		Suppression: time.Minute,
	})

	e.ProcessError(nil, classified(domain.CategoryDatabaseError, domain.SeverityCritical, "db"), nil)
	e.Flush()

	if good.count() != 1 {
		t.Errorf("good channel dispatched = %d, want 1 despite sibling failure", good.count())
	}
}

func TestDispatch_ChannelSeverityFilter(t *testing.T) {
	e, _, _ := testEngine()
	criticalOnly := &fakeChannel{name: "pager", filter: severityFilter{domain.AlertCritical}}
	all := &fakeChannel{name: "slack"}
	e.RegisterChannel(criticalOnly)
	e.RegisterChannel(all)
	e.AddRule(Rule{
		Name:              "everything",
		Trigger:           domain.TriggerCriticalError,
		SeverityThreshold: domain.SeverityLow,
		Suppression:       time.Minute,
		Condition: func(c domain.Classification, m monitor.MetricsSnapshot) bool {
			return true
		},
	})

	// High severity maps to alert level "error": pager filter rejects it.
	e.ProcessError(nil, classified(domain.CategoryServiceUnavailable, domain.SeverityHigh, "upstream"), nil)
	e.Flush()

	if criticalOnly.count() != 0 {
		t.Errorf("critical-only channel dispatched = %d, want 0", criticalOnly.count())
	}
	if all.count() != 1 {
		t.Errorf("unfiltered channel dispatched = %d, want 1", all.count())
	}
}

func TestHistoryAndStats(t *testing.T) {
	e, _, now := testEngine()
	ch := &fakeChannel{name: "test"}
	e.RegisterChannel(ch)
	e.AddRule(Rule{
		Name:        "critical-errors",
		Trigger:     domain.TriggerCriticalError,
		Suppression: time.Minute,
	})

	e.ProcessError(nil, classified(domain.CategoryDatabaseError, domain.SeverityCritical, "db"), nil)
	*now = now.Add(2 * time.Minute)
	e.ProcessError(nil, classified(domain.CategoryInternalError, domain.SeverityCritical, "boom"), nil)
	e.Flush()

	history := e.History()
	if len(history) != 2 {
		t.Fatalf("history = %d events, want 2", len(history))
	}

	stats := e.Stats()
	if stats.TotalAlerts != 2 {
		t.Errorf("TotalAlerts = %d, want 2", stats.TotalAlerts)
	}
	if stats.AlertsByRule["critical-errors"] != 2 {
		t.Errorf("AlertsByRule = %v, want 2 for critical-errors", stats.AlertsByRule)
	}
	if stats.Rules != 1 || stats.Channels != 1 {
		t.Errorf("Rules = %d, Channels = %d, want 1 and 1", stats.Rules, stats.Channels)
	}

	// Events age out of the query horizon.
	*now = now.Add(25 * time.Hour)
	if got := len(e.History()); got != 0 {
		t.Errorf("history after retention = %d, want 0", got)
	}
}

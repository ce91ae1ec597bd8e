// Package alerting evaluates alert rules against incoming classified
// errors and dispatches deduplicated alerts to registered channels.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/monitor"
)

// Default rule thresholds.
const (
	DefaultSpikeThreshold    = 10.0 // errors per minute
	DefaultHealthThreshold   = 70.0 // health score floor
	DefaultRepeatedThreshold = 5.0  // pattern frequency

	DefaultHistoryRetention = 24 * time.Hour

	dispatchTimeout = 10 * time.Second
)

// Condition fully overrides a rule's default trigger logic when set.
type Condition func(c domain.Classification, m monitor.MetricsSnapshot) bool

// Rule is one alert rule. Loaded at startup, read-only thereafter.
type Rule struct {
	Name              string
	Trigger           domain.TriggerType
	Categories        []domain.Category // empty = all categories
	Threshold         float64           // 0 = trigger default
	SeverityThreshold domain.Severity
	Suppression       time.Duration
	Condition         Condition
}

// Stats summarizes alerting activity for operational visibility.
type Stats struct {
	TotalAlerts        int                          `json:"total_alerts"`
	AlertsByRule       map[string]int               `json:"alerts_by_rule"`
	AlertsBySeverity   map[domain.AlertSeverity]int `json:"alerts_by_severity"`
	ActiveSuppressions int                          `json:"active_suppressions"`
	Rules              int                          `json:"rules"`
	Channels           int                          `json:"channels"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow sets the time source. Useful for testing.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithHistoryRetention overrides the alert history query horizon.
func WithHistoryRetention(d time.Duration) Option {
	return func(e *Engine) { e.retention = d }
}

// Engine is the alerting system. Safe for concurrent use.
type Engine struct {
	monitor   *monitor.Monitor
	retention time.Duration
	now       func() time.Time

	mu         sync.Mutex
	rules      []Rule
	channels   []Channel
	suppressed map[string]time.Time // dedup key -> suppression expiry
	history    []domain.AlertEvent

	dispatches sync.WaitGroup
}

// NewEngine creates an Engine reading metrics from mon.
func NewEngine(mon *monitor.Monitor, opts ...Option) *Engine {
	e := &Engine{
		monitor:    mon,
		retention:  DefaultHistoryRetention,
		now:        time.Now,
		suppressed: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddRule registers a rule. Called during startup wiring only.
func (e *Engine) AddRule(r Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
}

// RegisterChannel registers a dispatch channel. Called during startup
// wiring only.
func (e *Engine) RegisterChannel(ch Channel) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.channels = append(e.channels, ch)
}

// ProcessError evaluates every rule against the classified error and the
// current metrics. Dispatch happens asynchronously and never blocks or
// fails the caller.
func (e *Engine) ProcessError(raw any, c domain.Classification, octx *domain.OccurrenceContext) {
	snap := e.monitor.Metrics()

	e.mu.Lock()
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.Unlock()

	for _, rule := range rules {
		if !e.eligible(rule, c) {
			continue
		}
		if !e.triggered(rule, c, snap) {
			continue
		}
		e.fire(rule, c, octx, snap)
	}
}

// History returns alert events within the retention horizon, oldest
// first.
func (e *Engine) History() []domain.AlertEvent {
	now := e.now()
	cutoff := now.Add(-e.retention)

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.AlertEvent, 0, len(e.history))
	for _, ev := range e.history {
		if !ev.Timestamp.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}

// Stats returns alerting activity counters.
func (e *Engine) Stats() Stats {
	now := e.now()
	cutoff := now.Add(-e.retention)

	e.mu.Lock()
	defer e.mu.Unlock()

	s := Stats{
		AlertsByRule:     make(map[string]int),
		AlertsBySeverity: make(map[domain.AlertSeverity]int),
		Rules:            len(e.rules),
		Channels:         len(e.channels),
	}
	for _, ev := range e.history {
		if ev.Timestamp.Before(cutoff) {
			continue
		}
		s.TotalAlerts++
		s.AlertsByRule[ev.RuleName]++
		s.AlertsBySeverity[ev.Severity]++
	}
	for _, expiry := range e.suppressed {
		if expiry.After(now) {
			s.ActiveSuppressions++
		}
	}
	return s
}

// Flush waits for in-flight dispatches. Used during shutdown and tests.
func (e *Engine) Flush() {
	e.dispatches.Wait()
}

func (e *Engine) eligible(rule Rule, c domain.Classification) bool {
	if rule.SeverityThreshold != "" && !c.Severity.Meets(rule.SeverityThreshold) {
		return false
	}
	if len(rule.Categories) == 0 {
		return true
	}
	for _, cat := range rule.Categories {
		if cat == c.Category {
			return true
		}
	}
	return false
}

func (e *Engine) triggered(rule Rule, c domain.Classification, snap monitor.MetricsSnapshot) bool {
	if rule.Condition != nil {
		return rule.Condition(c, snap)
	}

	switch rule.Trigger {
	case domain.TriggerErrorSpike:
		threshold := rule.Threshold
		if threshold == 0 {
			threshold = DefaultSpikeThreshold
		}
		return snap.ErrorsPerMinute > threshold
	case domain.TriggerHealthDegradation:
		threshold := rule.Threshold
		if threshold == 0 {
			threshold = DefaultHealthThreshold
		}
		return snap.HealthScore < threshold
	case domain.TriggerCriticalError:
		return c.Severity == domain.SeverityCritical
	case domain.TriggerRepeatedErrors:
		threshold := rule.Threshold
		if threshold == 0 {
			threshold = DefaultRepeatedThreshold
		}
		key := string(c.Category) + ":" + c.UserMessage
		return float64(e.monitor.PatternCount(key)) >= threshold
	default:
		return false
	}
}

func (e *Engine) fire(rule Rule, c domain.Classification, octx *domain.OccurrenceContext, snap monitor.MetricsSnapshot) {
	now := e.now()
	dedupKey := fmt.Sprintf("%s:%s:%s", rule.Name, c.Category, c.Severity)

	e.mu.Lock()
	if expiry, ok := e.suppressed[dedupKey]; ok && expiry.After(now) {
		e.mu.Unlock()
		slog.Debug("alert suppressed", "rule", rule.Name, "key", dedupKey)
		return
	}
	e.suppressed[dedupKey] = now.Add(rule.Suppression)

	event := domain.AlertEvent{
		ID:          uuid.NewString(),
		Timestamp:   now,
		RuleName:    rule.Name,
		Severity:    domain.AlertLevel(c.Severity),
		Title:       fmt.Sprintf("[%s] %s", rule.Name, c.Category),
		Description: c.UserMessage,
		Metadata: map[string]any{
			"category":          c.Category,
			"severity":          c.Severity,
			"trigger":           rule.Trigger,
			"errors_per_minute": snap.ErrorsPerMinute,
			"health_score":      snap.HealthScore,
		},
	}
	if octx != nil && octx.URL != "" {
		event.Metadata["url"] = octx.URL
	}

	e.history = append(e.history, event)
	e.pruneLocked(now)

	channels := make([]Channel, len(e.channels))
	copy(channels, e.channels)
	e.mu.Unlock()

	e.dispatches.Add(1)
	go func() {
		defer e.dispatches.Done()
		e.dispatch(event, channels)
	}()
}

// dispatch fans out to every accepting channel concurrently and awaits
// all attempts so each failure gets its own log record. Failures never
// propagate.
func (e *Engine) dispatch(event domain.AlertEvent, channels []Channel) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, ch := range channels {
		if !ch.Accepts(event.Severity) {
			continue
		}
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, event); err != nil {
				monitor.AlertsDispatched.WithLabelValues(ch.Name(), "error").Inc()
				slog.Error("alert dispatch failed",
					"channel", ch.Name(),
					"rule", event.RuleName,
					"error", err,
				)
				return
			}
			monitor.AlertsDispatched.WithLabelValues(ch.Name(), "ok").Inc()
		}(ch)
	}
	wg.Wait()
}

// pruneLocked drops history beyond the retention horizon and expired
// suppression keys. Callers hold the lock.
func (e *Engine) pruneLocked(now time.Time) {
	cutoff := now.Add(-e.retention)
	firstKept := 0
	for firstKept < len(e.history) && e.history[firstKept].Timestamp.Before(cutoff) {
		firstKept++
	}
	if firstKept > 0 {
		e.history = append([]domain.AlertEvent(nil), e.history[firstKept:]...)
	}
	for key, expiry := range e.suppressed {
		if !expiry.After(now) {
			delete(e.suppressed, key)
		}
	}
}

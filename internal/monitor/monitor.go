// Package monitor tracks classified error occurrences over a rolling
// window and derives aggregate metrics, trends and a health score.
package monitor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Defaults for the rolling windows.
const (
	DefaultRetention     = 24 * time.Hour
	DefaultMetricsWindow = 15 * time.Minute

	spikeRatePerMinute  = 10.0
	criticalBurstWindow = 5 * time.Minute
	criticalBurstCount  = 3
)

// PatternStat is one recurring error pattern.
type PatternStat struct {
	Key      string    `json:"key"` // category:userMessage
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// MetricsSnapshot is the derived view over the trailing metrics window.
// Computed on demand, never stored.
type MetricsSnapshot struct {
	TotalErrors      int                     `json:"total_errors"`
	ErrorsByCategory map[domain.Category]int `json:"errors_by_category"`
	ErrorsBySeverity map[domain.Severity]int `json:"errors_by_severity"`
	ErrorsPerMinute  float64                 `json:"errors_per_minute"`
	TopPatterns      []PatternStat           `json:"top_patterns"`
	HealthScore      float64                 `json:"health_score"`
}

// TrendBucket is one hour of occurrence counts.
type TrendBucket struct {
	Start      time.Time               `json:"start"`
	Count      int                     `json:"count"`
	BySeverity map[domain.Severity]int `json:"by_severity"`
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithRetention overrides the occurrence retention horizon.
func WithRetention(d time.Duration) Option {
	return func(m *Monitor) { m.retention = d }
}

// WithMetricsWindow overrides the trailing metrics window.
func WithMetricsWindow(d time.Duration) Option {
	return func(m *Monitor) { m.window = d }
}

// WithNow sets the time source. Useful for testing.
func WithNow(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor ingests classified errors and answers metric queries.
// Safe for concurrent use; the occurrence window and pattern index are
// guarded by one lock so readers never observe a torn state.
type Monitor struct {
	retention time.Duration
	window    time.Duration
	now       func() time.Time

	mu          sync.Mutex
	occurrences []domain.ErrorOccurrence
	patterns    map[string]*patternEntry
}

type patternEntry struct {
	count    int
	lastSeen time.Time
}

// New creates a Monitor.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		retention: DefaultRetention,
		window:    DefaultMetricsWindow,
		now:       time.Now,
		patterns:  make(map[string]*patternEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Track records one classified error occurrence. High and critical
// severities are surfaced as structured log records synchronously.
func (m *Monitor) Track(raw any, c domain.Classification, octx *domain.OccurrenceContext) {
	now := m.now()
	occ := domain.ErrorOccurrence{
		Timestamp:      now,
		Classification: c,
		Error:          errorText(raw),
		Context:        octx,
	}

	m.mu.Lock()
	m.occurrences = append(m.occurrences, occ)

	key := occ.PatternKey()
	entry, ok := m.patterns[key]
	if !ok {
		entry = &patternEntry{}
		m.patterns[key] = entry
	}
	entry.count++
	entry.lastSeen = now

	m.pruneLocked(now)

	stats := m.windowStatsLocked(now)
	burst := m.criticalBurstLocked(now)
	m.mu.Unlock()

	ErrorsTotal.WithLabelValues(string(c.Category), string(c.Severity)).Inc()
	HealthScore.Set(healthScore(stats.rate, stats.critical, stats.high, stats.nonTransient))

	switch c.Severity {
	case domain.SeverityCritical:
		slog.Error("critical error tracked",
			"category", c.Category,
			"message", c.UserMessage,
			"details", c.TechnicalDetails,
		)
	case domain.SeverityHigh:
		slog.Warn("high severity error tracked",
			"category", c.Category,
			"message", c.UserMessage,
		)
	}

	if stats.rate > spikeRatePerMinute {
		slog.Warn("error spike detected",
			"errors_per_minute", stats.rate,
			"window", m.window,
		)
	}
	if burst >= criticalBurstCount {
		slog.Warn("critical error burst detected",
			"count", burst,
			"window", criticalBurstWindow,
		)
	}
}

// Metrics computes the snapshot over the trailing metrics window.
func (m *Monitor) Metrics() MetricsSnapshot {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.window)
	snap := MetricsSnapshot{
		ErrorsByCategory: make(map[domain.Category]int),
		ErrorsBySeverity: make(map[domain.Severity]int),
	}

	var critical, high, nonTransient int
	patterns := make(map[string]*PatternStat)
	for _, occ := range m.occurrences {
		if occ.Timestamp.Before(cutoff) {
			continue
		}
		snap.TotalErrors++
		snap.ErrorsByCategory[occ.Classification.Category]++
		snap.ErrorsBySeverity[occ.Classification.Severity]++

		switch occ.Classification.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityHigh:
			high++
		}
		if !occ.Classification.IsTransient {
			nonTransient++
		}

		key := occ.PatternKey()
		p, ok := patterns[key]
		if !ok {
			p = &PatternStat{Key: key}
			patterns[key] = p
		}
		p.Count++
		if occ.Timestamp.After(p.LastSeen) {
			p.LastSeen = occ.Timestamp
		}
	}

	snap.ErrorsPerMinute = float64(snap.TotalErrors) / m.window.Minutes()
	snap.TopPatterns = topPatterns(patterns, 10)
	snap.HealthScore = healthScore(snap.ErrorsPerMinute, critical, high, nonTransient)
	return snap
}

// PatternCount returns the recorded frequency for a pattern key over the
// retention horizon.
func (m *Monitor) PatternCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.patterns[key]; ok {
		return entry.count
	}
	return 0
}

// Trends buckets retained occurrences into contiguous 1-hour windows
// ending now, oldest first.
func (m *Monitor) Trends(hours int) []TrendBucket {
	if hours <= 0 {
		return nil
	}
	now := m.now()
	start := now.Add(-time.Duration(hours) * time.Hour)

	buckets := make([]TrendBucket, hours)
	for i := range buckets {
		buckets[i] = TrendBucket{
			Start:      start.Add(time.Duration(i) * time.Hour),
			BySeverity: make(map[domain.Severity]int),
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, occ := range m.occurrences {
		if occ.Timestamp.Before(start) || occ.Timestamp.After(now) {
			continue
		}
		idx := int(occ.Timestamp.Sub(start) / time.Hour)
		if idx >= hours {
			idx = hours - 1
		}
		buckets[idx].Count++
		buckets[idx].BySeverity[occ.Classification.Severity]++
	}
	return buckets
}

// pruneLocked drops occurrences beyond the retention horizon and rebuilds
// pattern counts when anything fell off. Callers hold the lock.
func (m *Monitor) pruneLocked(now time.Time) {
	cutoff := now.Add(-m.retention)

	firstKept := 0
	for firstKept < len(m.occurrences) && m.occurrences[firstKept].Timestamp.Before(cutoff) {
		firstKept++
	}
	if firstKept == 0 {
		return
	}
	m.occurrences = append([]domain.ErrorOccurrence(nil), m.occurrences[firstKept:]...)

	// Rebuild the pattern index from retained occurrences; entries with
	// no remaining occurrences disappear.
	m.patterns = make(map[string]*patternEntry)
	for _, occ := range m.occurrences {
		key := occ.PatternKey()
		entry, ok := m.patterns[key]
		if !ok {
			entry = &patternEntry{}
			m.patterns[key] = entry
		}
		entry.count++
		if occ.Timestamp.After(entry.lastSeen) {
			entry.lastSeen = occ.Timestamp
		}
	}
}

type windowStats struct {
	rate         float64
	critical     int
	high         int
	nonTransient int
}

// windowStatsLocked gathers the counts feeding the health score in one
// pass over the metrics window. Callers hold the lock.
func (m *Monitor) windowStatsLocked(now time.Time) windowStats {
	cutoff := now.Add(-m.window)
	var stats windowStats
	count := 0
	for _, occ := range m.occurrences {
		if occ.Timestamp.Before(cutoff) {
			continue
		}
		count++
		switch occ.Classification.Severity {
		case domain.SeverityCritical:
			stats.critical++
		case domain.SeverityHigh:
			stats.high++
		}
		if !occ.Classification.IsTransient {
			stats.nonTransient++
		}
	}
	stats.rate = float64(count) / m.window.Minutes()
	return stats
}

// criticalBurstLocked counts critical occurrences in the burst window.
// Callers hold the lock.
func (m *Monitor) criticalBurstLocked(now time.Time) int {
	cutoff := now.Add(-criticalBurstWindow)
	count := 0
	for _, occ := range m.occurrences {
		if occ.Classification.Severity == domain.SeverityCritical && !occ.Timestamp.Before(cutoff) {
			count++
		}
	}
	return count
}

// healthScore derives the 0-100 score:
// 100 - min(30, rate*3) - 10*critical - 5*high - 2*nonTransient, clamped.
func healthScore(ratePerMinute float64, critical, high, nonTransient int) float64 {
	score := 100.0
	ratePenalty := ratePerMinute * 3
	if ratePenalty > 30 {
		ratePenalty = 30
	}
	score -= ratePenalty
	score -= 10 * float64(critical)
	score -= 5 * float64(high)
	score -= 2 * float64(nonTransient)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func topPatterns(patterns map[string]*PatternStat, n int) []PatternStat {
	out := make([]PatternStat, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func errorText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

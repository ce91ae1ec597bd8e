package domain

import "time"

// AlertSeverity is the level an alert is dispatched at.
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertError    AlertSeverity = "error"
	AlertCritical AlertSeverity = "critical"
)

// AlertLevel maps a classification severity to its alert level.
func AlertLevel(s Severity) AlertSeverity {
	switch s {
	case SeverityCritical:
		return AlertCritical
	case SeverityHigh:
		return AlertError
	case SeverityMedium:
		return AlertWarning
	default:
		return AlertInfo
	}
}

// TriggerType selects the condition an alert rule evaluates.
type TriggerType string

const (
	TriggerErrorSpike        TriggerType = "error_spike"
	TriggerHealthDegradation TriggerType = "health_degradation"
	TriggerCriticalError     TriggerType = "critical_error"
	TriggerRepeatedErrors    TriggerType = "repeated_errors"
)

// AlertEvent is one fired alert. Append-only history record.
type AlertEvent struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	RuleName    string         `json:"rule_name"`
	Severity    AlertSeverity  `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

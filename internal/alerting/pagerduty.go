package alerting

import (
	"context"
	"net/http"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

const pagerdutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

// PagerDutyChannel sends alerts through the PagerDuty Events API v2.
type PagerDutyChannel struct {
	routingKey string
	url        string
	meta       Meta
	filter     severityFilter
	client     *http.Client
}

// NewPagerDutyChannel creates a PagerDuty channel with the given
// integration routing key.
func NewPagerDutyChannel(routingKey string, meta Meta, severities ...domain.AlertSeverity) *PagerDutyChannel {
	return &PagerDutyChannel{
		routingKey: routingKey,
		url:        pagerdutyEventsURL,
		meta:       meta,
		filter:     severities,
		client:     newHTTPClient(10 * time.Second),
	}
}

func (c *PagerDutyChannel) Name() string { return "pagerduty" }

func (c *PagerDutyChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

// Send posts a trigger event in the Events v2 schema.
func (c *PagerDutyChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	body := map[string]any{
		"routing_key":  c.routingKey,
		"event_action": "trigger",
		"dedup_key":    event.ID,
		"payload": map[string]any{
			"summary":   event.Title,
			"source":    c.meta.Service,
			"severity":  pagerdutySeverity(event.Severity),
			"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
			"custom_details": map[string]any{
				"description": event.Description,
				"rule":        event.RuleName,
				"environment": c.meta.Environment,
				"metadata":    event.Metadata,
			},
		},
	}
	return postJSON(ctx, c.client, c.url, body)
}

// pagerdutySeverity maps alert levels onto the closed Events v2 set.
func pagerdutySeverity(sev domain.AlertSeverity) string {
	switch sev {
	case domain.AlertCritical:
		return "critical"
	case domain.AlertError:
		return "error"
	case domain.AlertWarning:
		return "warning"
	default:
		return "info"
	}
}

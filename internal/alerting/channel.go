package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Channel delivers alert events to one destination.
type Channel interface {
	Name() string
	Accepts(sev domain.AlertSeverity) bool
	Send(ctx context.Context, event domain.AlertEvent) error
}

// Meta identifies the emitting service in outbound payloads.
type Meta struct {
	Service     string
	Environment string
}

// severityFilter implements Accepts for channels configured with an
// explicit severity set. An empty set accepts everything.
type severityFilter []domain.AlertSeverity

func (f severityFilter) Accepts(sev domain.AlertSeverity) bool {
	if len(f) == 0 {
		return true
	}
	for _, s := range f {
		if s == sev {
			return true
		}
	}
	return false
}

// payload is the generic outbound alert body. The wire shape is fixed:
// {alert, timestamp, service, environment}.
type payload struct {
	Alert       domain.AlertEvent `json:"alert"`
	Timestamp   string            `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
}

func newPayload(event domain.AlertEvent, meta Meta) payload {
	return payload{
		Alert:       event,
		Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
		Service:     meta.Service,
		Environment: meta.Environment,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// WebhookChannel POSTs the generic payload to an arbitrary endpoint.
type WebhookChannel struct {
	name   string
	url    string
	meta   Meta
	filter severityFilter
	client *http.Client
}

// NewWebhookChannel creates a generic webhook channel. An empty severity
// list accepts all levels.
func NewWebhookChannel(name, url string, meta Meta, severities ...domain.AlertSeverity) *WebhookChannel {
	return &WebhookChannel{
		name:   name,
		url:    url,
		meta:   meta,
		filter: severities,
		client: newHTTPClient(10 * time.Second),
	}
}

func (c *WebhookChannel) Name() string { return c.name }

func (c *WebhookChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

func (c *WebhookChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	return postJSON(ctx, c.client, c.url, newPayload(event, c.meta))
}

// SlackChannel POSTs a Slack incoming-webhook message.
type SlackChannel struct {
	url    string
	meta   Meta
	filter severityFilter
	client *http.Client
}

// NewSlackChannel creates a Slack channel for an incoming-webhook URL.
func NewSlackChannel(url string, meta Meta, severities ...domain.AlertSeverity) *SlackChannel {
	return &SlackChannel{
		url:    url,
		meta:   meta,
		filter: severities,
		client: newHTTPClient(10 * time.Second),
	}
}

func (c *SlackChannel) Name() string { return "slack" }

func (c *SlackChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

func (c *SlackChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	body := map[string]any{
		"text": fmt.Sprintf(":rotating_light: *%s*", event.Title),
		"attachments": []map[string]any{
			{
				"color": slackColor(event.Severity),
				"title": event.Title,
				"text":  event.Description,
				"fields": []map[string]any{
					{"title": "Severity", "value": string(event.Severity), "short": true},
					{"title": "Rule", "value": event.RuleName, "short": true},
					{"title": "Service", "value": c.meta.Service, "short": true},
					{"title": "Environment", "value": c.meta.Environment, "short": true},
				},
				"ts": event.Timestamp.Unix(),
			},
		},
	}
	return postJSON(ctx, c.client, c.url, body)
}

func slackColor(sev domain.AlertSeverity) string {
	switch sev {
	case domain.AlertCritical:
		return "#ff0000"
	case domain.AlertError:
		return "#ff9900"
	case domain.AlertWarning:
		return "#ffcc00"
	default:
		return "#36a64f"
	}
}

// DiscordChannel POSTs a Discord webhook message.
type DiscordChannel struct {
	url    string
	meta   Meta
	filter severityFilter
	client *http.Client
}

// NewDiscordChannel creates a Discord channel for a webhook URL.
func NewDiscordChannel(url string, meta Meta, severities ...domain.AlertSeverity) *DiscordChannel {
	return &DiscordChannel{
		url:    url,
		meta:   meta,
		filter: severities,
		client: newHTTPClient(10 * time.Second),
	}
}

func (c *DiscordChannel) Name() string { return "discord" }

func (c *DiscordChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

func (c *DiscordChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	body := map[string]any{
		"content": fmt.Sprintf("🚨 **%s**", event.Title),
		"embeds": []map[string]any{
			{
				"title":       event.Title,
				"description": event.Description,
				"color":       discordColor(event.Severity),
				"fields": []map[string]any{
					{"name": "Severity", "value": string(event.Severity), "inline": true},
					{"name": "Rule", "value": event.RuleName, "inline": true},
					{"name": "Service", "value": c.meta.Service, "inline": true},
				},
				"timestamp": event.Timestamp.UTC().Format(time.RFC3339),
			},
		},
	}
	return postJSON(ctx, c.client, c.url, body)
}

func discordColor(sev domain.AlertSeverity) int {
	switch sev {
	case domain.AlertCritical:
		return 0xff0000
	case domain.AlertError:
		return 0xff9900
	case domain.AlertWarning:
		return 0xffcc00
	default:
		return 0x36a64f
	}
}

// EmailChannel POSTs the generic payload to a mail gateway endpoint.
// The engine issues the request only; actual mail delivery is the
// gateway's concern.
type EmailChannel struct {
	url        string
	recipients []string
	meta       Meta
	filter     severityFilter
	client     *http.Client
}

// NewEmailChannel creates an email-gateway channel.
func NewEmailChannel(url string, recipients []string, meta Meta, severities ...domain.AlertSeverity) *EmailChannel {
	return &EmailChannel{
		url:        url,
		recipients: recipients,
		meta:       meta,
		filter:     severities,
		client:     newHTTPClient(10 * time.Second),
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

func (c *EmailChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	body := map[string]any{
		"to":      c.recipients,
		"subject": fmt.Sprintf("[%s] %s", event.Severity, event.Title),
		"payload": newPayload(event, c.meta),
	}
	return postJSON(ctx, c.client, c.url, body)
}

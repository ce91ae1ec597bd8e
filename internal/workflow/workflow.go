// Package workflow builds user-facing remediation descriptions from
// classifications. Pure data transform: no I/O, no mutation.
package workflow

import (
	"time"

	"github.com/vietddude/sentinel/internal/backoff"
	"github.com/vietddude/sentinel/internal/core/domain"
)

// ActionType names a remediation step offered to the user.
type ActionType string

const (
	ActionRetry          ActionType = "retry"
	ActionReauthenticate ActionType = "reauthenticate"
	ActionUseCache       ActionType = "use_cache"
	ActionFallback       ActionType = "fallback"
	ActionManual         ActionType = "manual"
	ActionContactSupport ActionType = "contact_support"
)

// Action is one remediation step.
type Action struct {
	Type        ActionType    `json:"type"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Automatic   bool          `json:"automatic,omitempty"`
	Delay       time.Duration `json:"delay,omitempty"`
}

// Workflow is a complete user-facing recovery description.
type Workflow struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Actions              []Action `json:"actions"`
	AllowDismiss         bool     `json:"allow_dismiss"`
	ShowTechnicalDetails bool     `json:"show_technical_details,omitempty"`
}

type template struct {
	title            string
	description      string
	actions          []Action
	allowDismiss     bool
	technicalDetails bool
}

var templates = map[domain.Category]template{
	domain.CategoryAuthExpired: {
		title:       "Session expired",
		description: "Your session has expired and needs to be renewed before you can continue.",
		actions: []Action{
			{Type: ActionReauthenticate, Label: "Sign in again"},
		},
		allowDismiss: false,
	},
	domain.CategoryAuthInvalid: {
		title:       "Authentication required",
		description: "We could not verify your identity. Please sign in again.",
		actions: []Action{
			{Type: ActionReauthenticate, Label: "Sign in again"},
		},
		allowDismiss: false,
	},
	domain.CategoryPermissionDenied: {
		title:       "Permission denied",
		description: "Your account does not have access to this resource.",
		actions: []Action{
			{Type: ActionManual, Label: "Check repository access"},
			{Type: ActionContactSupport, Label: "Contact support"},
		},
		allowDismiss: true,
	},
	domain.CategoryNetworkUnavailable: {
		title:       "Connection problem",
		description: "We couldn't reach the server. Check your network connection.",
		actions: []Action{
			{Type: ActionRetry, Label: "Try again"},
			{Type: ActionUseCache, Label: "Show cached data"},
		},
		allowDismiss: true,
	},
	domain.CategoryRateLimitExceeded: {
		title:       "Slow down",
		description: "Too many requests in a short time. We'll retry automatically.",
		actions: []Action{
			{Type: ActionRetry, Label: "Retrying shortly", Automatic: true},
		},
		allowDismiss: true,
	},
	domain.CategoryGitHubAPIError: {
		title:       "GitHub is unavailable",
		description: "GitHub did not respond as expected. You can keep working with recent data.",
		actions: []Action{
			{Type: ActionUseCache, Label: "Use cached data"},
			{Type: ActionRetry, Label: "Try again"},
		},
		allowDismiss:     true,
		technicalDetails: true,
	},
	domain.CategoryServiceUnavailable: {
		title:       "Service unavailable",
		description: "The service is temporarily down. Please try again in a moment.",
		actions: []Action{
			{Type: ActionRetry, Label: "Try again"},
			{Type: ActionFallback, Label: "Continue with limited features"},
		},
		allowDismiss: true,
	},
	domain.CategoryValidationFailed: {
		title:       "Invalid input",
		description: "Some of the provided values were rejected. Review and correct them.",
		actions: []Action{
			{Type: ActionManual, Label: "Review input"},
		},
		allowDismiss: true,
	},
	domain.CategoryResourceNotFound: {
		title:       "Not found",
		description: "The item you were looking for doesn't exist or was removed.",
		actions: []Action{
			{Type: ActionFallback, Label: "Go back"},
		},
		allowDismiss: true,
	},
	domain.CategoryWebhookValidation: {
		title:       "Webhook rejected",
		description: "The incoming webhook payload failed validation and was not processed.",
		actions: []Action{
			{Type: ActionManual, Label: "Check webhook configuration"},
		},
		allowDismiss:     true,
		technicalDetails: true,
	},
	domain.CategoryInternalError: {
		title:       "Something went wrong",
		description: "An unexpected error occurred on our side. Our team has been notified.",
		actions: []Action{
			{Type: ActionRetry, Label: "Try again"},
			{Type: ActionContactSupport, Label: "Contact support"},
		},
		allowDismiss: true,
	},
}

// Build produces the recovery workflow for a classification. Unknown
// categories fall back to the internal_error template. Custom actions
// are appended after the built-in ones.
func Build(c domain.Classification, custom ...Action) Workflow {
	tmpl, ok := templates[c.Category]
	if !ok {
		tmpl = templates[domain.CategoryInternalError]
	}

	actions := make([]Action, 0, len(tmpl.actions)+len(custom))
	for _, a := range tmpl.actions {
		if a.Type == ActionRetry && a.Automatic && a.Delay == 0 {
			a.Delay = backoff.Delay(c, 1)
		}
		actions = append(actions, a)
	}
	actions = append(actions, custom...)

	return Workflow{
		Title:                tmpl.title,
		Description:          tmpl.description,
		Actions:              actions,
		AllowDismiss:         tmpl.allowDismiss,
		ShowTechnicalDetails: tmpl.technicalDetails,
	}
}

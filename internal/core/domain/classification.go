package domain

// Category identifies the kind of failure in the error taxonomy.
type Category string

const (
	CategoryNetworkUnavailable    Category = "network_unavailable"
	CategoryNetworkTimeout        Category = "network_timeout"
	CategoryConnectionRefused     Category = "connection_refused"
	CategoryAuthInvalid           Category = "auth_invalid"
	CategoryAuthExpired           Category = "auth_expired"
	CategoryPermissionDenied      Category = "permission_denied"
	CategoryValidationFailed      Category = "validation_failed"
	CategoryResourceNotFound      Category = "resource_not_found"
	CategoryResourceConflict      Category = "resource_conflict"
	CategoryDataIntegrity         Category = "data_integrity"
	CategoryDatabaseError         Category = "database_error"
	CategoryDatabaseTimeout       Category = "database_timeout"
	CategoryRateLimitExceeded     Category = "rate_limit_exceeded"
	CategoryServiceUnavailable    Category = "service_unavailable"
	CategoryConfigurationError    Category = "configuration_error"
	CategoryBusinessRuleViolation Category = "business_rule_violation"
	CategoryGitHubAPIError        Category = "github_api_error"
	CategoryWebhookValidation     Category = "webhook_validation"
	CategoryThirdPartyService     Category = "third_party_service"
	CategoryInternalError         Category = "internal_error"
)

// Severity ranks how damaging a failure is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Meets reports whether s is at least as severe as threshold.
func (s Severity) Meets(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// RecoveryStrategy names a way out of a failure.
type RecoveryStrategy string

const (
	RecoveryRetryImmediate   RecoveryStrategy = "retry_immediate"
	RecoveryRetryBackoff     RecoveryStrategy = "retry_backoff"
	RecoveryRefreshAuth      RecoveryStrategy = "refresh_auth"
	RecoveryUseCache         RecoveryStrategy = "use_cache"
	RecoveryFallbackDefault  RecoveryStrategy = "fallback_default"
	RecoveryUserIntervention RecoveryStrategy = "user_intervention"
	RecoveryCircuitBreak     RecoveryStrategy = "circuit_break"
	RecoveryGracefulDegrade  RecoveryStrategy = "graceful_degrade"
	RecoveryNoRecovery       RecoveryStrategy = "no_recovery"
)

// Classification is the structured verdict for a raw failure.
// Produced fresh per error and never mutated afterwards.
type Classification struct {
	Category           Category           `json:"category"`
	Severity           Severity           `json:"severity"`
	IsTransient        bool               `json:"is_transient"`
	RecoveryStrategies []RecoveryStrategy `json:"recovery_strategies"`
	UserMessage        string             `json:"user_message"`
	TechnicalDetails   string             `json:"technical_details,omitempty"`
	Metadata           map[string]any     `json:"metadata,omitempty"`
}

// HasStrategy reports whether the classification carries the given strategy.
func (c Classification) HasStrategy(s RecoveryStrategy) bool {
	for _, rs := range c.RecoveryStrategies {
		if rs == s {
			return true
		}
	}
	return false
}

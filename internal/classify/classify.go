// Package classify maps arbitrary failure values onto the stable error
// taxonomy. Classification is pure and never fails: unrecognized input
// degrades to a safe internal_error verdict instead of failing the caller.
package classify

import (
	"strings"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Keyword groups for message-based classification. Matched in order,
// first group wins.
var (
	networkTerms = []string{
		"fetch failed", "network", "econnrefused", "etimedout",
		"connection refused", "no such host",
	}
	githubTerms = []string{
		"github", "api.github.com", "octokit",
	}
	rateLimitTerms = []string{
		"rate limit", "too many requests", "quota", "count exceeded",
	}
	authTerms = []string{
		"unauthorized", "token expired", "invalid token", "authentication",
	}
)

// Classify produces a Classification for any failure value.
// Dispatch order: security-error shape, HTTP-status shape, generic error
// message, then the default verdict.
func Classify(input any) domain.Classification {
	switch v := input.(type) {
	case *domain.SecurityError:
		return classifySecurity(v)
	case *domain.HTTPError:
		return classifyStatus(v.Status, v.Message)
	case error:
		return classifyMessage(v)
	default:
		return defaultClassification("")
	}
}

func classifySecurity(e *domain.SecurityError) domain.Classification {
	switch e.Type {
	case "authentication":
		return domain.Classification{
			Category:    domain.CategoryAuthInvalid,
			Severity:    domain.SeverityHigh,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRefreshAuth, domain.RecoveryUserIntervention,
			},
			UserMessage:      "Your session is no longer valid. Please sign in again.",
			TechnicalDetails: e.Message,
		}
	case "rate_limit":
		return domain.Classification{
			Category:    domain.CategoryRateLimitExceeded,
			Severity:    domain.SeverityMedium,
			IsTransient: true,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryGracefulDegrade,
			},
			UserMessage:      "Too many requests. Please wait a moment and try again.",
			TechnicalDetails: e.Message,
		}
	case "validation":
		return domain.Classification{
			Category:    domain.CategoryValidationFailed,
			Severity:    domain.SeverityLow,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryUserIntervention,
			},
			UserMessage:      "The request could not be validated. Please check your input.",
			TechnicalDetails: e.Message,
		}
	default:
		c := defaultClassification(e.Message)
		c.IsTransient = e.StatusCode >= 500
		if c.IsTransient {
			c.RecoveryStrategies = []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryGracefulDegrade,
			}
		}
		return c
	}
}

func classifyMessage(err error) domain.Classification {
	msg := strings.ToLower(err.Error())

	if containsAny(msg, networkTerms) {
		return domain.Classification{
			Category:    domain.CategoryNetworkUnavailable,
			Severity:    domain.SeverityHigh,
			IsTransient: true,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryUseCache,
				domain.RecoveryGracefulDegrade,
			},
			UserMessage:      "Connection problem. Please check your network and try again.",
			TechnicalDetails: err.Error(),
		}
	}

	if containsAny(msg, githubTerms) {
		return domain.Classification{
			Category:    domain.CategoryGitHubAPIError,
			Severity:    domain.SeverityMedium,
			IsTransient: true,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryUseCache,
				domain.RecoveryCircuitBreak,
			},
			UserMessage:      "GitHub is temporarily unavailable. Recent data may be shown instead.",
			TechnicalDetails: err.Error(),
		}
	}

	if containsAny(msg, rateLimitTerms) {
		return domain.Classification{
			Category:    domain.CategoryRateLimitExceeded,
			Severity:    domain.SeverityMedium,
			IsTransient: true,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryGracefulDegrade,
			},
			UserMessage:      "Too many requests. Please wait a moment and try again.",
			TechnicalDetails: err.Error(),
		}
	}

	if containsAny(msg, authTerms) {
		return domain.Classification{
			Category:    domain.CategoryAuthExpired,
			Severity:    domain.SeverityHigh,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRefreshAuth, domain.RecoveryUserIntervention,
			},
			UserMessage:      "Your session has expired. Please sign in again.",
			TechnicalDetails: err.Error(),
		}
	}

	return defaultClassification(err.Error())
}

func classifyStatus(status int, message string) domain.Classification {
	switch {
	case status == 401:
		return domain.Classification{
			Category:    domain.CategoryAuthInvalid,
			Severity:    domain.SeverityHigh,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRefreshAuth, domain.RecoveryUserIntervention,
			},
			UserMessage:      "Your session is no longer valid. Please sign in again.",
			TechnicalDetails: message,
		}
	case status == 403:
		return domain.Classification{
			Category:    domain.CategoryPermissionDenied,
			Severity:    domain.SeverityMedium,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryUserIntervention,
			},
			UserMessage:      "You don't have permission to perform this action.",
			TechnicalDetails: message,
		}
	case status == 404:
		return domain.Classification{
			Category:    domain.CategoryResourceNotFound,
			Severity:    domain.SeverityLow,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryFallbackDefault, domain.RecoveryUserIntervention,
			},
			UserMessage:      "The requested resource could not be found.",
			TechnicalDetails: message,
		}
	case status == 429:
		return domain.Classification{
			Category:    domain.CategoryRateLimitExceeded,
			Severity:    domain.SeverityMedium,
			IsTransient: true,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryGracefulDegrade,
			},
			UserMessage:      "Too many requests. Please wait a moment and try again.",
			TechnicalDetails: message,
		}
	case status >= 400 && status < 500:
		return domain.Classification{
			Category:    domain.CategoryValidationFailed,
			Severity:    domain.SeverityLow,
			IsTransient: false,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryUserIntervention,
			},
			UserMessage:      "The request could not be processed. Please check your input.",
			TechnicalDetails: message,
		}
	case status >= 500:
		return domain.Classification{
			Category:    domain.CategoryServiceUnavailable,
			Severity:    domain.SeverityHigh,
			IsTransient: true,
			RecoveryStrategies: []domain.RecoveryStrategy{
				domain.RecoveryRetryBackoff, domain.RecoveryCircuitBreak,
				domain.RecoveryGracefulDegrade,
			},
			UserMessage:      "The service is temporarily unavailable. Please try again shortly.",
			TechnicalDetails: message,
		}
	default:
		return defaultClassification(message)
	}
}

func defaultClassification(details string) domain.Classification {
	return domain.Classification{
		Category:    domain.CategoryInternalError,
		Severity:    domain.SeverityHigh,
		IsTransient: false,
		RecoveryStrategies: []domain.RecoveryStrategy{
			domain.RecoveryGracefulDegrade, domain.RecoveryUserIntervention,
		},
		UserMessage:      "Something went wrong on our side. Please try again later.",
		TechnicalDetails: details,
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

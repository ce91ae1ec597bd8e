package config

import (
	"time"

	"github.com/vietddude/sentinel/internal/alerting"
	"github.com/vietddude/sentinel/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Service  ServiceConfig  `yaml:"service"`
	Logging  LoggingConfig  `yaml:"logging"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Queue    QueueConfig    `yaml:"retry_queue"`
	Alerting AlertingConfig `yaml:"alerting"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ServiceConfig identifies this deployment in outbound alert payloads.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// BreakerConfig holds circuit breaker settings shared by all keys.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

// MonitorConfig holds error monitor window settings.
type MonitorConfig struct {
	Retention     time.Duration `yaml:"retention"`
	MetricsWindow time.Duration `yaml:"metrics_window"`
}

// QueueConfig holds webhook retry queue settings.
type QueueConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// AlertingConfig holds alert rules and channel endpoints.
type AlertingConfig struct {
	Rules    []RuleConfig         `yaml:"rules"`
	Channels []ChannelConfig      `yaml:"channels"`
	Redis    alerting.RedisConfig `yaml:"redis"`
}

// RuleConfig declares one alert rule.
type RuleConfig struct {
	Name              string             `yaml:"name"`
	Trigger           domain.TriggerType `yaml:"trigger"`
	Categories        []domain.Category  `yaml:"categories"`
	Threshold         float64            `yaml:"threshold"`
	SeverityThreshold domain.Severity    `yaml:"severity_threshold"`
	Suppression       time.Duration      `yaml:"suppression"`
}

// ChannelConfig declares one alert channel.
type ChannelConfig struct {
	Kind       string                 `yaml:"kind"` // webhook, slack, discord, email, pagerduty, redis
	Name       string                 `yaml:"name"`
	URL        string                 `yaml:"url"`
	RoutingKey string                 `yaml:"routing_key"` // pagerduty
	Recipients []string               `yaml:"recipients"`  // email
	Severities []domain.AlertSeverity `yaml:"severities"`  // empty = all
}

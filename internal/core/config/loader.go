package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Service.Name == "" {
		cfg.Service.Name = "sentinel"
	}
	if cfg.Service.Environment == "" {
		cfg.Service.Environment = "development"
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.ResetTimeout == 0 {
		cfg.Breaker.ResetTimeout = 60 * time.Second
	}
	if cfg.Monitor.Retention == 0 {
		cfg.Monitor.Retention = 24 * time.Hour
	}
	if cfg.Monitor.MetricsWindow == 0 {
		cfg.Monitor.MetricsWindow = 15 * time.Minute
	}
	if cfg.Queue.SweepInterval == 0 {
		cfg.Queue.SweepInterval = 5 * time.Second
	}

	for i := range cfg.Alerting.Rules {
		if cfg.Alerting.Rules[i].Suppression == 0 {
			cfg.Alerting.Rules[i].Suppression = 5 * time.Minute
		}
	}

	return &cfg, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/sentinel/internal/alerting"
	"github.com/vietddude/sentinel/internal/breaker"
	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/health"
	"github.com/vietddude/sentinel/internal/monitor"
	"github.com/vietddude/sentinel/internal/retryqueue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Parse flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	isDebug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load Configuration first (before setting up logger)
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Fall back to default logger for config load errors
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if *isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	// Initialize stylelog with tint.Options for level control
	stylelog.InitDefault(
		&tint.Options{
			Level:      slogLevel,
			TimeFormat: time.RFC3339,
		})
	slog.Info("Logger initialized", "level", slogLevel.String())

	// Wire the engine: explicitly constructed services, no globals.
	mon := monitor.New(
		monitor.WithRetention(cfg.Monitor.Retention),
		monitor.WithMetricsWindow(cfg.Monitor.MetricsWindow),
	)

	engine := alerting.NewEngine(mon)
	meta := alerting.Meta{
		Service:     cfg.Service.Name,
		Environment: cfg.Service.Environment,
	}
	for _, rc := range cfg.Alerting.Rules {
		engine.AddRule(alerting.Rule{
			Name:              rc.Name,
			Trigger:           rc.Trigger,
			Categories:        rc.Categories,
			Threshold:         rc.Threshold,
			SeverityThreshold: rc.SeverityThreshold,
			Suppression:       rc.Suppression,
		})
	}
	registerChannels(engine, cfg, meta)

	breakers := breaker.NewRegistry(
		breaker.WithFailureThreshold(cfg.Breaker.FailureThreshold),
		breaker.WithResetTimeout(cfg.Breaker.ResetTimeout),
		breaker.OnOpen(func(name string) {
			slog.Warn("circuit opened", "key", name)
		}),
		breaker.OnClose(func(name string) {
			slog.Info("circuit closed", "key", name)
		}),
	)

	queue := retryqueue.New(
		retryqueue.WithSweepInterval(cfg.Queue.SweepInterval),
	)

	server := health.NewServer(mon, engine, breakers, queue, cfg.Server.Port)

	// Handle OS Signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Operational server listening", "port", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Operational server failed", "error", err)
		}
	}()

	// Wait for Signal
	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	// Graceful Shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	queue.Close()
	engine.Flush()
	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Sentinel stopped gracefully")
}

// registerChannels builds alert channels from configuration.
func registerChannels(engine *alerting.Engine, cfg *config.AppConfig, meta alerting.Meta) {
	for _, cc := range cfg.Alerting.Channels {
		switch cc.Kind {
		case "webhook":
			name := cc.Name
			if name == "" {
				name = "webhook"
			}
			engine.RegisterChannel(alerting.NewWebhookChannel(name, cc.URL, meta, cc.Severities...))
		case "slack":
			engine.RegisterChannel(alerting.NewSlackChannel(cc.URL, meta, cc.Severities...))
		case "discord":
			engine.RegisterChannel(alerting.NewDiscordChannel(cc.URL, meta, cc.Severities...))
		case "email":
			engine.RegisterChannel(alerting.NewEmailChannel(cc.URL, cc.Recipients, meta, cc.Severities...))
		case "pagerduty":
			engine.RegisterChannel(alerting.NewPagerDutyChannel(cc.RoutingKey, meta, cc.Severities...))
		case "redis":
			ch, err := alerting.NewRedisChannel(cfg.Alerting.Redis, meta, cc.Severities...)
			if err != nil {
				slog.Error("Failed to connect redis alert channel", "error", err)
				continue
			}
			engine.RegisterChannel(ch)
		default:
			slog.Warn("Unknown alert channel kind, skipping", "kind", cc.Kind)
		}
	}
}

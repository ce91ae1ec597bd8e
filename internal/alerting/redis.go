package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/sentinel/internal/core/domain"
)

// RedisConfig holds connection settings for the redis alert channel.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
}

// RedisChannel publishes alert payloads to a redis pub/sub channel so
// other in-house consumers can subscribe. Publish is transport, not
// persistence: nothing is read back.
type RedisChannel struct {
	rdb     *redis.Client
	channel string
	meta    Meta
	filter  severityFilter
}

// NewRedisChannel connects to redis and returns a publishing channel.
func NewRedisChannel(cfg RedisConfig, meta Meta, severities ...domain.AlertSeverity) (*RedisChannel, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	channel := cfg.Channel
	if channel == "" {
		channel = "sentinel:alerts"
	}

	return &RedisChannel{
		rdb:     rdb,
		channel: channel,
		meta:    meta,
		filter:  severities,
	}, nil
}

func (c *RedisChannel) Name() string { return "redis" }

func (c *RedisChannel) Accepts(sev domain.AlertSeverity) bool { return c.filter.Accepts(sev) }

// Send publishes the generic payload as JSON.
func (c *RedisChannel) Send(ctx context.Context, event domain.AlertEvent) error {
	data, err := json.Marshal(newPayload(event, c.meta))
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := c.rdb.Publish(ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (c *RedisChannel) Close() error {
	return c.rdb.Close()
}

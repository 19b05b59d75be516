package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/lifecycle"
)

// Connect creates a Redis client from a redis:// URL or a host:port address.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// Publisher broadcasts events as JSON on a Redis pub/sub channel.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewPublisher creates a publisher for channel.
func NewPublisher(client *redis.Client, channel string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.With("system", "events.redis"),
	}
}

func (p *Publisher) Emit(ctx context.Context, e versions.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// Subscribe decodes events published on the channel until ctx ends.
func (p *Publisher) Subscribe(ctx context.Context, fn func(versions.Event)) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", p.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e versions.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				p.logger.Warn("discarding malformed event", "error", err)
				continue
			}
			fn(e)
		}
	}
}

// Start pings Redis during startup and closes the client on shutdown.
func (p *Publisher) Start(lc *lifecycle.Coordinator) error {
	if err := p.client.Ping(lc.Context()).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	p.logger.Info("redis connected", "channel", p.channel)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := p.client.Close(); err != nil {
			p.logger.Error("redis close failed", "error", err)
			return
		}
		p.logger.Info("redis connection closed")
	})
	return nil
}

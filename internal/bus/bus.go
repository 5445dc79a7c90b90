// Package bus publishes round events to Redis Pub/Sub so external consumers
// (dashboards, aggregators) can follow live rounds without connecting to the
// simulator's own WebSocket server.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/spaghetti-software-inc/openfiggie/internal/game"
)

// Config holds Redis connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Publisher fans GameEvents out to one Redis Pub/Sub channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return &Publisher{rdb: rdb, channel: cfg.Channel}, nil
}

// Close shuts down the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// Publish serializes ev as JSON and sends it to the configured channel.
func (p *Publisher) Publish(ctx context.Context, ev game.GameEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", p.channel, err)
	}
	return nil
}

// Subscribe returns a read-only channel of raw event payloads from the
// configured channel. The subscription closes when the context is cancelled.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan []byte, error) {
	pubsub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", p.channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

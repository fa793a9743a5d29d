// Package redispub publica eventos de conexiones y grants en un canal de
// Redis. Los consumidores (push, email) viven en otros servicios.
package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"stable-sharing/internal/ports/notify"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "sharing.events"

var _ notify.Notifier = (*Publisher)(nil)

type Publisher struct {
	rdb     redis.UniversalClient
	channel string
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// New abre el cliente y verifica conectividad con PING.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewWithClient(rdb, cfg.Channel), nil
}

func NewWithClient(rdb redis.UniversalClient, channel string) *Publisher {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{rdb: rdb, channel: channel}
}

func (p *Publisher) Notify(ctx context.Context, e notify.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Kind, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.rdb.Close()
}

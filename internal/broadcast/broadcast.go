// Package broadcast publishes emergency alert events so other processes
// (a dispatcher console, a hotline integration) can react to them.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/terraincognita07/mamacare/internal/logger"
)

const DefaultChannel = "emergency-alerts"

type AlertEvent struct {
	Reference        string    `json:"reference"`
	UserID           uint      `json:"user_id"`
	Type             string    `json:"type"`
	Message          string    `json:"message"`
	Location         string    `json:"location"`
	ContactsNotified int       `json:"contacts_notified"`
	CreatedAt        time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event AlertEvent) error
	Close() error
}

type noopPublisher struct{}

// Noop discards every event.
func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, AlertEvent) error { return nil }
func (noopPublisher) Close() error                              { return nil }

type redisPublisher struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisPublisher connects to addr and verifies the connection with a
// ping before returning.
func NewRedisPublisher(log *logger.Logger, addr string, channel string) (Publisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisPublisher{
		log:     log.With("service", "AlertBroadcast"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (publisher *redisPublisher) Publish(ctx context.Context, event AlertEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := publisher.rdb.Publish(ctx, publisher.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	publisher.log.Debug("alert broadcast", "reference", event.Reference, "channel", publisher.channel)
	return nil
}

// Subscribe forwards events from the channel to onEvent until ctx is done.
func Subscribe(ctx context.Context, log *logger.Logger, addr string, channel string, onEvent func(AlertEvent)) error {
	if log == nil {
		log = logger.Nop()
	}
	if onEvent == nil {
		return errors.New("onEvent callback required")
	}
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: strings.TrimSpace(addr), DialTimeout: 5 * time.Second})
	defer rdb.Close()

	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok || message == nil {
				return nil
			}
			var event AlertEvent
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				log.Warn("bad alert payload", "error", err)
				continue
			}
			onEvent(event)
		}
	}
}

func (publisher *redisPublisher) Close() error {
	if publisher == nil || publisher.rdb == nil {
		return nil
	}
	return publisher.rdb.Close()
}

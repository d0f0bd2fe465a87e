// Package notifications fans domain events out to per-recipient
// notifications and hands them to the delivery collaborator.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"runtime/debug"

	"agora/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Dispatcher delivers one notification to one recipient.
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// RedisDispatcher publishes notifications into per-recipient Redis channels
// for the delivery service to pick up.
type RedisDispatcher struct {
	rdb *redis.Client
}

// NewRedisDispatcher creates a dispatcher using the provided Redis client.
func NewRedisDispatcher(rdb *redis.Client) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb}
}

// Send publishes n as JSON. A nil client makes it a no-op.
func (d *RedisDispatcher) Send(ctx context.Context, n Notification) error {
	if d.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return d.rdb.Publish(ctx, RecipientChannel(n.TenantKey, n), string(payload)).Err()
}

// StartSubscriber subscribes to every recipient channel of tenantKey and
// calls onMessage for each delivered notification until ctx is done.
func (d *RedisDispatcher) StartSubscriber(
	ctx context.Context, tenantKey string, onMessage func(channel string, n Notification),
) error {
	if d.rdb == nil {
		return nil
	}
	sub := d.rdb.PSubscribe(ctx, "notifications:"+tenantKey+":*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in notification subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					var n Notification
					if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
						return
					}
					onMessage(msg.Channel, n)
				}()
			}
		}
	}()

	return nil
}

// RecipientChannel derives the Redis channel name for a recipient.
func RecipientChannel(tenantKey string, n Notification) string {
	return fmt.Sprintf("notifications:%s:%s:%d", tenantKey, n.RecipientType, n.RecipientID)
}

// LogDispatcher writes notifications to the structured log.
type LogDispatcher struct{}

// Send logs n.
func (LogDispatcher) Send(ctx context.Context, n Notification) error {
	middleware.Logger.InfoContext(ctx, "notification",
		slog.String("event_id", n.EventID),
		slog.String("event_type", string(n.EventType)),
		slog.String("tenant", n.TenantKey),
		slog.Uint64("recipient_id", uint64(n.RecipientID)),
		slog.String("recipient_type", string(n.RecipientType)),
		slog.String("title", n.Title),
	)
	return nil
}

// MultiDispatcher sends to every dispatcher and joins their errors.
type MultiDispatcher []Dispatcher

// Send delivers n through each dispatcher.
func (m MultiDispatcher) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, d := range m {
		if err := d.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// RateLimiter enforces fixed-window limits backed by Redis. A limiter built
// with Disabled set lets every request through (development and test).
type RateLimiter struct {
	rdb      *redis.Client
	Disabled bool
}

// NewRateLimiter returns a limiter using rdb.
func NewRateLimiter(rdb *redis.Client, disabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, Disabled: disabled}
}

// Check reports whether id may perform resource once more within window.
func (l *RateLimiter) Check(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l.Disabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a Fiber middleware enforcing `limit` requests per `window`,
// keyed by the authenticated principal or, failing that, the remote IP.
func (l *RateLimiter) Limit(limit int, window time.Duration, resource string, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if p, ok := CurrentPrincipal(c); ok {
			id = fmt.Sprintf("%s:%s:%d", p.TenantKey, p.Role, p.UserID)
		} else {
			id = "ip:" + c.IP()
		}

		allowed, err := l.Check(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				log.Printf("WARNING: Rate limit fail-closed for route %s (resource: %s): %v", c.Path(), resource, err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}

package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Check(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	l := NewRateLimiter(rdb, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Check(ctx, "create_reply", "school-a:member:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Check(ctx, "create_reply", "school-a:member:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other principals have their own window.
	ok, err = l.Check(ctx, "create_reply", "school-a:member:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(nil, true)
	ok, err := l.Check(context.Background(), "x", "y", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiter_NilRedisPolicies(t *testing.T) {
	l := NewRateLimiter(nil, false)

	open := fiber.New()
	open.Get("/", l.Limit(1, time.Minute, "r", FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err := open.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	closed := fiber.New()
	closed.Get("/", l.Limit(1, time.Minute, "r", FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err = closed.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

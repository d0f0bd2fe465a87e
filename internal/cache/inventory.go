package cache

import (
	"context"
	"fmt"
	"time"

	"agora/internal/models"

	"github.com/redis/go-redis/v9"
)

const IdentityKeyPrefix = "identity:%s:%s:%d"

// IdentityTTL is used when no identity cache TTL is configured.
const IdentityTTL = 5 * time.Minute

func IdentityKey(tenant string, ref models.UserRef) string {
	return fmt.Sprintf(IdentityKeyPrefix, tenant, ref.Role, ref.ID)
}

func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb != nil && len(keys) > 0 {
		rdb.Del(ctx, keys...)
	}
}

func InvalidateIdentity(ctx context.Context, rdb *redis.Client, tenant string, ref models.UserRef) {
	Invalidate(ctx, rdb, IdentityKey(tenant, ref))
}

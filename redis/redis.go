package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meinhoongagan/gym-booking/services"
)

// IdentityTTL bounds how stale a cached role can be.
const IdentityTTL = 10 * time.Minute

// Connect returns nil when addr is empty or the server does not answer; the app then
// runs without a cache.
func Connect(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		slog.Warn("REDIS_ADDR is not set, identity caching disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 0})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis, identity caching disabled", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	slog.Info("connected to redis", "addr", addr)
	return client
}

// IdentityCache keeps resolved identities under user:<id>:identity.
type IdentityCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ services.IdentityCache = (*IdentityCache)(nil)

func NewIdentityCache(client redis.Cmdable) *IdentityCache {
	return &IdentityCache{client: client, ttl: IdentityTTL}
}

func identityKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s:identity", id)
}

func (c *IdentityCache) Get(ctx context.Context, userID uuid.UUID) (services.Identity, bool) {
	raw, err := c.client.Get(ctx, identityKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("redis GET failed", "userId", userID, "error", err)
		}
		return services.Identity{}, false
	}

	var id services.Identity
	if err := sonic.Unmarshal(raw, &id); err != nil || id.UserID != userID {
		slog.Warn("discarding malformed cached identity", "userId", userID)
		return services.Identity{}, false
	}
	return id, true
}

func (c *IdentityCache) Set(ctx context.Context, id services.Identity) {
	raw, err := sonic.Marshal(id)
	if err != nil {
		slog.Error("encode identity failed", "userId", id.UserID, "error", err)
		return
	}
	if err := c.client.Set(ctx, identityKey(id.UserID), raw, c.ttl).Err(); err != nil {
		slog.Error("redis SET failed", "userId", id.UserID, "error", err)
	}
}

func (c *IdentityCache) Evict(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, identityKey(userID)).Err(); err != nil {
		slog.Error("redis DEL failed", "userId", userID, "error", err)
	}
}

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const balanceKeyPrefix = "ledger:balance:"

// BalanceCache keeps short-lived balance snapshots in Redis. Every method is
// best effort; Redis being down degrades reads to the database, never fails
// them.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{client: client, ttl: ttl}
}

func (c *BalanceCache) Get(ctx context.Context, accountID uuid.UUID) ([]byte, bool) {
	payload, err := c.client.Get(ctx, balanceKeyPrefix+accountID.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("balance cache get failed", "account_id", accountID, "error", err.Error())
		}
		return nil, false
	}
	return payload, true
}

func (c *BalanceCache) Set(ctx context.Context, accountID uuid.UUID, payload []byte) {
	if err := c.client.Set(ctx, balanceKeyPrefix+accountID.String(), payload, c.ttl).Err(); err != nil {
		slog.Warn("balance cache set failed", "account_id", accountID, "error", err.Error())
	}
}

func (c *BalanceCache) Invalidate(ctx context.Context, accountID uuid.UUID) {
	if err := c.client.Del(ctx, balanceKeyPrefix+accountID.String()).Err(); err != nil {
		slog.Warn("balance cache invalidate failed", "account_id", accountID, "error", err.Error())
	}
}

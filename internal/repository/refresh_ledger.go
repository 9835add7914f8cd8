package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshLedger remembers consumed refresh token ids until they expire.
type RefreshLedger interface {
	// MarkUsed records tokenID and reports whether this was its first use.
	MarkUsed(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
}

const refreshUsedKeyPrefix = "refresh:used:"

type redisRefreshLedger struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisRefreshLedger returns a Redis-backed ledger.
func NewRedisRefreshLedger(client redis.Cmdable) RefreshLedger {
	return &redisRefreshLedger{client: client, now: time.Now}
}

func (l *redisRefreshLedger) MarkUsed(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	if tokenID == "" {
		return false, errors.New("refresh token has no id")
	}
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		return false, nil
	}
	return l.client.SetNX(ctx, refreshUsedKeyPrefix+tokenID, 1, ttl).Result()
}

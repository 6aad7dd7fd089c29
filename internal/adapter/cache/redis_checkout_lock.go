package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// RedisCheckoutLock stops a buyer from opening two checkout sessions
// for the same ebook at once. The key expires on its own, so an
// abandoned checkout unblocks after the TTL.
type RedisCheckoutLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCheckoutLock(rdb *redis.Client, ttl time.Duration) *RedisCheckoutLock {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCheckoutLock{rdb: rdb, ttl: ttl}
}

func (s *RedisCheckoutLock) TryLock(ctx context.Context, buyerID, title string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(buyerID, title), "1", s.ttl).Result()
}

func (s *RedisCheckoutLock) Unlock(ctx context.Context, buyerID, title string) error {
	return s.rdb.Del(ctx, lockKey(buyerID, title)).Err()
}

func lockKey(buyerID, title string) string {
	return "checkout:" + buyerID + ":" + strings.ToLower(title)
}

var _ usecase.CheckoutLock = (*RedisCheckoutLock)(nil)

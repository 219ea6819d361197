package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
)

const pendingTTL = 30 * time.Second

type idempotencyEntry struct {
	State   string       `json:"state"`
	Receipt *dto.Receipt `json:"receipt,omitempty"`
}

// RedisIdempotencyStore keeps "pending" markers while an order is being placed
// and the final receipt for ttl afterwards.
type RedisIdempotencyStore struct {
	cache *cache.RedisClient
	ttl   time.Duration
}

func NewRedisIdempotencyStore(c *cache.RedisClient, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{cache: c, ttl: ttl}
}

func key(k string) string {
	return "idem:order:" + k
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, k string) (*dto.Receipt, bool, error) {
	ok, err := s.cache.Client.SetNX(ctx, key(k), `{"state":"pending"}`, pendingTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	// The key exists, so another request owns it. A failed read must not let
	// the caller place the order a second time.
	var entry idempotencyEntry
	if err := s.cache.GetJSON(ctx, key(k), &entry); err != nil {
		return nil, false, nil
	}
	return entry.Receipt, false, nil
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, k string, receipt *dto.Receipt) error {
	return s.cache.SetJSON(ctx, key(k), idempotencyEntry{State: "done", Receipt: receipt}, s.ttl)
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, k string) error {
	return s.cache.Delete(ctx, key(k))
}

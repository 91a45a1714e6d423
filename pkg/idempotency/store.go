package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed dedup/cooldown helper. A key is claimed with SET NX
// and stays claimed for the TTL.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) WebhookKey(provider, eventID string) string {
	return fmt.Sprintf("idem:webhook:%s:%s", provider, eventID)
}

// Seen claims key and reports whether it had already been claimed.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Acquire claims key for the given TTL. It reports false while a previous
// claim is still live, which is how OTP resend cooldowns are enforced.
func (s *Store) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// Release drops a claim so the next delivery of the same key is processed
// again. Callers use it when handling failed after the claim.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore implements CounterStore on a redis instance shared
// across all gateway instances.
type RedisCounterStore struct {
	Client *redis.Client
}

// Name satisfies the health.Check interface.
func (s *RedisCounterStore) Name() string {
	return "rate_limit_counter_store"
}

// IsAlive satisfies the health.Check interface. The counter store is
// healthy when the backing redis instance answers a ping.
func (s *RedisCounterStore) IsAlive() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.Client.Ping(ctx).Err() == nil
}

// IncrementAndGet atomically increments the window counter and sets its
// expiry on first touch. ExpireNX keeps the expiry anchored to the first
// hit in the window regardless of later increments.
func (s *RedisCounterStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"dz-fellah/repositories"

	"github.com/redis/go-redis/v9"
)

// SequenceSource hands out a strictly increasing counter per calendar day.
type SequenceSource interface {
	Next(ctx context.Context, r repositories.Repos, day time.Time) (int64, error)
}

func dayKey(day time.Time) string {
	return day.Format("20060102")
}

// DBSequence keeps the counter in order_counters, inside the checkout
// transaction, so a rolled back checkout does not burn a number.
type DBSequence struct{}

func (DBSequence) Next(ctx context.Context, r repositories.Repos, day time.Time) (int64, error) {
	return r.Orders.NextDailySequence(ctx, dayKey(day))
}

// RedisSequence counts in redis. Numbers used by aborted checkouts are lost,
// which leaves gaps but never duplicates.
type RedisSequence struct {
	Client *redis.Client
	TTL    time.Duration
}

func (s RedisSequence) Next(ctx context.Context, _ repositories.Repos, day time.Time) (int64, error) {
	key := "orders:seq:" + dayKey(day)
	ttl := s.TTL
	if ttl == 0 {
		ttl = 48 * time.Hour
	}

	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("order sequence: %w", err)
	}
	return incr.Val(), nil
}

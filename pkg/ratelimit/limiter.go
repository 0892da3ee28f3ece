package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter throttles a keyed operation (OTP and reset-code issuance are
// limited per email and per client address).
type Limiter interface {
	Allow(key string) (bool, error)
	Reset(key string) error
}

// RedisLimiter is a fixed-window counter shared across instances.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter allowing limit requests
// per window for each key.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(key string) (bool, error) {
	ctx := context.Background()
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}

	// First hit in the window sets the TTL.
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("redis expire: %w", err)
		}
	}

	if count > int64(l.limit) {
		return false, nil
	}

	return true, nil
}

func (l *RedisLimiter) Reset(key string) error {
	ctx := context.Background()
	return l.client.Del(ctx, fmt.Sprintf("ratelimit:%s", key)).Err()
}

// MemoryLimiter keeps a token bucket per key for single-instance setups
// and tests.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewMemoryLimiter creates an in-memory limiter with the given rate and burst.
func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (l *MemoryLimiter) Allow(key string) (bool, error) {
	l.mu.Lock()
	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow(), nil
}

func (l *MemoryLimiter) Reset(key string) error {
	l.mu.Lock()
	delete(l.limiters, key)
	l.mu.Unlock()
	return nil
}

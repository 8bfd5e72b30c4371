package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:cart:"

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a fixed-window counter per key. Each window gets its own Redis
// key that expires with the window.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	windowEnd := time.Unix(0, (slot+1)*int64(l.window))

	redisKey := keyPrefix + key + ":" + strconv.FormatInt(slot, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{Allowed: true, Remaining: l.limit}, fmt.Errorf("redis rate limit failed: %w", err)
	}

	count := int(incr.Val())
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	res := Result{
		Allowed:   count <= l.limit,
		Remaining: remaining,
	}
	if !res.Allowed {
		res.RetryAfter = windowEnd.Sub(now)
	}
	return res, nil
}

package redis

import (
	"context"
	"fmt"
	"time"
)

type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	// SET NX EX seeds the counter together with its TTL, so a crash between
	// the two operations can never strand an unexpiring key.
	if _, err := r.client.SetNX(ctx, key, 0, window); err != nil {
		return false, err
	}
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

func CheckoutCreateKey(userID, provider string) string {
	return fmt.Sprintf("rate_limit:checkout:%s:%s", userID, provider)
}

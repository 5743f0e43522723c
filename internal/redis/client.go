package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/openclaw/pairing-relay-go/internal/config"
)

type Client struct {
	*redis.Client
}

// NewClient connects and pings. The rate limiter is the only consumer, so a
// dead Redis is reported at startup instead of on the first request.
func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, config.PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// RateLimitKey namespaces a limiter bucket, e.g. ratelimit:generate:10.0.0.1.
func RateLimitKey(key string) string {
	return "ratelimit:" + key
}

package redis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client owns the connection shared by the HTTP middleware.
type Client struct {
	rdb *redis.Client
}

// Connect creates a Redis client and verifies connectivity.
func Connect(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Raw returns the underlying redis.Client. Nil-safe: a nil Client yields nil,
// which the cache and rate-limit middleware treat as disabled.
func (c *Client) Raw() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// DeletePrefix removes every key starting with prefix and reports how many
// were deleted. Keys are collected over the whole SCAN before any DEL, since
// deleting between pages can make some servers skip keys.
func DeletePrefix(ctx context.Context, rdb *redis.Client, prefix string) (int64, error) {
	var keys []string
	iter := rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan %s*: %w", prefix, err)
	}

	var deleted int64
	for batch := range slices.Chunk(keys, scanBatch) {
		n, err := rdb.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("delete keys: %w", err)
		}
		deleted += n
	}
	return deleted, nil
}

const scanBatch = 200

// Package cache provides the Redis-backed title cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default cache settings.
const (
	DefaultTTL       = 6 * time.Hour
	DefaultKeyPrefix = "terminal:title:"
)

// TitleCache stores event and series titles as plain Redis strings.
//
// Key schema:
//
//	{prefix}event:{ticker}  - event title
//	{prefix}series:{ticker} - series title
type TitleCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewTitleCache wraps rdb. A zero ttl selects DefaultTTL.
func NewTitleCache(rdb redis.UniversalClient, ttl time.Duration) *TitleCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TitleCache{
		rdb:    rdb,
		prefix: DefaultKeyPrefix,
		ttl:    ttl,
	}
}

// Get returns the cached title for key. ok is false on a miss.
func (c *TitleCache) Get(ctx context.Context, key string) (string, bool, error) {
	title, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: get title %s: %w", key, err)
	}
	return title, true, nil
}

// Set stores title under key with the cache TTL.
func (c *TitleCache) Set(ctx context.Context, key, title string) error {
	if err := c.rdb.Set(ctx, c.prefix+key, title, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set title %s: %w", key, err)
	}
	return nil
}

// Connect parses a redis:// URL, applies timeouts and verifies the server
// answers a PING.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = 2 * time.Second
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = 2 * time.Second
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

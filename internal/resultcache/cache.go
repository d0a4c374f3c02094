// Package resultcache memoizes classifications in Redis, keyed by the
// reference index digest and the move text.
package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/chess-insight/internal/domain"
)

const (
	DefaultTTL = 7 * 24 * time.Hour
	keyPrefix  = "ci:cls:"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Dial parses a redis:// URL and verifies the server answers.
func Dial(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, ttl), nil
}

// Key names the entry for moveText classified against the index with indexDigest.
func Key(indexDigest, moveText string) string {
	normalized := strings.Join(strings.Fields(moveText), " ")
	return keyPrefix + indexDigest + ":" + strconv.FormatUint(xxhash.Sum64String(normalized), 16)
}

// Get returns nil, false, nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Classification, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cls domain.Classification
	if err := json.Unmarshal(raw, &cls); err != nil {
		return nil, false, fmt.Errorf("decode cached classification: %w", err)
	}
	return &cls, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, cls domain.Classification) error {
	raw, err := json.Marshal(cls)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

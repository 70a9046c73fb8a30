package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"faq-rag/internal/models"
)

const keyPrefix = "faq:"

// Normalize canonicalizes a question for cache-key purposes: lower-cased,
// whitespace runs collapsed to single spaces, trimmed. Questions differing
// only in case or whitespace share a key.
func Normalize(question string) string {
	return strings.Join(strings.Fields(strings.ToLower(question)), " ")
}

// Key derives the fixed-width cache key for a question.
func Key(question string) string {
	sum := md5.Sum([]byte(Normalize(question)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Cache is the strict answer cache over Redis: Get misses on absent or
// expired keys, Set overwrites with the configured TTL. Failures are
// returned as-is; callers wanting the swallow-and-log policy wrap this in
// BestEffort.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached answer for the question, or nil on a miss.
func (c *Cache) Get(ctx context.Context, question string) (*models.CachedAnswer, error) {
	val, err := c.rdb.Get(ctx, Key(question)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %v", err)
	}
	var answer models.CachedAnswer
	if err := json.Unmarshal([]byte(val), &answer); err != nil {
		return nil, fmt.Errorf("cache decode: %v", err)
	}
	return &answer, nil
}

// Set stores the answer under the question's key with the configured TTL.
// Overwrites are idempotent.
func (c *Cache) Set(ctx context.Context, question string, answer *models.CachedAnswer) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("cache encode: %v", err)
	}
	if err := c.rdb.Set(ctx, Key(question), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %v", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

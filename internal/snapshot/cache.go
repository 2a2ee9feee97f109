package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/trogers1052/nof0-api/internal/models"
)

// Namespace prefixes every Redis key written by the cache
const Namespace = "nof0"

// RawReader returns the bytes of a snapshot
type RawReader interface {
	ReadRaw(key string) ([]byte, error)
}

// Cache is a Redis read-through cache in front of a RawReader. A nil Redis
// client turns it into a pass-through.
type Cache struct {
	client *redis.Client
	source RawReader
	ttl    TTLSet
	logger *logrus.Logger
}

// NewCache creates a Cache
func NewCache(client *redis.Client, source RawReader, ttl TTLSet, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// CacheKey returns the Redis key holding the snapshot key
func CacheKey(key string) string {
	return Namespace + ":snapshot:" + key
}

// ReadRaw returns the snapshot bytes, from Redis when present. Redis errors
// are logged and fall through to the source.
func (c *Cache) ReadRaw(ctx context.Context, key string) ([]byte, error) {
	if c.client == nil {
		return c.source.ReadRaw(key)
	}

	cacheKey := CacheKey(key)
	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).WithField("key", cacheKey).Warn("redis get failed")
	}

	data, err = c.source.ReadRaw(key)
	if err != nil {
		return nil, err
	}

	if ttl := c.ttl.Duration(ClassFor(key)); ttl > 0 {
		if err := c.client.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
			c.logger.WithError(err).WithField("key", cacheKey).Warn("redis set failed")
		}
	}
	return data, nil
}

// Invalidate drops cached copies of the given snapshot keys
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = CacheKey(k)
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}

// Keys lists the fixed snapshot keys
var Keys = []string{
	KeyCryptoPrices,
	KeySinceInception,
	KeyTrades,
	KeyPositions,
	KeyAnalytics,
	KeyConversations,
	KeyAccountTotals,
	KeyLeaderboard,
}

// HandleImportEvent drops cached snapshots refreshed by an import. A section
// event drops that section; completion drops everything, per-model
// analytics included.
func (c *Cache) HandleImportEvent(ctx context.Context, event models.ImportEvent) error {
	if c.client == nil {
		return nil
	}

	switch event.EventType {
	case models.EventSectionImported:
		if event.Section == "" {
			return nil
		}
		return c.Invalidate(ctx, event.Section)
	case models.EventImportCompleted:
		keys := make([]string, 0, len(Keys))
		for _, k := range Keys {
			keys = append(keys, CacheKey(k))
		}

		iter := c.client.Scan(ctx, 0, CacheKey(ModelAnalyticsKey("*")), 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan cached analytics: %w", err)
		}

		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to invalidate snapshots: %w", err)
		}
		c.logger.WithField("keys", len(keys)).Info("invalidated cached snapshots")
	}
	return nil
}

// Package popupcache keeps rendered popups in redis. A nil *Cache is valid
// and caches nothing.
package popupcache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EmpoweredVote/voterpower-map/internal/districts"
	"github.com/EmpoweredVote/voterpower-map/internal/metrics"
)

const keyPrefix = "votermap:popup:"

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open connects to redis. An empty addr returns a nil cache.
func Open(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	if addr == "" || ttl <= 0 {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Printf("[popupcache] connected addr=%s db=%d ttl=%s", addr, db, ttl)
	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Key scopes an entry to the table version it was rendered from, so a
// reload never serves an older popup.
func Key(chamber districts.Chamber, featureID districts.FeatureID, version string) string {
	return keyPrefix + version + ":" + string(chamber) + ":" + string(featureID)
}

// Get returns the cached fragment. Redis errors count as a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[popupcache] get key=%s error: %v", key, err)
		}
		metrics.PopupCacheMissesTotal.Inc()
		return "", false
	}
	metrics.PopupCacheHitsTotal.Inc()
	return v, true
}

func (c *Cache) Set(ctx context.Context, key, html string) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, html, c.ttl).Err(); err != nil {
		log.Printf("[popupcache] set key=%s error: %v", key, err)
	}
}

// GetOrRender serves key from the cache or calls render and stores its result.
func (c *Cache) GetOrRender(ctx context.Context, key string, render func() (string, error)) (string, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.Set(ctx, key, html)
	return html, nil
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

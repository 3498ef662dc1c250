package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Store is the subset of RedisClient used by PageCache.
type Store interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
}

// PageCache stores rendered responses under tags so that every page built
// from the same data can be dropped in one call.
type PageCache struct {
	store Store
	ttl   time.Duration
}

// NewPageCache creates a PageCache with a default entry TTL.
func NewPageCache(store Store, ttl time.Duration) *PageCache {
	return &PageCache{store: store, ttl: ttl}
}

func pageKey(key string) string {
	return fmt.Sprintf("cache:page:%s", key)
}

func tagKey(tag string) string {
	return fmt.Sprintf("cache:tag:%s", tag)
}

// Get decodes the cached value for key into dst. It returns false on a miss.
func (c *PageCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.store.Get(ctx, pageKey(key))
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached page %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key and registers key with every tag.
func (c *PageCache) Set(ctx context.Context, key string, value interface{}, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal page %s: %w", key, err)
	}
	pk := pageKey(key)
	if err := c.store.Set(ctx, pk, string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to set page %s: %w", key, err)
	}
	for _, tag := range tags {
		// Tag sets outlive their pages by one TTL so stale members are harmless.
		if err := c.store.AddToSet(ctx, tagKey(tag), 2*c.ttl, pk); err != nil {
			return fmt.Errorf("failed to tag page %s: %w", key, err)
		}
	}
	return nil
}

// InvalidateTag deletes every page registered under tag and the tag set
// itself. It returns the number of page keys removed.
func (c *PageCache) InvalidateTag(ctx context.Context, tag string) (int, error) {
	tk := tagKey(tag)
	members, err := c.store.SetMembers(ctx, tk)
	if err != nil {
		return 0, fmt.Errorf("failed to read tag %s: %w", tag, err)
	}
	keys := append(members, tk)
	if err := c.store.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
	}
	return len(members), nil
}

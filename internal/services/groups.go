// Package services holds small client-side services layered over the API
// client.
package services

import (
	"context"
	"sync"
	"time"
)

// GroupSource supplies the group catalog. api.Client implements it.
type GroupSource interface {
	Groups(ctx context.Context) ([]string, error)
}

// GroupCache caches the group catalog to avoid refetching it for every
// search prompt. Groups change rarely; a short TTL keeps the list fresh
// enough without a fetch per keystroke.
type GroupCache struct {
	source GroupSource
	ttl    time.Duration

	mu        sync.RWMutex
	groups    []string
	fetchedAt time.Time
}

// NewGroupCache creates a cache over source. A non-positive ttl falls back
// to five minutes.
func NewGroupCache(source GroupSource, ttl time.Duration) *GroupCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &GroupCache{
		source: source,
		ttl:    ttl,
	}
}

// Get returns the group catalog, fetching it when the cache is empty or
// expired. A fetch failure with a warm cache returns the stale catalog
// instead of the error.
func (c *GroupCache) Get(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.groups != nil && time.Since(c.fetchedAt) < c.ttl {
		groups := c.groups
		c.mu.RUnlock()
		return groups, nil
	}
	c.mu.RUnlock()

	groups, err := c.source.Groups(ctx)
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.groups != nil {
			return c.groups, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.groups = groups
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return groups, nil
}

// Invalidate drops the cached catalog so the next Get refetches.
func (c *GroupCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = nil
	c.fetchedAt = time.Time{}
}

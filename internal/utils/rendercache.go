package utils

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// RenderCache memoizes rendered bodies by key. Concurrent misses for the same
// key share one render. Once limit entries are held new renders are returned
// without being stored.
type RenderCache struct {
	entries sync.Map
	size    atomic.Int64
	limit   int64
	group   singleflight.Group
}

// NewRenderCache creates a cache holding at most limit entries
func NewRenderCache(limit int) *RenderCache {
	return &RenderCache{limit: int64(limit)}
}

// GetOrRender returns the cached body for key, calling render on a miss.
// Returned slices are shared and must not be modified.
func (c *RenderCache) GetOrRender(key string, render func() ([]byte, error)) ([]byte, error) {
	if cached, ok := c.entries.Load(key); ok {
		return cached.([]byte), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.entries.Load(key); ok {
			return cached.([]byte), nil
		}

		body, err := render()
		if err != nil {
			return nil, err
		}

		if c.size.Load() < c.limit {
			if _, loaded := c.entries.LoadOrStore(key, body); !loaded {
				c.size.Add(1)
			}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Len reports how many bodies are cached
func (c *RenderCache) Len() int {
	return int(c.size.Load())
}

// Clear drops every cached body
func (c *RenderCache) Clear() {
	c.entries.Range(func(key, _ any) bool {
		if _, ok := c.entries.LoadAndDelete(key); ok {
			c.size.Add(-1)
		}
		return true
	})
}

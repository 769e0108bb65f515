package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStats reports hit and miss counts since creation.
type MemoryStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// MemoryCache is an in-process LRU with a single TTL. Values are stored JSON
// encoded so that callers never share mutable state with the cache.
type MemoryCache struct {
	lru    *expirable.LRU[string, []byte]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemoryCache creates a cache holding at most size entries for ttl.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1000
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.lru.Get(key)
	if !ok {
		m.misses.Add(1)
		return ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		m.lru.Remove(key)
		m.misses.Add(1)
		return ErrCacheMiss
	}
	m.hits.Add(1)
	return nil
}

// Set implements Cache. The per-call ttl is ignored; the LRU has one TTL.
func (m *MemoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	m.lru.Add(key, raw)
	return nil
}

// Stats returns hit/miss counters.
func (m *MemoryCache) Stats() MemoryStats {
	return MemoryStats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: m.lru.Len(),
	}
}

// Purge drops every entry.
func (m *MemoryCache) Purge() {
	m.lru.Purge()
}

// Close implements Cache.
func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}

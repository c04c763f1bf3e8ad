// Package extraction provides the content-addressed DocumentExtractionCache
// and the Extractor contract required of the file-parser collaborator.
//
// Grounded on the teacher's pkg/runbook/cache.go: a map guarded by
// sync.RWMutex with TTL-based lazy expiration on Get, re-verified under the
// write lock. The spec's eviction rule (oldest 20% by insertion order, not
// access order) is a batch policy a generic LRU library does not express,
// so this cache is hand-rolled rather than built on
// github.com/hashicorp/golang-lru/v2 (which is used instead for
// pkg/memory's session table, whose spec eviction really is LRU-by-access).
package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// Capacity is the maximum number of entries the cache retains before
// evicting the oldest EvictFraction of them.
const Capacity = 100

// EvictFraction is the share of entries dropped, oldest-first, on overflow.
const EvictFraction = 0.20

// TTL is how long an entry survives without being swept.
const TTL = 24 * time.Hour

// sweepInterval is the background-sweep cadence.
const sweepInterval = 5 * time.Minute

// Entry is a cached extraction result for one (tenant, content hash) key.
type Entry struct {
	Text      string
	FileName  string
	FileType  string
	ToolsUsed []string
	Timestamp time.Time
}

type cacheKey struct {
	tenantID    string
	contentHash string
}

// Cache is the shared, process-wide DocumentExtractionCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]Entry
	order   []cacheKey // insertion order, oldest first

	cancel context.CancelFunc
	done   chan struct{}
}

// NewCache constructs an empty extraction cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[cacheKey]Entry),
	}
}

// ContentHash computes the cache key component for raw attachment bytes.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached entry for (tenantID, contentHash) if present and
// not expired. An expired entry is deleted before returning the miss.
func (c *Cache) Get(tenantID, contentHash string) (Entry, bool) {
	key := cacheKey{tenantID, contentHash}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if time.Since(entry.Timestamp) > TTL {
		c.mu.Lock()
		// Re-verify under the write lock before deleting (teacher:
		// pkg/runbook/cache.go's double-checked expiry).
		if entry, ok := c.entries[key]; ok && time.Since(entry.Timestamp) > TTL {
			delete(c.entries, key)
			c.removeFromOrder(key)
		}
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Set inserts or replaces the entry for (tenantID, contentHash), stamping
// the current time, then triggers eviction if the cache is over capacity.
func (c *Cache) Set(tenantID, contentHash string, entry Entry) {
	key := cacheKey{tenantID, contentHash}
	entry.Timestamp = time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = entry

	if len(c.entries) > Capacity {
		c.evictOldestLocked()
	}
}

// evictOldestLocked drops the oldest EvictFraction of entries by insertion
// order. Caller must hold c.mu.
func (c *Cache) evictOldestLocked() {
	n := int(float64(Capacity) * EvictFraction)
	if n < 1 {
		n = 1
	}
	if n > len(c.order) {
		n = len(c.order)
	}
	for i := 0; i < n; i++ {
		delete(c.entries, c.order[i])
	}
	c.order = c.order[n:]
	slog.Info("extraction cache: evicted oldest entries", "count", n)
}

// removeFromOrder deletes key from the order slice; caller must hold c.mu.
func (c *Cache) removeFromOrder(key cacheKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]Entry)
	c.order = nil
}

// Stats reports current cache occupancy.
type Stats struct {
	Size int
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Size: len(c.entries)}
}

// Start launches the background TTL sweep (5 min cadence, on top of the
// opportunistic expiry already performed by Get).
func (c *Cache) Start(ctx context.Context) {
	if c.cancel != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
	slog.Info("extraction cache sweep started", "ttl", TTL, "interval", sweepInterval)
}

// Stop halts the sweep loop and waits for it to exit.
func (c *Cache) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Cache) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	cutoff := time.Now().Add(-TTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, key := range c.order {
		if entry, ok := c.entries[key]; ok && entry.Timestamp.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		newOrder := make([]cacheKey, 0, len(c.order)-removed)
		for _, key := range c.order {
			if _, ok := c.entries[key]; ok {
				newOrder = append(newOrder, key)
			}
		}
		c.order = newOrder
		slog.Info("extraction cache: swept expired entries", "count", removed)
	}
}

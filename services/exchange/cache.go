package exchange

import (
	"container/list"
	"sync"
	"time"

	"github.com/travelhub/travel-hub/models"
)

// cacheEntry wraps a code with its LRU bookkeeping.
type cacheEntry struct {
	code    *models.ExchangeCode
	element *list.Element
}

// codeCache is an in-memory single-use code store with TTL and LRU
// eviction. Thread-safe; Take removes the entry atomically so a code can
// never be redeemed twice from the same cache.
type codeCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lruList *list.List
	maxSize int
}

func newCodeCache(maxSize int) *codeCache {
	if maxSize <= 0 {
		maxSize = 4096
	}
	return &codeCache{
		entries: make(map[string]*cacheEntry),
		lruList: list.New(),
		maxSize: maxSize,
	}
}

// Put stores a freshly issued code, evicting the least recently used entry
// when the cache is full.
func (c *codeCache) Put(code *models.ExchangeCode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[code.Code]; exists {
		entry.code = code
		c.lruList.MoveToFront(entry.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	entry := &cacheEntry{code: code}
	entry.element = c.lruList.PushFront(code.Code)
	c.entries[code.Code] = entry
}

// Take removes and returns the code in one step. Returns nil when the code
// is unknown; expired entries are returned too, classification is the
// caller's job.
func (c *codeCache) Take(code string) *models.ExchangeCode {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[code]
	if !exists {
		return nil
	}
	c.removeLocked(code, entry)
	return entry.code
}

// PurgeExpired drops every entry past its TTL. Called opportunistically.
func (c *codeCache) PurgeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for key, entry := range c.entries {
		if entry.code.Expired(now) {
			c.removeLocked(key, entry)
			purged++
		}
	}
	return purged
}

// Len returns the number of live entries.
func (c *codeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *codeCache) evictOldest() {
	back := c.lruList.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	if entry, exists := c.entries[key]; exists {
		c.removeLocked(key, entry)
	}
}

func (c *codeCache) removeLocked(key string, entry *cacheEntry) {
	c.lruList.Remove(entry.element)
	delete(c.entries, key)
}

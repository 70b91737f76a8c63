package judge

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"codeclash/internal/protocol"
)

// CacheTTL is how long a passing result stays replayable.
const CacheTTL = 30 * time.Second

// Fingerprint keys a (code, problem) pair: the first 16 hex chars of the
// code's sha256, joined with the problem id.
func Fingerprint(code, problemID string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])[:16] + ":" + problemID
}

type cacheEntry struct {
	result  *protocol.JudgeResult
	expires time.Time
}

// Cache remembers passing judge results by fingerprint. It lives inside a
// single room actor, so it needs no locking.
type Cache struct {
	ttl     time.Duration
	entries map[string]cacheEntry
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

// Get returns a cached result if present and fresh at now.
func (c *Cache) Get(key string, now time.Time) (*protocol.JudgeResult, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.result, true
}

// Put stores a result. Only passing results are kept; failures must hit the
// judge again.
func (c *Cache) Put(key string, result *protocol.JudgeResult, now time.Time) {
	if result == nil || !result.Passed {
		return
	}
	c.entries[key] = cacheEntry{result: result, expires: now.Add(c.ttl)}
	c.prune(now)
}

func (c *Cache) prune(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
}

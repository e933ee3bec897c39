package engine

import (
	"sync"
	"time"
)

// dedupeCache is a mutex-guarded map tracking transaction hashes already
// folded into any window, the same cache-guarded-by-a-mutex shape
// RateCache uses to avoid redoing work for a block height it has already
// seen. The cache is retention-bounded rather than height-bounded: entries
// older than retention are pruned on each Prune() call instead of never
// expiring.
type dedupeCache struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
}

func newDedupeCache(retention time.Duration) *dedupeCache {
	return &dedupeCache{
		seen:      make(map[string]time.Time),
		retention: retention,
	}
}

// SeenOrRecord reports whether hash has already been recorded; if not, it
// records it with timestamp ts and returns false. Dedup is cross-window:
// a transaction hash counts as a duplicate if it has been seen by any
// window's buffer, not just the one currently being fed.
func (c *dedupeCache) SeenOrRecord(hash string, ts time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[hash]; ok {
		return true
	}
	c.seen[hash] = ts
	return false
}

// Prune drops entries older than retention relative to now, keeping the
// cache bounded in the face of a long-running engine.
func (c *dedupeCache) Prune(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := now.Add(-c.retention)
	for hash, ts := range c.seen {
		if ts.Before(cutoff) {
			delete(c.seen, hash)
		}
	}
}

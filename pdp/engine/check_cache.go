// pdp/engine/check_cache.go
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/chaosunly/iam-app/logging"
	"github.com/chaosunly/iam-app/model"
)

// PointChecker performs a single uncached permission check. Implemented
// by dao.TupleDAO; tests substitute counting fakes.
type PointChecker interface {
	Check(ctx context.Context, tuple model.RelationTuple) (bool, error)
}

type cacheEntry struct {
	allowed   bool
	timestamp time.Time
}

// CheckCache memoizes permission-check results in front of a
// PointChecker. Entries are valid for TTL; a background sweep removes
// expired entries so a long-lived process observing many distinct
// subjects stays bounded. The cache is process-local and rebuilt empty
// on every start.
type CheckCache struct {
	checker       PointChecker
	ttl           time.Duration
	sweepInterval time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

func NewCheckCache(checker PointChecker, ttl, sweepInterval time.Duration) *CheckCache {
	return &CheckCache{
		checker:       checker,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		entries:       make(map[string]cacheEntry),
		now:           time.Now,
	}
}

// CheckCached returns a memoized check result when a fresh entry exists
// and skipCache is false; otherwise it asks the upstream checker and
// stores the result. The fresh entry is committed whole or not at all.
func (c *CheckCache) CheckCached(ctx context.Context, tuple model.RelationTuple, skipCache bool) (bool, error) {
	if err := tuple.Validate(); err != nil {
		return false, err
	}

	key := tuple.CacheKey()

	if !skipCache {
		c.mu.RLock()
		entry, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Sub(entry.timestamp) < c.ttl {
			logger.Debug("Permission check cache hit", zap.String("key", key), zap.Bool("allowed", entry.allowed))
			return entry.allowed, nil
		}
	}

	allowed, err := c.checker.Check(ctx, tuple)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{allowed: allowed, timestamp: c.now()}
	c.mu.Unlock()

	return allowed, nil
}

// InvalidateForSubject drops every entry whose key's final segment is
// userID, leaving other subjects untouched.
func (c *CheckCache) InvalidateForSubject(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasSuffix(key, ":"+userID) {
			delete(c.entries, key)
		}
	}
	logger.Debug("Invalidated cached checks for subject", zap.String("userID", userID))
}

// Clear drops the entire cache.
func (c *CheckCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of cached entries, fresh or stale.
func (c *CheckCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Start launches the background sweep. Stop must be called on shutdown.
func (c *CheckCache) Start() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweep and waits for it to exit.
func (c *CheckCache) Stop() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
	c.stop = nil
}

func (c *CheckCache) sweep() {
	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if entry.timestamp.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		logger.Debug("Swept expired check-cache entries", zap.Int("removed", removed))
	}
}

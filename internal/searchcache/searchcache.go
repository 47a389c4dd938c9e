// Package searchcache caches backend result lists keyed by normalized query
// text. One Cache instance wraps one store namespace; the app runs one for
// song searches and one for per-artist song listings, each with its own TTL.
// Unlike chord sheets, result rows have no saved partition: everything here
// is transient and ages out.
package searchcache

import (
	"log/slog"
	"time"

	"github.com/capoapp/capo/internal/cachekey"
	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/policy"
	"github.com/capoapp/capo/internal/store"
)

// Cache is a TTL- and size-bounded cache over one result namespace.
type Cache struct {
	store     *store.Store
	namespace store.Namespace
	policy    policy.Policy
	logger    *slog.Logger

	now func() time.Time
}

// New creates a cache over the given namespace of an open store.
func New(s *store.Store, ns store.Namespace, p policy.Policy, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: s, namespace: ns, policy: p, logger: logger, now: time.Now}
}

// Get returns the cached results for a query, with the usual lazy-expiry
// semantics: an expired row reads as a miss and is deleted. Hits are touched
// best-effort so the eviction score sees the access.
func (c *Cache) Get(query string) ([]domain.SongSummary, bool) {
	key := cachekey.NormalizeQuery(query)
	rec, err := c.store.GetResult(c.namespace, key)
	if err != nil {
		c.logger.Warn("result cache read failed", "namespace", c.namespace, "key", key, "error", err)
		return nil, false
	}
	if rec == nil {
		return nil, false
	}

	now := c.now()
	if c.policy.Expired(rec.Timestamp, now) {
		if err := c.store.DeleteResult(c.namespace, key); err != nil {
			c.logger.Warn("failed to delete expired results", "key", key, "error", err)
		}
		return nil, false
	}

	rec.AccessCount++
	rec.Timestamp = now.UnixMilli()
	if err := c.store.PutResult(c.namespace, rec); err != nil {
		c.logger.Warn("failed to touch results", "key", key, "error", err)
	}

	return rec.Results, true
}

// Store caches the results for a query and runs an opportunistic sweep.
// Caching failures are logged and swallowed: a result list that does not
// persist is re-fetched next time, which is never worth failing the search.
func (c *Cache) Store(query string, results []domain.SongSummary) {
	rec := &store.ResultRecord{
		Key:       cachekey.NormalizeQuery(query),
		Query:     query,
		Results:   results,
		Timestamp: c.now().UnixMilli(),
	}
	if err := c.store.PutResult(c.namespace, rec); err != nil {
		c.logger.Warn("result cache write failed", "namespace", c.namespace, "key", rec.Key, "error", err)
		return
	}
	c.sweep()
}

func (c *Cache) sweep() {
	all, err := c.store.AllResults(c.namespace)
	if err != nil {
		c.logger.Warn("sweep: listing results failed", "namespace", c.namespace, "error", err)
		return
	}

	now := c.now()
	live := all[:0]
	for _, rec := range all {
		if c.policy.Expired(rec.Timestamp, now) {
			if err := c.store.DeleteResult(c.namespace, rec.Key); err != nil {
				c.logger.Warn("sweep: expiry delete failed", "key", rec.Key, "error", err)
			}
			continue
		}
		live = append(live, rec)
	}

	entries := make([]policy.Entry, len(live))
	for i, rec := range live {
		entries[i] = policy.Entry{ID: rec.Key, Timestamp: rec.Timestamp, AccessCount: rec.AccessCount}
	}
	for _, key := range c.policy.Victims(entries, now) {
		if err := c.store.DeleteResult(c.namespace, key); err != nil {
			c.logger.Warn("sweep: eviction delete failed", "key", key, "error", err)
		}
	}
}

// Package policy implements the expiration and eviction rules shared by the
// chord-sheet and result caches. Expiry is a pure TTL check; eviction ranks
// entries by a weighted recency/frequency score and removes the lowest
// scores first.
package policy

import (
	"sort"
	"time"
)

// Policy holds the tunables for one cache namespace.
type Policy struct {
	TTL           time.Duration // Max age for unsaved entries
	MaxEntries    int           // Unsaved-entry bound before eviction (0 = unbounded)
	AccessWeight  float64       // Score weight for access frequency
	RecencyWeight float64       // Score weight for recency
}

// Default weights favor frequency over recency. Weights sum to 1.
const (
	DefaultAccessWeight  = 0.7
	DefaultRecencyWeight = 0.3
)

// Entry is the scoring view of a cache record. ID ties a score back to a
// stored row; Index preserves insertion order for stable tie-breaking.
type Entry struct {
	ID          string
	Timestamp   int64 // Epoch millis of last write/touch
	AccessCount int
}

// Expired reports whether an entry written at timestamp (epoch millis) has
// outlived the TTL at the given instant. A zero TTL disables expiry.
func (p Policy) Expired(timestamp int64, now time.Time) bool {
	if p.TTL <= 0 {
		return false
	}
	age := now.UnixMilli() - timestamp
	return age > p.TTL.Milliseconds()
}

// Score computes the eviction score for an entry; lower scores are evicted
// first. Recency is normalized against now so both terms stay comparable.
func (p Policy) Score(accessCount int, timestamp int64, now time.Time) float64 {
	w1, w2 := p.AccessWeight, p.RecencyWeight
	if w1 == 0 && w2 == 0 {
		w1, w2 = DefaultAccessWeight, DefaultRecencyWeight
	}
	recency := 0.0
	if nowMs := now.UnixMilli(); nowMs > 0 {
		recency = float64(timestamp) / float64(nowMs)
	}
	return float64(accessCount)*w1 + recency*w2
}

// Victims returns the IDs to evict so that at most MaxEntries of the given
// entries survive, lowest score first. The caller passes only entries that
// are actually evictable; saved rows must be filtered out beforehand. Ties
// keep insertion order (stable sort), so older entries go first.
func (p Policy) Victims(entries []Entry, now time.Time) []string {
	if p.MaxEntries <= 0 || len(entries) <= p.MaxEntries {
		return nil
	}

	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return p.Score(ranked[i].AccessCount, ranked[i].Timestamp, now) <
			p.Score(ranked[j].AccessCount, ranked[j].Timestamp, now)
	})

	n := len(ranked) - p.MaxEntries
	victims := make([]string, 0, n)
	for _, e := range ranked[:n] {
		victims = append(victims, e.ID)
	}
	return victims
}

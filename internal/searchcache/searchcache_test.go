package searchcache

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/policy"
	"github.com/capoapp/capo/internal/store"
)

func testCache(t *testing.T, p policy.Policy) *Cache {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "capo.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if p.AccessWeight == 0 && p.RecencyWeight == 0 {
		p.AccessWeight = policy.DefaultAccessWeight
		p.RecencyWeight = policy.DefaultRecencyWeight
	}
	return New(s, store.NamespaceSearches, p, nil)
}

func results(n int) []domain.SongSummary {
	out := make([]domain.SongSummary, n)
	for i := range out {
		out[i] = domain.SongSummary{
			Title:  fmt.Sprintf("Song %d", i),
			Artist: "Artist",
			Path:   fmt.Sprintf("/artist/song-%d", i),
		}
	}
	return out
}

func TestStoreAndGet(t *testing.T) {
	c := testCache(t, policy.Policy{TTL: time.Hour, MaxEntries: 50})

	c.Store("Wonderwall", results(3))

	got, ok := c.Get("Wonderwall")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if len(got) != 3 {
		t.Errorf("got %d results, want 3", len(got))
	}
}

func TestEquivalentQueriesShareRow(t *testing.T) {
	c := testCache(t, policy.Policy{TTL: time.Hour, MaxEntries: 50})

	c.Store("Sweet Child O' Mine", results(2))

	// Case, punctuation, and whitespace variants hit the same row
	variants := []string{
		"sweet child o mine",
		"  Sweet   Child O Mine ",
		"SWEET CHILD O' MINE!",
	}
	for _, q := range variants {
		if _, ok := c.Get(q); !ok {
			t.Errorf("query %q missed; should share the cache row", q)
		}
	}

	n, err := c.store.ResultCount(store.NamespaceSearches)
	if err != nil {
		t.Fatalf("ResultCount: %v", err)
	}
	if n != 1 {
		t.Errorf("variants created %d rows, want 1", n)
	}
}

func TestMiss(t *testing.T) {
	c := testCache(t, policy.Policy{TTL: time.Hour, MaxEntries: 50})
	if _, ok := c.Get("never stored"); ok {
		t.Error("expected a miss")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := testCache(t, policy.Policy{TTL: time.Hour, MaxEntries: 50})

	c.Store("wonderwall", results(1))
	c.now = func() time.Time { return time.Now().Add(time.Hour + time.Millisecond) }

	if _, ok := c.Get("wonderwall"); ok {
		t.Error("expired row should read as a miss")
	}
	n, err := c.store.ResultCount(store.NamespaceSearches)
	if err != nil {
		t.Fatalf("ResultCount: %v", err)
	}
	if n != 0 {
		t.Errorf("expired row not lazily deleted, count = %d", n)
	}
}

func TestEvictionBound(t *testing.T) {
	c := testCache(t, policy.Policy{TTL: 24 * time.Hour, MaxEntries: 4})

	for i := 0; i < 10; i++ {
		c.Store(fmt.Sprintf("query %d", i), results(1))
	}

	n, err := c.store.ResultCount(store.NamespaceSearches)
	if err != nil {
		t.Fatalf("ResultCount: %v", err)
	}
	if n != 4 {
		t.Errorf("cache holds %d rows after eviction, want 4", n)
	}
}

func TestHitBumpsAccessCount(t *testing.T) {
	c := testCache(t, policy.Policy{TTL: time.Hour, MaxEntries: 50})

	c.Store("wonderwall", results(1))
	c.Get("wonderwall")
	c.Get("wonderwall")

	rec, err := c.store.GetResult(store.NamespaceSearches, "wonderwall")
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if rec == nil {
		t.Fatal("row disappeared")
	}
	if rec.AccessCount != 2 {
		t.Errorf("AccessCount = %d after 2 hits, want 2", rec.AccessCount)
	}
}

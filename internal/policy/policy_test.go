package policy

import (
	"testing"
	"time"
)

func TestExpired(t *testing.T) {
	now := time.Now()
	p := Policy{TTL: time.Hour}

	tests := []struct {
		name      string
		timestamp int64
		want      bool
	}{
		{"fresh", now.UnixMilli(), false},
		{"just inside ttl", now.Add(-time.Hour).UnixMilli(), false},
		{"just past ttl", now.Add(-time.Hour).UnixMilli() - 1, true},
		{"ancient", now.Add(-240 * time.Hour).UnixMilli(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Expired(tt.timestamp, now); got != tt.want {
				t.Errorf("Expired(%d) = %v, want %v", tt.timestamp, got, tt.want)
			}
		})
	}
}

func TestExpiredZeroTTL(t *testing.T) {
	p := Policy{TTL: 0}
	if p.Expired(0, time.Now()) {
		t.Error("zero TTL must disable expiry")
	}
}

func TestScoreOrdersByAccessCount(t *testing.T) {
	now := time.Now()
	p := Policy{AccessWeight: 0.7, RecencyWeight: 0.3}
	ts := now.UnixMilli()

	low := p.Score(1, ts, now)
	high := p.Score(10, ts, now)
	if low >= high {
		t.Errorf("more accesses should score higher: %f >= %f", low, high)
	}
}

func TestScoreOrdersByRecency(t *testing.T) {
	now := time.Now()
	p := Policy{AccessWeight: 0.7, RecencyWeight: 0.3}

	old := p.Score(1, now.Add(-24*time.Hour).UnixMilli(), now)
	fresh := p.Score(1, now.UnixMilli(), now)
	if old >= fresh {
		t.Errorf("fresher entry should score higher: %f >= %f", old, fresh)
	}
}

func TestVictims(t *testing.T) {
	now := time.Now()
	p := Policy{MaxEntries: 2, AccessWeight: 0.7, RecencyWeight: 0.3}

	entries := []Entry{
		{ID: "popular", Timestamp: now.UnixMilli(), AccessCount: 50},
		{ID: "cold", Timestamp: now.Add(-48 * time.Hour).UnixMilli(), AccessCount: 0},
		{ID: "warm", Timestamp: now.UnixMilli(), AccessCount: 5},
	}

	victims := p.Victims(entries, now)
	if len(victims) != 1 {
		t.Fatalf("expected 1 victim, got %d", len(victims))
	}
	if victims[0] != "cold" {
		t.Errorf("expected 'cold' evicted, got %q", victims[0])
	}
}

func TestVictimsUnderBound(t *testing.T) {
	now := time.Now()
	p := Policy{MaxEntries: 10}
	entries := []Entry{
		{ID: "a", Timestamp: now.UnixMilli()},
		{ID: "b", Timestamp: now.UnixMilli()},
	}
	if victims := p.Victims(entries, now); victims != nil {
		t.Errorf("no eviction expected under the bound, got %v", victims)
	}
}

func TestVictimsUnbounded(t *testing.T) {
	now := time.Now()
	p := Policy{MaxEntries: 0}
	entries := make([]Entry, 100)
	for i := range entries {
		entries[i] = Entry{ID: "x", Timestamp: now.UnixMilli()}
	}
	if victims := p.Victims(entries, now); victims != nil {
		t.Errorf("MaxEntries=0 must disable eviction, got %d victims", len(victims))
	}
}

func TestVictimsStableTies(t *testing.T) {
	now := time.Now()
	p := Policy{MaxEntries: 2, AccessWeight: 0.7, RecencyWeight: 0.3}
	ts := now.UnixMilli()

	// Identical scores: insertion order decides, oldest inserted goes first.
	entries := []Entry{
		{ID: "first", Timestamp: ts, AccessCount: 1},
		{ID: "second", Timestamp: ts, AccessCount: 1},
		{ID: "third", Timestamp: ts, AccessCount: 1},
	}
	victims := p.Victims(entries, now)
	if len(victims) != 1 || victims[0] != "first" {
		t.Errorf("tie-break should evict insertion-order first, got %v", victims)
	}
}

func TestVictimsCountPastBound(t *testing.T) {
	now := time.Now()
	p := Policy{MaxEntries: 3, AccessWeight: 0.7, RecencyWeight: 0.3}

	var entries []Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, Entry{
			ID:          string(rune('a' + i)),
			Timestamp:   now.UnixMilli(),
			AccessCount: i,
		})
	}
	victims := p.Victims(entries, now)
	if len(victims) != 5 {
		t.Fatalf("expected 5 victims to get back to the bound, got %d", len(victims))
	}
}

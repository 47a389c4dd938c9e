package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/capoapp/capo/internal/cachekey"
	"github.com/capoapp/capo/internal/chords"
	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/policy"
	"github.com/capoapp/capo/internal/store"
)

type stubFetcher struct {
	sheet *domain.ChordSheet
	err   error
	calls int
}

func (f *stubFetcher) FetchChordSheet(ctx context.Context, songPath string) (*domain.ChordSheet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	sheet := *f.sheet
	return &sheet, nil
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "capo.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPolicy() policy.Policy {
	return policy.Policy{
		TTL:           time.Hour,
		MaxEntries:    100,
		AccessWeight:  policy.DefaultAccessWeight,
		RecencyWeight: policy.DefaultRecencyWeight,
	}
}

func wonderwall() (*domain.ChordSheet, domain.SongSummary) {
	sheet := &domain.ChordSheet{
		Title:      "Wonderwall",
		Artist:     "Oasis",
		SongChords: "Em7 G Dsus4 A7sus4",
		SongKey:    "Em",
	}
	song := domain.SongSummary{Title: "Wonderwall", Artist: "Oasis", Path: "/oasis/wonderwall"}
	return sheet, song
}

func TestGetChordSheetReadThrough(t *testing.T) {
	repo := chords.NewRepository(testStore(t), testPolicy(), nil)
	sheet, song := wonderwall()
	fetcher := &stubFetcher{sheet: sheet}
	svc := NewSheetService(repo, fetcher, nil)

	// First read misses the cache and hits the backend
	got, id, err := svc.GetChordSheet(context.Background(), song)
	if err != nil {
		t.Fatalf("GetChordSheet: %v", err)
	}
	if got.SongChords != sheet.SongChords {
		t.Errorf("payload mismatch: %+v", got)
	}
	if want := cachekey.Generate("Oasis", "Wonderwall"); id != want {
		t.Errorf("id = %q, want %q", id, want)
	}
	if fetcher.calls != 1 {
		t.Errorf("backend called %d times, want 1", fetcher.calls)
	}

	// Second read is served from the cache
	if _, _, err := svc.GetChordSheet(context.Background(), song); err != nil {
		t.Fatalf("second GetChordSheet: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("backend called %d times after cached read, want 1", fetcher.calls)
	}
}

func TestGetChordSheetFetchFailureNotCached(t *testing.T) {
	repo := chords.NewRepository(testStore(t), testPolicy(), nil)
	_, song := wonderwall()
	fetcher := &stubFetcher{err: domain.ErrBackendUnreachable}
	svc := NewSheetService(repo, fetcher, nil)

	if _, _, err := svc.GetChordSheet(context.Background(), song); err == nil {
		t.Fatal("expected the backend error to propagate")
	}

	// Nothing was cached for the failed fetch
	id := cachekey.Generate(song.Artist, song.Title)
	cached, err := repo.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cached != nil {
		t.Error("failed fetch must not leave a cache entry")
	}
}

func TestSaveListUnsaveFlow(t *testing.T) {
	repo := chords.NewRepository(testStore(t), testPolicy(), nil)
	sheet, song := wonderwall()
	svc := NewSheetService(repo, &stubFetcher{sheet: sheet}, nil)

	got, id, err := svc.GetChordSheet(context.Background(), song)
	if err != nil {
		t.Fatalf("GetChordSheet: %v", err)
	}

	if svc.IsSaved(id) {
		t.Error("fresh fetch should not be saved")
	}
	if err := svc.SaveChordSheet(id, *got); err != nil {
		t.Fatalf("SaveChordSheet: %v", err)
	}
	if !svc.IsSaved(id) {
		t.Error("IsSaved = false after save")
	}

	saved, err := svc.ListSaved()
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(saved) != 1 || saved[0].Title != "Wonderwall" {
		t.Errorf("ListSaved = %+v, want one Wonderwall entry", saved)
	}

	if err := svc.UnsaveChordSheet(id); err != nil {
		t.Fatalf("UnsaveChordSheet: %v", err)
	}
	saved, err = svc.ListSaved()
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("library not empty after unsave: %d entries", len(saved))
	}

	// Content survived the unsave
	cached, err := svc.GetCached(id)
	if err != nil {
		t.Fatalf("GetCached: %v", err)
	}
	if cached == nil {
		t.Error("unsave must keep the content in the transient cache")
	}
}

func TestDeleteChordSheet(t *testing.T) {
	repo := chords.NewRepository(testStore(t), testPolicy(), nil)
	sheet, song := wonderwall()
	svc := NewSheetService(repo, &stubFetcher{sheet: sheet}, nil)

	got, id, err := svc.GetChordSheet(context.Background(), song)
	if err != nil {
		t.Fatalf("GetChordSheet: %v", err)
	}
	if err := svc.SaveChordSheet(id, *got); err != nil {
		t.Fatalf("SaveChordSheet: %v", err)
	}

	if err := svc.DeleteChordSheet(id); err != nil {
		t.Fatalf("DeleteChordSheet: %v", err)
	}
	cached, err := svc.GetCached(id)
	if err != nil {
		t.Fatalf("GetCached: %v", err)
	}
	if cached != nil {
		t.Error("delete must remove the sheet even when saved")
	}
}

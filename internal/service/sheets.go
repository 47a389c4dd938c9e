package service

import (
	"context"
	"log/slog"

	"github.com/capoapp/capo/internal/cachekey"
	"github.com/capoapp/capo/internal/chords"
	"github.com/capoapp/capo/internal/domain"
)

// SheetFetcher is the backend operation SheetService depends on.
type SheetFetcher interface {
	FetchChordSheet(ctx context.Context, songPath string) (*domain.ChordSheet, error)
}

// SheetService coordinates chord-sheet reads and the user library. Reads go
// through the repository first; a miss falls through to the backend and the
// fetched sheet is cached unsaved. Cache failures degrade: a read error
// means "not cached", a write error never blocks viewing the sheet.
type SheetService struct {
	repo    *chords.Repository
	fetcher SheetFetcher
	logger  *slog.Logger
}

// NewSheetService creates a new sheet service.
func NewSheetService(repo *chords.Repository, fetcher SheetFetcher, logger *slog.Logger) *SheetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetService{repo: repo, fetcher: fetcher, logger: logger}
}

// GetChordSheet returns the chord sheet for a song, read-through: cache
// first, backend on a miss. The song's ID also comes back so callers can
// save or delete what they are viewing.
func (s *SheetService) GetChordSheet(ctx context.Context, song domain.SongSummary) (*domain.ChordSheet, string, error) {
	id := cachekey.Generate(song.Artist, song.Title)

	cached, err := s.repo.Get(id)
	if err != nil {
		// Degrade to "not cached" and try the backend
		s.logger.Warn("cache read failed", "id", id, "error", err)
	}
	if cached != nil {
		s.logger.Debug("cache hit", "id", id)
		return cached, id, nil
	}

	sheet, err := s.fetcher.FetchChordSheet(ctx, song.Path)
	if err != nil {
		return nil, id, err
	}

	if err := s.repo.Store(*sheet, false, id); err != nil {
		// A sheet that does not persist is still a sheet
		s.logger.Warn("failed to cache fetched sheet", "id", id, "error", err)
	}
	return sheet, id, nil
}

// GetCached returns a sheet from the cache only, nil on a miss. Used for
// library entries, which never need the backend.
func (s *SheetService) GetCached(id string) (*domain.ChordSheet, error) {
	return s.repo.Get(id)
}

// SaveChordSheet puts a sheet into the user library. The payload is stored
// explicitly so saves work even when the unsaved cache entry has expired.
func (s *SheetService) SaveChordSheet(id string, sheet domain.ChordSheet) error {
	return s.repo.Store(sheet, true, id)
}

// UnsaveChordSheet moves a library entry back to the transient cache. The
// content stays; it just becomes eviction-eligible again.
func (s *SheetService) UnsaveChordSheet(id string) error {
	return s.repo.SetSavedStatus(id, false)
}

// DeleteChordSheet removes a sheet outright, saved or not.
func (s *SheetService) DeleteChordSheet(id string) error {
	return s.repo.Delete(id)
}

// ListSaved returns the user library, sorted for display.
func (s *SheetService) ListSaved() ([]domain.ChordSheet, error) {
	return s.repo.GetAllSaved()
}

// IsSaved reports whether a sheet is in the user library.
func (s *SheetService) IsSaved(id string) bool {
	saved, err := s.repo.IsSaved(id)
	if err != nil {
		s.logger.Warn("saved check failed", "id", id, "error", err)
		return false
	}
	return saved
}

// Package chords implements the chord-sheet repository: the typed façade
// over the record store that higher layers use for reads, writes, the
// "My Chord Sheets" listing, and save/unsave. It is the only component
// that sets the saved flag.
package chords

import (
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/policy"
	"github.com/capoapp/capo/internal/store"
)

// Repository mediates all chord-sheet persistence. Saved records are immune
// to expiry and eviction; unsaved records age out per the policy.
type Repository struct {
	store  *store.Store
	policy policy.Policy
	logger *slog.Logger

	now func() time.Time
	put func(*store.SheetRecord) error
}

// NewRepository creates a repository over an open store.
func NewRepository(s *store.Store, p policy.Policy, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: s, policy: p, logger: logger, now: time.Now, put: s.PutSheet}
}

// Get returns the payload for id, or nil on a miss. An expired unsaved row
// reads as a miss and is deleted on the spot. Hits are touched: access count
// and timestamp are updated best-effort, so a lost touch under interleaving
// costs eviction-score accuracy, never data.
func (r *Repository) Get(id string) (*domain.ChordSheet, error) {
	rec, err := r.store.GetSheet(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	now := r.now()
	if !rec.Saved.Bool() && r.policy.Expired(rec.Timestamp, now) {
		r.logger.Debug("expired on read", "id", id)
		if err := r.store.DeleteSheet(id); err != nil {
			r.logger.Warn("failed to delete expired sheet", "id", id, "error", err)
		}
		return nil, nil
	}

	rec.AccessCount++
	rec.Timestamp = now.UnixMilli()
	if err := r.store.PutSheet(rec); err != nil {
		r.logger.Warn("failed to touch sheet", "id", id, "error", err)
	}

	sheet := rec.Sheet
	sheet.Normalize()
	return &sheet, nil
}

// Store upserts a payload under id with an explicit saved flag, resetting
// the bookkeeping fields. Write paths run an opportunistic sweep, and a
// quota failure triggers one sweep-and-retry before surfacing.
func (r *Repository) Store(sheet domain.ChordSheet, saved bool, id string) error {
	sheet.Normalize()
	rec := &store.SheetRecord{
		ID:        id,
		Artist:    sheet.Artist,
		Title:     sheet.Title,
		Saved:     store.FlagFor(saved),
		Sheet:     sheet,
		Timestamp: r.now().UnixMilli(),
	}

	err := r.put(rec)
	if errors.Is(err, domain.ErrQuotaExceeded) {
		r.logger.Warn("quota exceeded, sweeping and retrying", "id", id)
		r.Sweep()
		err = r.put(rec)
	}
	if err != nil {
		return err
	}

	r.Sweep()
	return nil
}

// SetSavedStatus flips the saved flag on an existing record, leaving the
// content and bookkeeping untouched. A missing record is a no-op: nothing
// that was never fetched can be saved.
func (r *Repository) SetSavedStatus(id string, saved bool) error {
	rec, err := r.store.GetSheet(id)
	if err != nil {
		return err
	}
	if rec == nil {
		r.logger.Debug("save toggle on missing record", "id", id, "saved", saved)
		return nil
	}
	if rec.Saved.Bool() == saved {
		return nil
	}
	rec.Saved = store.FlagFor(saved)
	return r.store.PutSheet(rec)
}

// GetAllSaved returns every payload in the user library, sorted by artist
// then title. Backed by the saved index, not a table scan.
func (r *Repository) GetAllSaved() ([]domain.ChordSheet, error) {
	records, err := r.store.SheetsBySaved(store.FlagSaved)
	if err != nil {
		return nil, err
	}
	sheets := make([]domain.ChordSheet, 0, len(records))
	for _, rec := range records {
		sheet := rec.Sheet
		sheet.Normalize()
		sheets = append(sheets, sheet)
	}
	sort.Slice(sheets, func(i, j int) bool {
		if sheets[i].Artist != sheets[j].Artist {
			return sheets[i].Artist < sheets[j].Artist
		}
		return sheets[i].Title < sheets[j].Title
	})
	return sheets, nil
}

// Delete removes a record regardless of its saved flag. An explicit user
// delete overrides save status.
func (r *Repository) Delete(id string) error {
	return r.store.DeleteSheet(id)
}

// IsSaved reports whether id exists and belongs to the user library.
func (r *Repository) IsSaved(id string) (bool, error) {
	rec, err := r.store.GetSheet(id)
	if err != nil {
		return false, err
	}
	return rec != nil && rec.Saved.Bool(), nil
}

// Sweep expires stale unsaved rows, then evicts the lowest-scoring unsaved
// rows past the entry bound. Saved rows are never touched and never counted.
// Best-effort: failures are logged, not returned, since sweeps run
// opportunistically on write paths.
func (r *Repository) Sweep() {
	unsaved, err := r.store.SheetsBySaved(store.FlagUnsaved)
	if err != nil {
		r.logger.Warn("sweep: listing unsaved rows failed", "error", err)
		return
	}

	now := r.now()
	live := unsaved[:0]
	for _, rec := range unsaved {
		if r.policy.Expired(rec.Timestamp, now) {
			if err := r.store.DeleteSheet(rec.ID); err != nil {
				r.logger.Warn("sweep: expiry delete failed", "id", rec.ID, "error", err)
			}
			continue
		}
		live = append(live, rec)
	}

	entries := make([]policy.Entry, len(live))
	for i, rec := range live {
		entries[i] = policy.Entry{ID: rec.ID, Timestamp: rec.Timestamp, AccessCount: rec.AccessCount}
	}
	victims := r.policy.Victims(entries, now)
	for _, id := range victims {
		if err := r.store.DeleteSheet(id); err != nil {
			r.logger.Warn("sweep: eviction delete failed", "id", id, "error", err)
		}
	}
	if len(victims) > 0 {
		r.logger.Debug("evicted unsaved sheets", "count", len(victims))
	}
}

// Package seed bootstraps an empty library with a handful of sample chord
// sheets so a first run has something to show.
package seed

import (
	"log/slog"

	"github.com/capoapp/capo/internal/cachekey"
	"github.com/capoapp/capo/internal/chords"
	"github.com/capoapp/capo/internal/domain"
)

// SampleSheets is the fixed bootstrap set. IDs derive from artist/title via
// the cache key generator, so repeated runs target the same records.
func SampleSheets() []domain.ChordSheet {
	return []domain.ChordSheet{
		{
			Title:      "Wonderwall",
			Artist:     "Oasis",
			SongKey:    "Em",
			GuitarCapo: 2,
			SongChords: "[Intro]\nEm7  G  Dsus4  A7sus4  (x2)\n\n" +
				"[Verse 1]\nEm7            G\nToday is gonna be the day\n" +
				"Dsus4                     A7sus4\nThat they're gonna throw it back to you\n",
		},
		{
			Title:      "House of the Rising Sun",
			Artist:     "The Animals",
			SongKey:    "Am",
			SongChords: "[Intro]\nAm  C  D  F\nAm  C  E  E\n\n" +
				"[Verse 1]\nAm        C         D          F\nThere is a house in New Orleans\n" +
				"Am        C       E     E\nThey call the Rising Sun\n",
		},
		{
			Title:      "Knockin' on Heaven's Door",
			Artist:     "Bob Dylan",
			SongKey:    "G",
			SongChords: "[Verse 1]\nG             D           Am\nMama, take this badge off of me\n" +
				"G          D      C\nI can't use it anymore\n",
		},
	}
}

// Run inserts the sample sheets as saved records. It only fires for an
// empty library, and is idempotent beyond that: a sample whose ID already
// exists is left alone. Failures are logged, never fatal; seeding is
// cosmetic.
func Run(repo *chords.Repository, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	saved, err := repo.GetAllSaved()
	if err != nil {
		logger.Warn("seed: listing library failed", "error", err)
		return
	}
	if len(saved) > 0 {
		return
	}

	seeded := 0
	for _, sheet := range SampleSheets() {
		id := cachekey.Generate(sheet.Artist, sheet.Title)

		existing, err := repo.Get(id)
		if err != nil {
			logger.Warn("seed: existence check failed", "id", id, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		if err := repo.Store(sheet, true, id); err != nil {
			logger.Warn("seed: insert failed", "id", id, "error", err)
			continue
		}
		seeded++
	}

	if seeded > 0 {
		logger.Info("seeded sample chord sheets", "count", seeded)
	}
}

package domain

import (
	"fmt"
	"strings"
)

// StandardTuning is the default six-string guitar tuning, low to high.
var StandardTuning = []string{"E", "A", "D", "G", "B", "E"}

// ChordSheet is the domain payload for a single song's chords.
// The store treats it as opaque content; only the repository and UI
// interpret its fields.
type ChordSheet struct {
	Title        string   `json:"title"`        // Song title as displayed
	Artist       string   `json:"artist"`       // Artist name as displayed
	SongChords   string   `json:"songChords"`   // Raw chord/lyric text
	SongKey      string   `json:"songKey"`      // Musical key (e.g., "Em"), may be empty
	GuitarTuning []string `json:"guitarTuning"` // Always six entries, low to high
	GuitarCapo   int      `json:"guitarCapo"`   // Capo fret, 0 = no capo
}

// Normalize fills defaulted fields: a missing or malformed tuning becomes
// standard tuning and a negative capo becomes 0.
func (c *ChordSheet) Normalize() {
	if len(c.GuitarTuning) != 6 {
		c.GuitarTuning = append([]string(nil), StandardTuning...)
	}
	if c.GuitarCapo < 0 {
		c.GuitarCapo = 0
	}
}

// IsStandardTuning reports whether the sheet uses standard EADGBE tuning.
func (c ChordSheet) IsStandardTuning() bool {
	if len(c.GuitarTuning) != 6 {
		return true
	}
	for i, s := range c.GuitarTuning {
		if !strings.EqualFold(s, StandardTuning[i]) {
			return false
		}
	}
	return true
}

// TuningLabel returns the tuning as a compact display string (e.g., "EADGBE").
func (c ChordSheet) TuningLabel() string {
	if len(c.GuitarTuning) != 6 {
		return strings.Join(StandardTuning, "")
	}
	return strings.Join(c.GuitarTuning, "")
}

// CapoLabel returns a human-readable capo description.
func (c ChordSheet) CapoLabel() string {
	if c.GuitarCapo <= 0 {
		return "No capo"
	}
	return fmt.Sprintf("Capo %d", c.GuitarCapo)
}

// KeyLabel returns the song key, or a placeholder when unknown.
func (c ChordSheet) KeyLabel() string {
	if c.SongKey == "" {
		return "—"
	}
	return c.SongKey
}

// DisplayTitle returns "Artist - Title" for list rows.
func (c ChordSheet) DisplayTitle() string {
	if c.Artist == "" {
		return c.Title
	}
	return fmt.Sprintf("%s - %s", c.Artist, c.Title)
}

// SongSummary is a single row in backend search results or a per-artist
// song listing. Path identifies the song on the backend for follow-up
// chord-sheet fetches.
type SongSummary struct {
	Title  string  `json:"title"`
	Artist string  `json:"artist"`
	Path   string  `json:"path"`
	Rating float64 `json:"rating"`
	Votes  int     `json:"votes"`
}

// DisplayTitle returns "Artist - Title" for list rows.
func (s SongSummary) DisplayTitle() string {
	if s.Artist == "" {
		return s.Title
	}
	return fmt.Sprintf("%s - %s", s.Artist, s.Title)
}

// RatingLabel formats the rating for display, empty when unrated.
func (s SongSummary) RatingLabel() string {
	if s.Votes == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f (%d)", s.Rating, s.Votes)
}

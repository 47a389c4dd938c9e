package tui

import "github.com/capoapp/capo/internal/domain"

// libraryLoadedMsg carries the refreshed "My Chord Sheets" listing
type libraryLoadedMsg struct {
	sheets []domain.ChordSheet
	err    error
}

// searchDoneMsg carries backend search results
type searchDoneMsg struct {
	query   string
	results []domain.SongSummary
	err     error
}

// sheetLoadedMsg carries a fetched or cached chord sheet
type sheetLoadedMsg struct {
	sheet *domain.ChordSheet
	id    string
	err   error
}

// savedToggledMsg reports the outcome of a save/unsave/delete action
type savedToggledMsg struct {
	status string
	err    error
}

// Package tui implements the terminal interface: the saved-sheet library,
// remote search, and the chord-sheet viewer.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/capoapp/capo/internal/cachekey"
	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/service"
	"github.com/capoapp/capo/internal/tui/styles"
)

// viewState selects the active view
type viewState int

const (
	viewLibrary viewState = iota
	viewSearch
	viewSheet
)

const requestTimeout = 15 * time.Second

// Model is the bubbletea model for the whole application
type Model struct {
	sheets *service.SheetService
	search *service.SearchService
	logger *slog.Logger
	keys   KeyMap

	state  viewState
	width  int
	height int

	// Library view
	library   []domain.ChordSheet
	filterIdx *service.FilterIndex
	filtered  []service.FilterResult
	cursor    int
	filter    textinput.Model
	filtering bool

	// Search view
	input        textinput.Model
	results      []domain.SongSummary
	resultCursor int
	searching    bool
	spin         spinner.Model

	// Sheet view
	viewport  viewport.Model
	sheet     *domain.ChordSheet
	sheetID   string
	cameFrom  viewState
	statusMsg string
	errMsg    string
}

// NewModel creates the application model
func NewModel(sheets *service.SheetService, search *service.SearchService, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	filter := textinput.New()
	filter.Placeholder = "filter library"
	filter.Prompt = "/"

	input := textinput.New()
	input.Placeholder = "artist or song title"
	input.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	return Model{
		sheets:   sheets,
		search:   search,
		logger:   logger,
		keys:     DefaultKeyMap(),
		state:    viewLibrary,
		filter:   filter,
		input:    input,
		spin:     sp,
		viewport: viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadLibrary()
}

// === Commands ===

func (m Model) loadLibrary() tea.Cmd {
	return func() tea.Msg {
		sheets, err := m.sheets.ListSaved()
		return libraryLoadedMsg{sheets: sheets, err: err}
	}
}

func (m Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		results, err := m.search.Search(ctx, query)
		return searchDoneMsg{query: query, results: results, err: err}
	}
}

func (m Model) openSong(song domain.SongSummary) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sheet, id, err := m.sheets.GetChordSheet(ctx, song)
		return sheetLoadedMsg{sheet: sheet, id: id, err: err}
	}
}

func (m Model) openSaved(sheet domain.ChordSheet) tea.Cmd {
	return func() tea.Msg {
		id := cachekey.Generate(sheet.Artist, sheet.Title)
		cached, err := m.sheets.GetCached(id)
		if err != nil || cached == nil {
			// Library rows always exist; fall back to the listing copy
			copied := sheet
			return sheetLoadedMsg{sheet: &copied, id: id, err: nil}
		}
		return sheetLoadedMsg{sheet: cached, id: id}
	}
}

func (m Model) toggleSaved() tea.Cmd {
	id, sheet := m.sheetID, m.sheet
	saved := m.sheets.IsSaved(id)
	return func() tea.Msg {
		if saved {
			if err := m.sheets.UnsaveChordSheet(id); err != nil {
				return savedToggledMsg{err: err}
			}
			return savedToggledMsg{status: "Removed from My Chord Sheets"}
		}
		if err := m.sheets.SaveChordSheet(id, *sheet); err != nil {
			return savedToggledMsg{err: err}
		}
		return savedToggledMsg{status: "Added to My Chord Sheets"}
	}
}

func (m Model) deleteSheet(id string) tea.Cmd {
	return func() tea.Msg {
		if err := m.sheets.DeleteChordSheet(id); err != nil {
			return savedToggledMsg{err: err}
		}
		return savedToggledMsg{status: "Deleted"}
	}
}

// === Update ===

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 4 // Header + status bar
		return m, nil

	case libraryLoadedMsg:
		if msg.err != nil {
			m.errMsg = "Could not load library: " + msg.err.Error()
			return m, nil
		}
		m.library = msg.sheets
		m.filterIdx = service.BuildFilterIndex(filterItems(msg.sheets))
		m.applyFilter()
		return m, nil

	case searchDoneMsg:
		m.searching = false
		if msg.err != nil {
			m.errMsg = "Search failed: " + msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.results = msg.results
		m.resultCursor = 0
		return m, nil

	case sheetLoadedMsg:
		m.searching = false
		if msg.err != nil {
			m.errMsg = "Could not load chord sheet: " + msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = ""
		m.cameFrom = m.state
		m.sheet = msg.sheet
		m.sheetID = msg.id
		m.state = viewSheet
		m.viewport.SetContent(renderSheet(msg.sheet, m.width))
		m.viewport.GotoTop()
		return m, nil

	case savedToggledMsg:
		if msg.err != nil {
			// Surface the failure but keep the user on the sheet
			m.errMsg = "Could not update library: " + msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = msg.status
		return m, m.loadLibrary()

	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text inputs swallow most keys while focused
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	if m.state == viewSearch && m.input.Focused() {
		return m.handleSearchInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		switch m.state {
		case viewSheet:
			m.state = m.cameFrom
		case viewSearch:
			m.state = viewLibrary
			m.errMsg = ""
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		if m.state == viewLibrary {
			m.state = viewSearch
			m.input.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Filter):
		if m.state == viewLibrary {
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		}

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		if m.state == viewSheet {
			break // Let the viewport scroll
		}
		if key.Matches(msg, m.keys.Up) {
			m.moveCursor(-1)
		} else {
			m.moveCursor(1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		return m.openSelection()

	case key.Matches(msg, m.keys.Save):
		if m.state == viewSheet && m.sheet != nil {
			return m, m.toggleSaved()
		}

	case key.Matches(msg, m.keys.Delete):
		switch {
		case m.state == viewSheet && m.sheetID != "":
			m.state = m.cameFrom
			return m, m.deleteSheet(m.sheetID)
		case m.state == viewLibrary && len(m.filtered) > 0:
			return m, m.deleteSheet(m.filtered[m.cursor].ID)
		}
	}

	// Everything else scrolls the sheet viewport
	if m.state == viewSheet {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) handleSearchInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		return m, nil
	case "enter":
		query := m.input.Value()
		if query == "" {
			return m, nil
		}
		m.input.Blur()
		m.searching = true
		return m, tea.Batch(m.runSearch(query), m.spin.Tick)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	switch m.state {
	case viewLibrary:
		m.cursor = clamp(m.cursor+delta, 0, len(m.filtered)-1)
	case viewSearch:
		m.resultCursor = clamp(m.resultCursor+delta, 0, len(m.results)-1)
	}
}

func (m Model) openSelection() (tea.Model, tea.Cmd) {
	switch m.state {
	case viewLibrary:
		if len(m.filtered) == 0 {
			return m, nil
		}
		return m, m.openSaved(m.filtered[m.cursor].Sheet)
	case viewSearch:
		if len(m.results) == 0 {
			return m, nil
		}
		m.searching = true
		return m, tea.Batch(m.openSong(m.results[m.resultCursor]), m.spin.Tick)
	}
	return m, nil
}

func (m *Model) applyFilter() {
	if m.filterIdx == nil {
		m.filtered = nil
		m.cursor = 0
		return
	}
	m.filtered = m.filterIdx.Filter(m.filter.Value())
	m.cursor = clamp(m.cursor, 0, len(m.filtered)-1)
}

func filterItems(sheets []domain.ChordSheet) []service.FilterItem {
	items := make([]service.FilterItem, len(sheets))
	for i, sheet := range sheets {
		items[i] = service.FilterItem{
			Sheet: sheet,
			ID:    cachekey.Generate(sheet.Artist, sheet.Title),
			Title: sheet.DisplayTitle(),
		}
	}
	return items
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

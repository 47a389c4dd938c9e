package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/capoapp/capo/internal/domain"
	"github.com/capoapp/capo/internal/tui/styles"
)

func (m Model) View() string {
	var body string
	switch m.state {
	case viewLibrary:
		body = m.libraryView()
	case viewSearch:
		body = m.searchView()
	case viewSheet:
		body = m.sheetView()
	}
	return body + "\n" + m.statusBar()
}

func (m Model) libraryView() string {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render("My Chord Sheets"))
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.filtered) == 0 {
		if m.filter.Value() != "" {
			b.WriteString(styles.DimStyle.Render("No matches."))
		} else {
			b.WriteString(styles.DimStyle.Render("Nothing saved yet. Press 's' to search for songs."))
		}
		b.WriteString("\n")
		return b.String()
	}

	visible := visibleRange(m.cursor, len(m.filtered), m.listHeight())
	for i := visible.start; i < visible.end; i++ {
		sheet := m.filtered[i].Sheet
		line := sheet.DisplayTitle()
		if i == m.cursor {
			b.WriteString(styles.SelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render("Search"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.spin.View())
		b.WriteString(styles.DimStyle.Render(" searching..."))
		b.WriteString("\n")
		return b.String()
	}

	if len(m.results) == 0 {
		b.WriteString(styles.DimStyle.Render("Type a song or artist name and press enter."))
		b.WriteString("\n")
		return b.String()
	}

	visible := visibleRange(m.resultCursor, len(m.results), m.listHeight())
	for i := visible.start; i < visible.end; i++ {
		song := m.results[i]
		line := song.DisplayTitle()
		if rating := song.RatingLabel(); rating != "" {
			line += "  " + styles.DimStyle.Render(rating)
		}
		if i == m.resultCursor {
			b.WriteString(styles.SelectedStyle.Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) sheetView() string {
	if m.sheet == nil {
		return styles.DimStyle.Render("No sheet loaded.")
	}
	header := m.sheetHeader()
	return header + "\n" + m.viewport.View()
}

func (m Model) sheetHeader() string {
	title := styles.TitleStyle.Render(m.sheet.DisplayTitle())
	meta := sheetMeta(m.sheet)
	if m.sheets.IsSaved(m.sheetID) {
		meta += "  " + styles.SuccessStyle.Render("● saved")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, styles.SubtitleStyle.Render(meta))
}

func sheetMeta(sheet *domain.ChordSheet) string {
	parts := []string{sheet.TuningLabel(), sheet.CapoLabel()}
	if key := sheet.KeyLabel(); key != "" {
		parts = append(parts, key)
	}
	return strings.Join(parts, "  ·  ")
}

func renderSheet(sheet *domain.ChordSheet, width int) string {
	if sheet == nil {
		return ""
	}
	if width <= 0 {
		return sheet.SongChords
	}
	return lipgloss.NewStyle().Width(width).Render(sheet.SongChords)
}

func (m Model) statusBar() string {
	var left string
	switch {
	case m.errMsg != "":
		left = styles.ErrorStyle.Render(m.errMsg)
	case m.statusMsg != "":
		left = styles.SuccessStyle.Render(m.statusMsg)
	default:
		left = styles.DimStyle.Render(m.hints())
	}
	return styles.StatusBarStyle.Render(left)
}

func (m Model) hints() string {
	switch m.state {
	case viewLibrary:
		return "enter: open  /: filter  s: search  d: delete  q: quit"
	case viewSearch:
		return "enter: open  esc: back  q: quit"
	case viewSheet:
		return "a: save/unsave  d: delete  esc: back  q: quit"
	}
	return ""
}

func (m Model) listHeight() int {
	h := m.height - 6
	if h < 1 {
		return 10
	}
	return h
}

type span struct{ start, end int }

// visibleRange keeps the cursor inside the window when the list is taller
// than the screen.
func visibleRange(cursor, total, height int) span {
	if total <= height {
		return span{0, total}
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > total {
		start = total - height
	}
	return span{start, start + height}
}

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ops-board/internal/theme"
)

// Layout holds the terminal dimensions and splits them into a header, a
// content area of side-by-side columns, and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout for the given terminal size with one-line
// header and status bar.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentHeight is the height left for the columns.
func (l Layout) ContentHeight() int {
	return max(0, l.Height-l.HeaderHeight-l.StatusBarHeight)
}

// ColumnWidths splits the width into n columns. The last column takes the
// remainder.
func (l Layout) ColumnWidths(n int) []int {
	if n <= 0 {
		return nil
	}
	widths := make([]int, n)
	each := l.Width / n
	for i := range widths {
		widths[i] = each
	}
	widths[n-1] += l.Width - each*n
	return widths
}

// fill pads rendered out to the full width using the background of style.
func (l Layout) fill(style lipgloss.Style, parts ...string) string {
	used := 0
	for _, p := range parts {
		used += lipgloss.Width(p)
	}
	filler := style.
		Padding(0).
		Width(max(0, l.Width-used)).
		Render("")

	row := make([]string, 0, len(parts)+1)
	if len(parts) > 1 {
		row = append(row, parts[:len(parts)-1]...)
		row = append(row, filler, parts[len(parts)-1])
	} else {
		row = append(row, parts...)
		row = append(row, filler)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, row...)
}

// RenderHeader renders the title on the left and status on the right.
func (l Layout) RenderHeader(title, status string) string {
	return l.fill(theme.HeaderStyle,
		theme.HeaderStyle.Render(title),
		theme.HeaderStyle.Render(status),
	)
}

// RenderStatusBar renders a full-width bar with the given text.
func (l Layout) RenderStatusBar(style lipgloss.Style, text string) string {
	return l.fill(style, style.Render(text))
}

// Compose stacks header, content and status bar.
func (l Layout) Compose(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

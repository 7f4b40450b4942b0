// Package theme holds the board's lipgloss palette and styles.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/scoring"
)

// Palette entries are (dark terminal, light terminal) pairs named for what
// they mark on the board.
var (
	ColorAccent   = lipgloss.AdaptiveColor{Dark: "#7AA2F7", Light: "#2A5DB0"}
	ColorDoer     = lipgloss.AdaptiveColor{Dark: "#73D68F", Light: "#22763F"}
	ColorManager  = lipgloss.AdaptiveColor{Dark: "#F2C94C", Light: "#9A6B00"}
	ColorPlanner  = lipgloss.AdaptiveColor{Dark: "#B392F0", Light: "#6B46C1"}
	ColorUrgent   = lipgloss.AdaptiveColor{Dark: "#F7768E", Light: "#B42336"}
	ColorWarn     = lipgloss.AdaptiveColor{Dark: "#FF9E64", Light: "#B4541A"}
	ColorMuted    = lipgloss.AdaptiveColor{Dark: "#8089A0", Light: "#5F6B7A"}
	ColorText     = lipgloss.AdaptiveColor{Dark: "#E6E9F0", Light: "#161B26"}
	ColorBar      = lipgloss.AdaptiveColor{Dark: "#3B4252", Light: "#D5DAE3"}
	ColorFrame    = lipgloss.AdaptiveColor{Dark: "#434C5E", Light: "#DDE2EA"}
)

var (
	// HeaderStyle is the top bar.
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Background(ColorAccent).Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().Foreground(ColorText).Background(ColorBar).Padding(0, 1)

	// ErrorBarStyle replaces StatusBarStyle while an error is shown.
	ErrorBarStyle = StatusBarStyle.Background(ColorUrgent)

	// PanelStyle frames the help and chase overlays.
	PanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorFrame).Padding(1, 2)

	PanelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorText).MarginBottom(1)

	ColumnStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorFrame).Padding(0, 1)
	FocusedColumnStyle = ColumnStyle.BorderForeground(ColorAccent)

	CardStyle = lipgloss.NewStyle().PaddingLeft(2)

	// SelectedCardStyle draws a left rule next to the card under the cursor.
	SelectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder(), false, false, false, true).
				BorderForeground(ColorAccent).
				Foreground(ColorAccent).
				Bold(true).
				PaddingLeft(1)

	HintStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	// StaleStyle marks tasks that have not moved for more than 72 hours.
	StaleStyle = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
)

// BucketStyle returns the column title style for a view.
func BucketStyle(b scoring.Bucket) lipgloss.Style {
	title := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch b {
	case scoring.BucketDoer:
		return title.Foreground(ColorDoer)
	case scoring.BucketManager:
		return title.Foreground(ColorManager)
	}
	return title.Foreground(ColorPlanner)
}

// StatusStyle colors a status label with the color of the view it usually
// lands in.
func StatusStyle(status model.Status) lipgloss.Style {
	var c lipgloss.TerminalColor = ColorMuted
	switch status {
	case model.StatusReady:
		c = ColorDoer
	case model.StatusAwaiting, model.StatusDecisionNeeded:
		c = ColorManager
	case model.StatusPrerequisite, model.StatusInsufficientData:
		c = ColorPlanner
	}
	return lipgloss.NewStyle().Foreground(c)
}

// ScoreStyle colors a priority score by band.
func ScoreStyle(score int) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch {
	case score >= 90:
		return s.Foreground(ColorUrgent)
	case score >= 70:
		return s.Foreground(ColorWarn)
	case score >= 50:
		return s.Foreground(ColorManager)
	}
	return s.Foreground(ColorMuted)
}

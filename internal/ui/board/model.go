// Package board is the terminal board: the three ranked views side by side
// with keyboard actions on the selected task.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/keys"
	"github.com/nhle/ops-board/internal/scoring"
	"github.com/nhle/ops-board/internal/theme"
	"github.com/nhle/ops-board/internal/ui"
)

// Board is the task store the view reads and acts on.
type Board interface {
	Views(now time.Time) scoring.ViewState
	Now() time.Time
	Complete(ctx context.Context, id string) error
	Undo(ctx context.Context, id string) error
	ChaseMessage(id string) (string, error)
}

// Intake is the background mail poller, when one is running.
type Intake interface {
	Results() <-chan intake.Result
	Trigger()
}

var buckets = []scoring.Bucket{scoring.BucketDoer, scoring.BucketManager, scoring.BucketPlanner}

var bucketTitles = map[scoring.Bucket]string{
	scoring.BucketDoer:    "Doer",
	scoring.BucketManager: "Manager",
	scoring.BucketPlanner: "Planner",
}

type viewsLoadedMsg struct {
	views scoring.ViewState
}

type completedMsg struct {
	id   string
	name string
	err  error
}

type undoneMsg struct {
	id  string
	err error
}

type chaseMsg struct {
	name string
	text string
	err  error
}

type intakeMsg struct {
	res intake.Result
}

// Model is the root bubbletea model of the board.
type Model struct {
	board  Board
	intake Intake
	keys   *keys.KeyMap
	help   help.Model
	layout ui.Layout
	ready  bool

	views  scoring.ViewState
	column int
	cursor [3]int

	// completed is the stack of IDs completed in this session, for undo.
	completed []string

	flash    string
	flashErr bool
	showHelp bool

	chaseTitle string
	chaseText  string
}

// Option configures a Model.
type Option func(*Model)

// WithIntake shows intake results as they arrive and lets refresh trigger a
// poll.
func WithIntake(i Intake) Option { return func(m *Model) { m.intake = i } }

// New creates the board view.
func New(b Board, opts ...Option) Model {
	m := Model{
		board:  b,
		keys:   keys.DefaultKeyMap(),
		help:   help.New(),
		layout: ui.NewLayout(80, 24),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the views and starts listening for intake results.
func (m Model) Init() tea.Cmd {
	if m.intake == nil {
		return m.loadViews()
	}
	return tea.Batch(m.loadViews(), m.waitForIntake())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case viewsLoadedMsg:
		m.views = msg.views
		for i, b := range buckets {
			n := len(m.views.Entries(b))
			m.cursor[i] = max(0, min(m.cursor[i], n-1))
		}
		return m, nil

	case completedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.completed = append(m.completed, msg.id)
		m.setFlash(fmt.Sprintf("Completed %q. Press u to undo.", msg.name))
		return m, m.loadViews()

	case undoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setFlash("Task restored.")
		return m, m.loadViews()

	case chaseMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.chaseTitle = msg.name
		m.chaseText = msg.text
		return m, nil

	case intakeMsg:
		switch {
		case msg.res.Err != nil:
			m.setError(fmt.Errorf("mail intake: %w", msg.res.Err))
		case len(msg.res.Added) > 0:
			m.setFlash(fmt.Sprintf("Mail intake added %d task(s).", len(msg.res.Added)))
		}
		return m, tea.Batch(m.loadViews(), m.waitForIntake())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp || m.chaseText != "" {
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Chase) {
			m.showHelp = false
			m.chaseText = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		m.column = max(0, m.column-1)
	case key.Matches(msg, m.keys.Right):
		m.column = min(len(buckets)-1, m.column+1)
	case key.Matches(msg, m.keys.Up):
		m.cursor[m.column] = max(0, m.cursor[m.column]-1)
	case key.Matches(msg, m.keys.Down):
		n := len(m.views.Entries(buckets[m.column]))
		m.cursor[m.column] = max(0, min(n-1, m.cursor[m.column]+1))
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Refresh):
		if m.intake != nil {
			m.intake.Trigger()
			m.setFlash("Checking mail...")
		}
		return m, m.loadViews()
	case key.Matches(msg, m.keys.Complete):
		if e, ok := m.selected(); ok {
			return m, m.complete(e)
		}
	case key.Matches(msg, m.keys.Undo):
		if len(m.completed) == 0 {
			m.setFlash("Nothing to undo.")
			return m, nil
		}
		id := m.completed[len(m.completed)-1]
		m.completed = m.completed[:len(m.completed)-1]
		return m, m.undo(id)
	case key.Matches(msg, m.keys.Chase):
		if e, ok := m.selected(); ok {
			return m, m.chase(e)
		}
	}

	return m, nil
}

func (m *Model) setFlash(s string) {
	m.flash = s
	m.flashErr = false
}

func (m *Model) setError(err error) {
	m.flash = err.Error()
	m.flashErr = true
}

// selected returns the entry under the cursor in the focused column.
func (m Model) selected() (scoring.Entry, bool) {
	entries := m.views.Entries(buckets[m.column])
	i := m.cursor[m.column]
	if i < 0 || i >= len(entries) {
		return scoring.Entry{}, false
	}
	return entries[i], true
}

func (m Model) loadViews() tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return viewsLoadedMsg{views: b.Views(b.Now())}
	}
}

func (m Model) complete(e scoring.Entry) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		err := b.Complete(context.Background(), e.Task.ID)
		return completedMsg{id: e.Task.ID, name: e.Task.TaskName, err: err}
	}
}

func (m Model) undo(id string) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		return undoneMsg{id: id, err: b.Undo(context.Background(), id)}
	}
}

func (m Model) chase(e scoring.Entry) tea.Cmd {
	b := m.board
	return func() tea.Msg {
		text, err := b.ChaseMessage(e.Task.ID)
		return chaseMsg{name: e.Task.TaskName, text: text, err: err}
	}
}

func (m Model) waitForIntake() tea.Cmd {
	if m.intake == nil {
		return nil
	}
	ch := m.intake.Results()
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return intakeMsg{res: res}
	}
}

// View renders the board.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	counts := make([]string, 0, len(buckets))
	for _, b := range buckets {
		counts = append(counts, fmt.Sprintf("%d %s", len(m.views.Entries(b)), strings.ToLower(bucketTitles[b])))
	}
	header := m.layout.RenderHeader("opsboard", strings.Join(counts, "  "))

	var content string
	switch {
	case m.showHelp:
		m.help.ShowAll = true
		content = m.renderPanel("Keyboard Shortcuts", m.help.View(m.keys))
	case m.chaseText != "":
		content = m.renderPanel("Chase: "+m.chaseTitle, m.chaseText+"\n\n"+theme.HintStyle.Render("esc to close"))
	default:
		content = m.renderColumns()
	}

	statusStyle := theme.StatusBarStyle
	status := m.flash
	if m.flashErr {
		statusStyle = theme.ErrorBarStyle
	}
	if status == "" {
		status = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	return m.layout.Compose(header, content, m.layout.RenderStatusBar(statusStyle, status))
}

func (m Model) renderPanel(title, body string) string {
	t := theme.PanelTitleStyle.Render(title)
	return theme.PanelStyle.
		Width(max(0, m.layout.Width-2)).
		Height(max(0, m.layout.ContentHeight()-2)).
		Render(lipgloss.JoinVertical(lipgloss.Left, t, body))
}

func (m Model) renderColumns() string {
	widths := m.layout.ColumnWidths(len(buckets))
	height := m.layout.ContentHeight()

	cols := make([]string, len(buckets))
	for i, b := range buckets {
		style := theme.ColumnStyle
		if i == m.column {
			style = theme.FocusedColumnStyle
		}
		// Border and padding take two columns on each side.
		inner := max(0, widths[i]-4)
		cols[i] = style.
			Width(widths[i] - 2).
			Height(max(0, height-2)).
			Render(m.renderColumn(i, b, inner, max(0, height-3)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(col int, b scoring.Bucket, width, rows int) string {
	entries := m.views.Entries(b)
	lines := []string{theme.BucketStyle(b).Render(fmt.Sprintf("%s (%d)", bucketTitles[b], len(entries)))}

	if len(entries) == 0 {
		lines = append(lines, theme.HintStyle.Render("  nothing here"))
		return strings.Join(lines, "\n")
	}

	start := 0
	if m.cursor[col] >= rows {
		start = m.cursor[col] - rows + 1
	}
	end := min(len(entries), start+rows)

	for i := start; i < end; i++ {
		lines = append(lines, renderCard(entries[i], width, col == m.column && i == m.cursor[col]))
	}
	return strings.Join(lines, "\n")
}

func renderCard(e scoring.Entry, width int, selected bool) string {
	score := theme.ScoreStyle(e.Score).Render(fmt.Sprintf("%3d", e.Score))
	marker := ""
	if e.Bucket != scoring.BucketDoer {
		// Manager and planner columns mix statuses.
		marker = " " + theme.StatusStyle(e.Task.Status).Render(string(e.Task.Status))
	}
	if e.IsStale {
		marker += " " + theme.StaleStyle.Render("stale")
	}

	room := max(1, width-lipgloss.Width(score)-lipgloss.Width(marker)-3)
	name := intake.Condense(e.Task.TaskName, room)
	line := score + " " + name + marker

	if selected {
		return theme.SelectedCardStyle.Render(line)
	}
	return theme.CardStyle.Render(line)
}

package board

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opsboard "github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/store"
)

var testNow = time.Date(2026, time.October, 18, 10, 30, 0, 0, time.UTC)

func newTestBoard(t *testing.T, tasks ...model.Task) *opsboard.Board {
	t.Helper()
	n := 0
	b, err := opsboard.Open(context.Background(), store.NewMemoryStore(),
		opsboard.WithClock(func() time.Time { return testNow }),
		opsboard.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	require.NoError(t, err)
	for _, task := range tasks {
		_, err := b.AddTask(context.Background(), task, model.TaskMeta{})
		require.NoError(t, err)
	}
	return b
}

func press(k string) tea.KeyMsg {
	switch k {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// step feeds msg to m and runs the resulting command chain until it settles.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for msg != nil {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			break
		}
		msg = cmd()
	}
	return m
}

func loaded(t *testing.T, b *opsboard.Board) Model {
	t.Helper()
	m := New(b)
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	return step(t, m, m.Init()())
}

func TestModel_LoadsAndRendersColumns(t *testing.T) {
	b := newTestBoard(t,
		model.Task{TaskName: "Publish newsletter", Status: model.StatusReady},
		model.Task{TaskName: "Wait for agency", Status: model.StatusAwaiting},
	)
	m := loaded(t, b)

	assert.Len(t, m.views.Doer, 1)
	assert.Len(t, m.views.Manager, 1)

	out := m.View()
	assert.Contains(t, out, "Doer (1)")
	assert.Contains(t, out, "Manager (1)")
	assert.Contains(t, out, "Planner (0)")
	assert.Contains(t, out, "Publish newsletter")
}

func TestModel_Navigation(t *testing.T) {
	b := newTestBoard(t,
		model.Task{TaskName: "A", Status: model.StatusReady},
		model.Task{TaskName: "B", Status: model.StatusReady},
	)
	m := loaded(t, b)

	m = step(t, m, press("h"))
	assert.Equal(t, 0, m.column)

	m = step(t, m, press("j"))
	m = step(t, m, press("j"))
	assert.Equal(t, 1, m.cursor[0])

	m = step(t, m, press("l"))
	m = step(t, m, press("l"))
	m = step(t, m, press("l"))
	assert.Equal(t, 2, m.column)

	_, ok := m.selected()
	assert.False(t, ok)
}

func TestModel_CompleteAndUndo(t *testing.T) {
	b := newTestBoard(t, model.Task{TaskName: "Send invoice", Status: model.StatusReady})
	m := loaded(t, b)

	m = step(t, m, press("c"))

	assert.True(t, b.State().IsDone("id-1"))
	assert.Empty(t, m.views.Doer)
	assert.Contains(t, m.flash, "Send invoice")

	m = step(t, m, press("u"))

	assert.False(t, b.State().IsDone("id-1"))
	assert.Len(t, m.views.Doer, 1)

	m = step(t, m, press("u"))
	assert.Equal(t, "Nothing to undo.", m.flash)
}

func TestModel_ChaseOverlay(t *testing.T) {
	b := newTestBoard(t, model.Task{TaskName: "Print quote", Status: model.StatusAwaiting})
	m := loaded(t, b)

	m = step(t, m, press("l"))
	m = step(t, m, press("m"))

	assert.Equal(t, "Print quote", m.chaseTitle)
	assert.Contains(t, m.chaseText, "regarding Print quote")
	assert.Contains(t, m.View(), "Chase: Print quote")

	// Actions are ignored while the overlay is open.
	m = step(t, m, press("c"))
	assert.False(t, b.State().IsDone("id-1"))

	m = step(t, m, press("esc"))
	assert.Empty(t, m.chaseText)
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, newTestBoard(t))

	_, cmd := m.Update(press("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

type fakeIntake struct {
	ch        chan intake.Result
	triggered int
}

func (f *fakeIntake) Results() <-chan intake.Result { return f.ch }
func (f *fakeIntake) Trigger()                      { f.triggered++ }

func TestModel_IntakeResults(t *testing.T) {
	b := newTestBoard(t)
	fi := &fakeIntake{ch: make(chan intake.Result, 1)}
	m := New(b, WithIntake(fi))
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})

	_, err := b.AddTask(context.Background(), model.Task{TaskName: "From mail", Status: model.StatusReady}, model.TaskMeta{})
	require.NoError(t, err)

	fi.ch <- intake.Result{Added: []model.Task{{ID: "id-1"}}}
	msg := m.waitForIntake()()
	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, "Mail intake added 1 task(s).", m.flash)

	m = step(t, m, m.loadViews()())
	assert.Len(t, m.views.Doer, 1)

	m = step(t, m, press("r"))
	assert.Equal(t, 1, fi.triggered)
}

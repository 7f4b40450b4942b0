// Package board owns the task list, completion set and per-task metadata,
// and keeps them persisted. Every mutation is applied to a copy of the
// current state, saved, and only then made visible.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/reminder"
	"github.com/nhle/ops-board/internal/scoring"
	"github.com/nhle/ops-board/internal/store"
)

// Storage keys for the board document and the selected model.
const (
	StateKey = "opsboard:state"
	ModelKey = "opsboard:model"
)

var (
	// ErrTaskNotFound is returned when an operation names an unknown task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyTaskName is returned when a manual task has no name.
	ErrEmptyTaskName = errors.New("task name must not be empty")

	// ErrInvalidDocument is returned when an imported board does not parse.
	ErrInvalidDocument = errors.New("invalid board document")

	// ErrInvalidPatch is returned when an update carries an unusable value.
	ErrInvalidPatch = errors.New("invalid task update")
)

// Board is the task store. It is safe for concurrent use.
type Board struct {
	mu    sync.Mutex
	kv    store.KV
	log   zerolog.Logger
	now   func() time.Time
	newID func() string

	state        model.AppState
	model        string
	defaultModel string
}

// Option configures a Board.
type Option func(*Board)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithIDGenerator overrides how fresh task IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) { b.newID = fn }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Board) { b.log = l.With().Str("component", "board").Logger() }
}

// WithDefaultModel sets the model reported until one is selected.
func WithDefaultModel(name string) Option {
	return func(b *Board) { b.defaultModel = name }
}

// Open loads the board persisted in kv. A document that cannot be parsed is
// logged and replaced by an empty board in memory; it is not overwritten
// until the next successful mutation. Duplicate task IDs are repaired and the
// repaired document saved.
func Open(ctx context.Context, kv store.KV, opts ...Option) (*Board, error) {
	b := &Board{
		kv:           kv,
		log:          zerolog.Nop(),
		now:          time.Now,
		newID:        newUUID,
		state:        model.NewAppState(),
		defaultModel: model.DefaultModel,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.model = b.defaultModel

	if err := b.load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Board) load(ctx context.Context) error {
	entry, err := b.kv.GetRaw(ctx, StateKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.log.Debug().Msg("no saved board, starting empty")
	case err != nil:
		return fmt.Errorf("loading board: %w", err)
	default:
		state, err := decodeState(entry.Value)
		if err != nil {
			b.log.Warn().Err(err).Msg("saved board is unreadable, starting empty")
			break
		}

		if n := repairIDs(&state, b.newID); n > 0 {
			b.log.Info().Int("repaired", n).Msg("re-keyed tasks with duplicate ids")
			if err := b.kv.Set(ctx, StateKey, state); err != nil {
				return fmt.Errorf("saving repaired board: %w", err)
			}
		}
		b.state = state
	}

	var selected string
	err = b.kv.Get(ctx, ModelKey, &selected)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		b.log.Warn().Err(err).Msg("saved model selection is unreadable, using default")
	case selected != "":
		b.model = selected
	}

	return nil
}

func decodeState(data []byte) (model.AppState, error) {
	var state model.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.AppState{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	state.Normalize()
	for i := range state.Tasks {
		if state.Tasks[i].NextActions == nil {
			state.Tasks[i].NextActions = []string{}
		}
	}
	return state, nil
}

// mutate applies fn to a copy of the state, persists the result and swaps it
// in. If fn or the save fails the board is left unchanged.
func (b *Board) mutate(ctx context.Context, fn func(s *model.AppState) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	if err := b.kv.Set(ctx, StateKey, next); err != nil {
		return fmt.Errorf("saving board: %w", err)
	}

	b.state = next
	return nil
}

// State returns a copy of the whole board.
func (b *Board) State() model.AppState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Clone()
}

// Task returns the task with the given ID and its metadata (nil when the
// task has none).
func (b *Board) Task(id string) (model.Task, *model.TaskMeta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.state.TaskByID(id)
	if !ok {
		return model.Task{}, nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	var meta *model.TaskMeta
	if m, ok := b.state.Meta[id]; ok {
		c := m.Clone()
		meta = &c
	}
	return t.Clone(), meta, nil
}

// Views ranks the active tasks as of now.
func (b *Board) Views(now time.Time) scoring.ViewState {
	s := b.State()
	return scoring.BuildViews(s.Tasks, s.DoneSet(), s.Meta, now)
}

// ActiveTasks returns the tasks that are not completed.
func (b *Board) ActiveTasks() []model.Task {
	return b.State().ActiveTasks()
}

// AddTasks appends analysis drafts. Every draft gets a fresh ID, drafts whose
// name matches an existing task are dropped, and each added task starts with
// empty metadata. It returns the tasks actually added.
func (b *Board) AddTasks(ctx context.Context, drafts []model.Task) ([]model.Task, error) {
	var added []model.Task

	err := b.mutate(ctx, func(s *model.AppState) error {
		names := make(map[string]bool, len(s.Tasks))
		for _, t := range s.Tasks {
			names[t.TaskName] = true
		}

		g := newIDGuard(b.newID, s.Tasks)
		created := model.TimestampOf(b.now())

		for _, d := range drafts {
			if names[d.TaskName] {
				b.log.Debug().Str("task", d.TaskName).Msg("skipping duplicate draft")
				continue
			}

			t := d.Clone()
			t.ID, _ = g.claim("")
			if t.CreatedAt.IsZero() {
				t.CreatedAt = created
			}
			if t.NextActions == nil {
				t.NextActions = []string{}
			}

			s.Tasks = append(s.Tasks, t)
			s.Meta[t.ID] = model.TaskMeta{}
			added = append(added, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.log.Info().Int("drafts", len(drafts)).Int("added", len(added)).Msg("added tasks")
	return added, nil
}

// AddTask appends a single hand-entered task with its metadata. The task
// keeps its ID unless it is empty or already in use.
func (b *Board) AddTask(ctx context.Context, task model.Task, meta model.TaskMeta) (model.Task, error) {
	if strings.TrimSpace(task.TaskName) == "" {
		return model.Task{}, ErrEmptyTaskName
	}

	var added model.Task
	err := b.mutate(ctx, func(s *model.AppState) error {
		t := task.Clone()
		t.ID, _ = newIDGuard(b.newID, s.Tasks).claim(t.ID)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = model.TimestampOf(b.now())
		}
		if t.NextActions == nil {
			t.NextActions = []string{}
		}

		s.Tasks = append(s.Tasks, t)
		s.Meta[t.ID] = meta.Clone()
		added = t
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}

	b.log.Info().Str("id", added.ID).Msg("added task")
	return added, nil
}

// TaskPatch changes the editable task fields. Nil fields are left alone.
type TaskPatch struct {
	TaskName *string       `json:"taskName,omitempty"`
	Status   *model.Status `json:"status,omitempty"`
}

// MetaPatch replaces metadata fields. Nil fields are left alone; an empty
// Due clears the due date.
type MetaPatch struct {
	Due           *string        `json:"due,omitempty"`
	Channel       *model.Channel `json:"channel,omitempty"`
	EstMin        *int           `json:"estMin,omitempty"`
	DependsOn     *string        `json:"dependsOn,omitempty"`
	DependencyIDs *[]string      `json:"dependencyIds,omitempty"`
	Note          *string        `json:"note,omitempty"`
	Links         *[]model.Link  `json:"links,omitempty"`
}

func (p MetaPatch) apply(m *model.TaskMeta) error {
	if p.Due != nil {
		if *p.Due == "" {
			m.Due = nil
		} else {
			d, err := model.ParseDate(*p.Due)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPatch, err)
			}
			m.Due = &d
		}
	}
	if p.Channel != nil {
		m.Channel = *p.Channel
	}
	if p.EstMin != nil {
		m.EstMin = *p.EstMin
	}
	if p.DependsOn != nil {
		m.DependsOn = *p.DependsOn
	}
	if p.DependencyIDs != nil {
		m.DependencyIDs = append([]string(nil), (*p.DependencyIDs)...)
	}
	if p.Note != nil {
		m.Note = *p.Note
	}
	if p.Links != nil {
		m.Links = append([]model.Link(nil), (*p.Links)...)
	}
	return nil
}

// UpdateTask edits a task and its metadata. Any edit counts as a refresh:
// lastUpdated is set to now.
func (b *Board) UpdateTask(ctx context.Context, id string, tp TaskPatch, mp MetaPatch) (model.Task, error) {
	if tp.TaskName != nil && strings.TrimSpace(*tp.TaskName) == "" {
		return model.Task{}, ErrEmptyTaskName
	}

	var updated model.Task
	err := b.mutate(ctx, func(s *model.AppState) error {
		idx := -1
		for i := range s.Tasks {
			if s.Tasks[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}

		if tp.TaskName != nil {
			s.Tasks[idx].TaskName = *tp.TaskName
		}
		if tp.Status != nil {
			s.Tasks[idx].Status = *tp.Status
		}

		meta := s.Meta[id]
		if err := mp.apply(&meta); err != nil {
			return err
		}
		touched := model.TimestampOf(b.now())
		meta.LastUpdated = &touched
		s.Meta[id] = meta

		updated = s.Tasks[idx]
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

// Complete marks a task done. Completing a done task is a no-op.
func (b *Board) Complete(ctx context.Context, id string) error {
	return b.mutate(ctx, func(s *model.AppState) error {
		if _, ok := s.TaskByID(id); !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		if !s.IsDone(id) {
			s.DoneIDs = append(s.DoneIDs, id)
		}
		return nil
	})
}

// Undo moves a completed task back to the active set.
func (b *Board) Undo(ctx context.Context, id string) error {
	return b.mutate(ctx, func(s *model.AppState) error {
		if _, ok := s.TaskByID(id); !ok {
			return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		kept := s.DoneIDs[:0]
		for _, done := range s.DoneIDs {
			if done != id {
				kept = append(kept, done)
			}
		}
		s.DoneIDs = kept
		return nil
	})
}

// Reset empties the board. The model selection is kept.
func (b *Board) Reset(ctx context.Context) error {
	err := b.mutate(ctx, func(s *model.AppState) error {
		*s = model.NewAppState()
		return nil
	})
	if err == nil {
		b.log.Info().Msg("board reset")
	}
	return err
}

// Import replaces the board with the document read from r. Duplicate IDs in
// the document are repaired. A document that does not parse leaves the board
// untouched.
func (b *Board) Import(ctx context.Context, r io.Reader) (model.AppState, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.AppState{}, fmt.Errorf("reading import: %w", err)
	}

	incoming, err := decodeState(data)
	if err != nil {
		return model.AppState{}, err
	}
	repaired := repairIDs(&incoming, b.newID)

	err = b.mutate(ctx, func(s *model.AppState) error {
		*s = incoming
		return nil
	})
	if err != nil {
		return model.AppState{}, err
	}

	b.log.Info().Int("tasks", len(incoming.Tasks)).Int("repaired", repaired).Msg("imported board")
	return incoming.Clone(), nil
}

// Export writes the board as indented JSON.
func (b *Board) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b.State()); err != nil {
		return fmt.Errorf("exporting board: %w", err)
	}
	return nil
}

// ExportFilename is the suggested file name for an export taken at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("ops_backup_%s.json", now.Format("2006-01-02"))
}

// Model returns the selected analysis model.
func (b *Board) Model() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.model
}

// SetModel selects and persists the analysis model.
func (b *Board) SetModel(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("model name must not be empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.kv.Set(ctx, ModelKey, name); err != nil {
		return fmt.Errorf("saving model selection: %w", err)
	}
	b.model = name
	return nil
}

// ChaseMessage builds the chase text for a waiting task.
func (b *Board) ChaseMessage(id string) (string, error) {
	t, meta, err := b.Task(id)
	if err != nil {
		return "", err
	}
	return reminder.ChaseMessage(t.TaskName, reminder.DaysWaiting(meta, b.now())), nil
}

// RemindMessage builds a reminder for a task in the given tone.
func (b *Board) RemindMessage(id string, tone model.Tone) (string, error) {
	t, _, err := b.Task(id)
	if err != nil {
		return "", err
	}
	return reminder.RemindMessage(t.TaskName, tone), nil
}

// Now returns the board's clock reading.
func (b *Board) Now() time.Time {
	return b.now()
}

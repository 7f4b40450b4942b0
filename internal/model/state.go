package model

// AppState is the whole persisted board document.
type AppState struct {
	Tasks   []Task              `json:"tasks"`
	DoneIDs []string            `json:"doneIds"`
	Meta    map[string]TaskMeta `json:"meta"`
}

// NewAppState returns an empty board with non-nil collections.
func NewAppState() AppState {
	return AppState{
		Tasks:   []Task{},
		DoneIDs: []string{},
		Meta:    map[string]TaskMeta{},
	}
}

// Normalize replaces nil collections with empty ones so the state always
// serializes with arrays and objects instead of nulls.
func (s *AppState) Normalize() {
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	if s.DoneIDs == nil {
		s.DoneIDs = []string{}
	}
	if s.Meta == nil {
		s.Meta = map[string]TaskMeta{}
	}
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	c := AppState{
		Tasks:   make([]Task, len(s.Tasks)),
		DoneIDs: make([]string, len(s.DoneIDs)),
		Meta:    make(map[string]TaskMeta, len(s.Meta)),
	}
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	copy(c.DoneIDs, s.DoneIDs)
	for id, m := range s.Meta {
		c.Meta[id] = m.Clone()
	}
	return c
}

// DoneSet returns the completed IDs as a set.
func (s AppState) DoneSet() map[string]bool {
	done := make(map[string]bool, len(s.DoneIDs))
	for _, id := range s.DoneIDs {
		done[id] = true
	}
	return done
}

// IsDone reports whether id has been completed.
func (s AppState) IsDone(id string) bool {
	for _, done := range s.DoneIDs {
		if done == id {
			return true
		}
	}
	return false
}

// TaskByID returns the task with the given ID and whether it exists.
func (s AppState) TaskByID(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// ActiveTasks returns the tasks that have not been completed, in order.
func (s AppState) ActiveTasks() []Task {
	done := s.DoneSet()
	active := make([]Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		if !done[t.ID] {
			active = append(active, t)
		}
	}
	return active
}

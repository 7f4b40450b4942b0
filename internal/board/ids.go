package board

import (
	"github.com/google/uuid"

	"github.com/nhle/ops-board/internal/model"
)

func newUUID() string {
	return uuid.New().String()
}

// idGuard hands out task IDs that are unique within one board. Every path
// that puts tasks on the board (analysis batches, manual adds, loads and
// imports) goes through claim.
type idGuard struct {
	taken map[string]bool
	newID func() string
}

func newIDGuard(newID func() string, existing []model.Task) *idGuard {
	g := &idGuard{
		taken: make(map[string]bool, len(existing)),
		newID: newID,
	}
	for _, t := range existing {
		g.taken[t.ID] = true
	}
	return g
}

// claim returns id if it is non-empty and unused, otherwise a fresh ID.
// The second result reports whether a fresh ID was minted.
func (g *idGuard) claim(id string) (string, bool) {
	if id != "" && !g.taken[id] {
		g.taken[id] = true
		return id, false
	}
	for {
		fresh := g.newID()
		if fresh != "" && !g.taken[fresh] {
			g.taken[fresh] = true
			return fresh, true
		}
	}
}

// repairIDs gives every task after the first holder of an ID a fresh one.
// Fresh IDs never collide with an ID already present in s. The metadata of
// the original ID is copied under the new key, so each duplicate keeps what
// it had. Returns the number of tasks re-keyed.
func repairIDs(s *model.AppState, newID func() string) int {
	g := newIDGuard(newID, s.Tasks)
	seen := make(map[string]bool, len(s.Tasks))
	repaired := 0

	for i := range s.Tasks {
		old := s.Tasks[i].ID
		if old != "" && !seen[old] {
			seen[old] = true
			continue
		}

		id, _ := g.claim("")
		s.Tasks[i].ID = id
		if m, ok := s.Meta[old]; ok {
			s.Meta[id] = m.Clone()
		} else {
			s.Meta[id] = model.TaskMeta{}
		}
		repaired++
	}

	return repaired
}

package scoring

import (
	"slices"
	"time"

	"github.com/nhle/ops-board/internal/model"
)

// Bucket is the view a scored task is shown in.
type Bucket string

const (
	// BucketDoer holds ready work worth doing now.
	BucketDoer Bucket = "doer"
	// BucketManager holds work that needs chasing or a decision.
	BucketManager Bucket = "manager"
	// BucketPlanner holds everything else.
	BucketPlanner Bucket = "planner"
)

// DoerThreshold is the minimum score for a ready task to count as doer work.
const DoerThreshold = 50

// Entry is an active task together with its score and assigned bucket.
type Entry struct {
	Score   int        `json:"score"`
	IsStale bool       `json:"isStale"`
	Bucket  Bucket     `json:"bucket"`
	Task    model.Task `json:"task"`
}

// ViewState is the ranked board. Enriched holds every active task sorted by
// score; the three buckets partition it and keep its order.
type ViewState struct {
	Enriched []Entry `json:"enriched"`
	Doer     []Entry `json:"doer"`
	Manager  []Entry `json:"manager"`
	Planner  []Entry `json:"planner"`
}

// Classify assigns exactly one bucket to a scored task.
func Classify(status model.Status, score int) Bucket {
	switch {
	case status == model.StatusReady && score >= DoerThreshold:
		return BucketDoer
	case status == model.StatusAwaiting || status == model.StatusDecisionNeeded:
		return BucketManager
	default:
		return BucketPlanner
	}
}

// BuildViews scores every task not in done and groups them into buckets.
// Equal scores keep their input order.
func BuildViews(
	tasks []model.Task,
	done map[string]bool,
	meta map[string]model.TaskMeta,
	now time.Time,
) ViewState {
	enriched := make([]Entry, 0, len(tasks))
	for _, t := range tasks {
		if done[t.ID] {
			continue
		}

		var own *model.TaskMeta
		if m, ok := meta[t.ID]; ok {
			own = &m
		}

		r := Score(t, own, meta, now)
		enriched = append(enriched, Entry{
			Score:   r.Score,
			IsStale: r.IsStale,
			Bucket:  Classify(t.Status, r.Score),
			Task:    t,
		})
	}

	slices.SortStableFunc(enriched, func(a, b Entry) int {
		return b.Score - a.Score
	})

	vs := ViewState{
		Enriched: enriched,
		Doer:     []Entry{},
		Manager:  []Entry{},
		Planner:  []Entry{},
	}
	for _, e := range enriched {
		switch e.Bucket {
		case BucketDoer:
			vs.Doer = append(vs.Doer, e)
		case BucketManager:
			vs.Manager = append(vs.Manager, e)
		default:
			vs.Planner = append(vs.Planner, e)
		}
	}

	return vs
}

// Entries returns the slice for bucket b.
func (vs ViewState) Entries(b Bucket) []Entry {
	switch b {
	case BucketDoer:
		return vs.Doer
	case BucketManager:
		return vs.Manager
	default:
		return vs.Planner
	}
}

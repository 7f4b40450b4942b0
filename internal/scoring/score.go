// Package scoring ranks active tasks and partitions them into the doer,
// manager and planner views. Everything here is pure: the current time is
// always passed in.
package scoring

import (
	"time"

	"github.com/nhle/ops-board/internal/model"
)

const (
	// StaleAfter is how long a task can go without an update before it is
	// considered stale. The comparison is strict.
	StaleAfter = 72 * time.Hour

	MinScore = 0
	MaxScore = 100

	bottleneckBonus  = 15
	staleChaseBonus  = 20
	overdueBonus     = 30
	dueSoonBonus     = 15
	dueThisWeekBonus = 5
	quickWinBonus    = 5
)

// Result is the priority of a single task at a given instant.
type Result struct {
	Score   int  `json:"score"`
	IsStale bool `json:"isStale"`
}

// BaseScore returns the starting score for a status.
func BaseScore(status model.Status) int {
	switch status {
	case model.StatusReady:
		return 70
	case model.StatusAwaiting:
		return 65
	case model.StatusDecisionNeeded:
		return 60
	case model.StatusInsufficientData, model.StatusPrerequisite:
		return 40
	case model.StatusDeferrable:
		return 10
	default:
		return 50
	}
}

// BottleneckCount returns how many other tasks list id in their
// dependencyIds. Each metadata entry counts at most once and a task never
// blocks itself. IDs that do not belong to any task are inert.
func BottleneckCount(id string, allMeta map[string]model.TaskMeta) int {
	count := 0
	for ownerID, meta := range allMeta {
		if ownerID == id {
			continue
		}
		if meta.DependsOnID(id) {
			count++
		}
	}
	return count
}

// IsStale reports whether the task has gone more than StaleAfter without an
// update. lastUpdated wins over createdAt when it is set.
func IsStale(task model.Task, meta *model.TaskMeta, now time.Time) bool {
	effective := task.CreatedAt
	if meta != nil && meta.LastUpdated != nil && !meta.LastUpdated.IsZero() {
		effective = *meta.LastUpdated
	}
	return now.Sub(effective.Time()) > StaleAfter
}

// DaysUntil returns the whole calendar days from the date of now (in now's
// location) to due. Zero means due today, negative means overdue.
func DaysUntil(due model.Date, now time.Time) int {
	return due.DaysSince(model.DateOf(now))
}

func deadlineBonus(due model.Date, now time.Time) int {
	days := DaysUntil(due, now)
	switch {
	case days < 0:
		return overdueBonus
	case days <= 1:
		return dueSoonBonus
	case days <= 3:
		return dueThisWeekBonus
	default:
		return 0
	}
}

func isQuickWin(task model.Task) bool {
	return len(task.NextActions) == 1 && !task.IsEstimated && task.Status == model.StatusReady
}

// Score computes the priority of task. meta is the task's own metadata and
// may be nil; allMeta is the metadata of every task on the board and is used
// for bottleneck detection.
func Score(task model.Task, meta *model.TaskMeta, allMeta map[string]model.TaskMeta, now time.Time) Result {
	score := BaseScore(task.Status)
	score += bottleneckBonus * BottleneckCount(task.ID, allMeta)

	stale := IsStale(task, meta, now)
	if stale && task.Status == model.StatusAwaiting {
		score += staleChaseBonus
	}

	if meta != nil && meta.Due != nil {
		score += deadlineBonus(*meta.Due, now)
	}

	if isQuickWin(task) {
		score += quickWinBonus
	}

	return Result{Score: clamp(score), IsStale: stale}
}

func clamp(score int) int {
	return max(MinScore, min(MaxScore, score))
}

package model

import "time"

// Category is the kind of work a task represents.
type Category string

const (
	CategoryContentAsset         Category = "content-asset"
	CategoryVendorManagement     Category = "vendor-management"
	CategoryInternalCoordination Category = "internal-coordination"
	CategoryReviewDecision       Category = "review-decision"
	CategoryWaitingOnHold        Category = "waiting-on-hold"
)

// Categories returns all known categories in display order.
func Categories() []Category {
	return []Category{
		CategoryContentAsset,
		CategoryVendorManagement,
		CategoryInternalCoordination,
		CategoryReviewDecision,
		CategoryWaitingOnHold,
	}
}

// Label returns a human-readable name for the category.
func (c Category) Label() string {
	switch c {
	case CategoryContentAsset:
		return "Content / asset building"
	case CategoryVendorManagement:
		return "Vendor / agency management"
	case CategoryInternalCoordination:
		return "Internal coordination / data collection"
	case CategoryReviewDecision:
		return "Review / decision"
	case CategoryWaitingOnHold:
		return "Waiting / on hold"
	default:
		return string(c)
	}
}

// Status is the execution readiness of a task. Values outside the known set
// are tolerated; they score with the neutral base and land with the planner.
type Status string

const (
	StatusReady            Status = "ready-to-execute"
	StatusPrerequisite     Status = "prerequisite-needed"
	StatusAwaiting         Status = "awaiting-external-response"
	StatusInsufficientData Status = "insufficient-data"
	StatusDecisionNeeded   Status = "decision-needed"
	StatusDeferrable       Status = "safe-to-defer"
)

// Statuses returns all known statuses in display order.
func Statuses() []Status {
	return []Status{
		StatusReady,
		StatusPrerequisite,
		StatusAwaiting,
		StatusInsufficientData,
		StatusDecisionNeeded,
		StatusDeferrable,
	}
}

// IsKnown reports whether s is one of the defined statuses.
func (s Status) IsKnown() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns a human-readable name for the status.
func (s Status) Label() string {
	switch s {
	case StatusReady:
		return "Ready to execute"
	case StatusPrerequisite:
		return "Prerequisite needed"
	case StatusAwaiting:
		return "Awaiting external response"
	case StatusInsufficientData:
		return "Insufficient data"
	case StatusDecisionNeeded:
		return "Decision needed"
	case StatusDeferrable:
		return "Safe to defer"
	default:
		return string(s)
	}
}

// Timestamp is a point in time stored as epoch milliseconds, the unit used by
// the persisted board document.
type Timestamp int64

// TimestampOf converts t to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts ts back to a time.Time in the local zone.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool {
	return ts == 0
}

// Task is a single unit of marketing-ops work, usually produced by analysis
// of free-form input and occasionally entered by hand.
type Task struct {
	ID                string    `json:"id"`
	OriginalInput     string    `json:"originalInput"`
	TaskName          string    `json:"taskName"`
	Category          Category  `json:"category"`
	Status            Status    `json:"status"`
	BlockReason       string    `json:"blockReason,omitempty"`
	NextActions       []string  `json:"nextActions"`
	SolutionTip       string    `json:"solutionTip,omitempty"`
	IsEstimated       bool      `json:"isEstimated"`
	BasisSummary      string    `json:"basisSummary,omitempty"`
	Options           []string  `json:"options,omitempty"`
	Criteria          []string  `json:"criteria,omitempty"`
	RequiredDataCheck []string  `json:"requiredDataCheck,omitempty"`
	BlogStructure     []string  `json:"blogStructure,omitempty"`
	PlaceCheck        []string  `json:"placeCheck,omitempty"`
	CreatedAt         Timestamp `json:"createdAt"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.NextActions = cloneStrings(t.NextActions)
	c.Options = cloneStrings(t.Options)
	c.Criteria = cloneStrings(t.Criteria)
	c.RequiredDataCheck = cloneStrings(t.RequiredDataCheck)
	c.BlogStructure = cloneStrings(t.BlogStructure)
	c.PlaceCheck = cloneStrings(t.PlaceCheck)
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

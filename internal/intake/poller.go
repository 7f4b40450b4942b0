package intake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/model"
)

// cycleTimeout bounds a single fetch, analyze and add cycle.
const cycleTimeout = 2 * time.Minute

// Analyzer turns input lines into task drafts.
type Analyzer interface {
	Analyze(ctx context.Context, lines []string, existing []model.Task) ([]model.Task, error)
}

// Board receives the analyzed drafts.
type Board interface {
	ActiveTasks() []model.Task
	AddTasks(ctx context.Context, drafts []model.Task) ([]model.Task, error)
	UpdateTask(ctx context.Context, id string, tp board.TaskPatch, mp board.MetaPatch) (model.Task, error)
}

// State is the poller's current activity.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateError   State = "error"
)

// Status describes the last poll.
type Status struct {
	State    State     `json:"state"`
	LastRun  time.Time `json:"lastRun,omitzero"`
	LastErr  string    `json:"lastError,omitempty"`
	Messages int       `json:"messages"`
	Added    int       `json:"added"`
}

// Result is emitted after every cycle.
type Result struct {
	Added []model.Task
	Err   error
}

// Poller periodically turns unread mail into tasks.
type Poller struct {
	src      Source
	analyzer Analyzer
	board    Board
	interval time.Duration
	log      zerolog.Logger

	triggerCh chan struct{}
	resultCh  chan Result

	mu     sync.Mutex
	status Status
}

// NewPoller creates a poller. An interval of zero or less defaults to five
// minutes.
func NewPoller(src Source, analyzer Analyzer, b Board, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		src:       src,
		analyzer:  analyzer,
		board:     b,
		interval:  interval,
		log:       log.With().Str("component", "intake").Logger(),
		triggerCh: make(chan struct{}, 1),
		resultCh:  make(chan Result, 16),
		status:    Status{State: StateIdle},
	}
}

// Run polls once immediately, then on every tick or trigger, until ctx is
// done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		case <-p.triggerCh:
			p.RunOnce(ctx)
		}
	}
}

// Trigger requests an immediate poll. It never blocks.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Results delivers one Result per cycle. Results are dropped when nobody
// reads them.
func (p *Poller) Results() <-chan Result {
	return p.resultCh
}

// Status returns the state of the last poll.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// RunOnce performs a single cycle: fetch unread mail, analyze it, add the
// drafts to the board and mark the mail read. Mail is only marked read once
// its tasks are saved.
func (p *Poller) RunOnce(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()

	p.setState(StateRunning)

	added, messages, err := p.cycle(ctx)

	p.mu.Lock()
	p.status.LastRun = time.Now()
	p.status.Messages = messages
	p.status.Added = len(added)
	if err != nil {
		p.status.State = StateError
		p.status.LastErr = err.Error()
	} else {
		p.status.State = StateIdle
		p.status.LastErr = ""
	}
	p.mu.Unlock()

	if err != nil {
		p.log.Error().Err(err).Msg("intake cycle failed")
	} else if messages > 0 {
		p.log.Info().Int("messages", messages).Int("added", len(added)).Msg("intake cycle done")
	}

	res := Result{Added: added, Err: err}
	select {
	case p.resultCh <- res:
	default:
	}
	return res
}

func (p *Poller) cycle(ctx context.Context) ([]model.Task, int, error) {
	messages, err := p.src.FetchUnseen(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching mail: %w", err)
	}
	if len(messages) == 0 {
		return nil, 0, nil
	}

	var lines []string
	uids := make([]uint32, 0, len(messages))
	for _, m := range messages {
		if line := m.Line(); line != "" {
			lines = append(lines, line)
		}
		uids = append(uids, m.UID)
	}
	lines = MergeDuplicates(lines)

	drafts, err := p.analyzer.Analyze(ctx, lines, p.board.ActiveTasks())
	if err != nil {
		return nil, len(messages), err
	}

	added, err := p.board.AddTasks(ctx, drafts)
	if err != nil {
		return nil, len(messages), fmt.Errorf("adding tasks: %w", err)
	}

	for _, t := range added {
		links := ExtractLinks(t.OriginalInput)
		if len(links) == 0 {
			continue
		}
		if _, err := p.board.UpdateTask(ctx, t.ID, board.TaskPatch{}, board.MetaPatch{Links: &links}); err != nil {
			p.log.Warn().Err(err).Str("id", t.ID).Msg("attaching links")
		}
	}

	if err := p.src.MarkSeen(ctx, uids); err != nil {
		return added, len(messages), fmt.Errorf("marking mail read: %w", err)
	}

	return added, len(messages), nil
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = s
}

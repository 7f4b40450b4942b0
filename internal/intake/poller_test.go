package intake

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/store"
)

type fakeSource struct {
	messages []Message
	fetchErr error
	seen     []uint32
}

func (f *fakeSource) FetchUnseen(context.Context) ([]Message, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.messages, nil
}

func (f *fakeSource) MarkSeen(_ context.Context, uids []uint32) error {
	f.seen = append(f.seen, uids...)
	return nil
}

// echoAnalyzer makes one ready task per line, named after the line.
type echoAnalyzer struct {
	err      error
	lines    []string
	existing []model.Task
}

func (e *echoAnalyzer) Analyze(_ context.Context, lines []string, existing []model.Task) ([]model.Task, error) {
	e.lines = lines
	e.existing = existing
	if e.err != nil {
		return nil, e.err
	}
	drafts := make([]model.Task, 0, len(lines))
	for _, l := range lines {
		drafts = append(drafts, model.Task{
			OriginalInput: l,
			TaskName:      l,
			Status:        model.StatusReady,
			NextActions:   []string{"reply"},
		})
	}
	return drafts, nil
}

func newTestBoard(t *testing.T) *board.Board {
	t.Helper()
	n := 0
	b, err := board.Open(context.Background(), store.NewMemoryStore(),
		board.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	require.NoError(t, err)
	return b
}

func TestMessage_Line(t *testing.T) {
	assert.Equal(t, "Quote: Please send the quote", Message{Subject: "Quote", Body: "Please send the\n\nquote"}.Line())
	assert.Equal(t, "Only subject", Message{Subject: " Only  subject "}.Line())
	assert.Equal(t, "only body", Message{Body: "only body"}.Line())
}

func TestPoller_RunOnceAddsTasksAndMarksSeen(t *testing.T) {
	src := &fakeSource{messages: []Message{
		{UID: 7, Subject: "Banner proof", Body: "Proof is at https://cdn.example.com/proof.png please check"},
		{UID: 9, Subject: "banner  PROOF", Body: ""},
		{UID: 11, Subject: "Invoice", Body: "March invoice attached"},
	}}
	an := &echoAnalyzer{}
	b := newTestBoard(t)
	p := NewPoller(src, an, b, time.Hour, zerolog.Nop())

	res := p.RunOnce(context.Background())

	require.NoError(t, res.Err)
	assert.Len(t, res.Added, 3)
	assert.Equal(t, []uint32{7, 9, 11}, src.seen)
	assert.Len(t, b.State().Tasks, 3)

	_, meta, err := b.Task(res.Added[0].ID)
	require.NoError(t, err)
	require.Len(t, meta.Links, 1)
	assert.Equal(t, "https://cdn.example.com/proof.png", meta.Links[0].URL)

	st := p.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, 3, st.Messages)
	assert.Equal(t, 3, st.Added)

	select {
	case r := <-p.Results():
		assert.Len(t, r.Added, 3)
	default:
		t.Fatal("expected a result")
	}
}

func TestPoller_AnalyzeFailureLeavesMailUnread(t *testing.T) {
	src := &fakeSource{messages: []Message{{UID: 1, Subject: "Call venue"}}}
	an := &echoAnalyzer{err: errors.New("quota exceeded")}
	b := newTestBoard(t)
	p := NewPoller(src, an, b, time.Hour, zerolog.Nop())

	res := p.RunOnce(context.Background())

	require.Error(t, res.Err)
	assert.Empty(t, src.seen)
	assert.Empty(t, b.State().Tasks)
	assert.Equal(t, StateError, p.Status().State)
	assert.Contains(t, p.Status().LastErr, "quota exceeded")
}

func TestPoller_FetchFailure(t *testing.T) {
	src := &fakeSource{fetchErr: errors.New("connection refused")}
	p := NewPoller(src, &echoAnalyzer{}, newTestBoard(t), time.Hour, zerolog.Nop())

	res := p.RunOnce(context.Background())

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "fetching mail")
}

func TestPoller_NoMailSkipsAnalysis(t *testing.T) {
	an := &echoAnalyzer{}
	p := NewPoller(&fakeSource{}, an, newTestBoard(t), time.Hour, zerolog.Nop())

	res := p.RunOnce(context.Background())

	require.NoError(t, res.Err)
	assert.Nil(t, an.lines)
}

func TestPoller_PassesActiveTasksAsContext(t *testing.T) {
	ctx := context.Background()
	b := newTestBoard(t)
	kept, err := b.AddTask(ctx, model.Task{TaskName: "Existing"}, model.TaskMeta{})
	require.NoError(t, err)
	done, err := b.AddTask(ctx, model.Task{TaskName: "Finished"}, model.TaskMeta{})
	require.NoError(t, err)
	require.NoError(t, b.Complete(ctx, done.ID))

	an := &echoAnalyzer{}
	p := NewPoller(&fakeSource{messages: []Message{{UID: 1, Subject: "New"}}}, an, b, time.Hour, zerolog.Nop())
	p.RunOnce(ctx)

	require.Len(t, an.existing, 1)
	assert.Equal(t, kept.ID, an.existing[0].ID)
}

func TestPoller_RunStopsWithContext(t *testing.T) {
	src := &fakeSource{}
	p := NewPoller(src, &echoAnalyzer{}, newTestBoard(t), time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(finished)
	}()

	<-p.Results()
	p.Trigger()
	<-p.Results()
	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ops-board/internal/ai"
	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/store"
)

var testNow = time.Date(2026, time.October, 18, 10, 30, 0, 0, time.UTC)

type mockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, lines []string, existing []model.Task) ([]model.Task, error)
	ResolveFunc func(ctx context.Context, task model.Task, rt model.ResolveType) (model.ResolveOutput, error)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, lines []string, existing []model.Task) ([]model.Task, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, lines, existing)
	}
	return nil, nil
}

func (m *mockAnalyzer) Resolve(ctx context.Context, task model.Task, rt model.ResolveType) (model.ResolveOutput, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, task, rt)
	}
	return model.ResolveOutput{}, nil
}

type mockProxy struct {
	body    []byte
	err     error
	lastReq ai.GenerateRequest
}

func (m *mockProxy) Send(_ context.Context, req ai.GenerateRequest) ([]byte, error) {
	m.lastReq = req
	return m.body, m.err
}

type fixedIntake struct{ st intake.Status }

func (f fixedIntake) Status() intake.Status { return f.st }

func newTestBoard(t *testing.T) *board.Board {
	t.Helper()
	n := 0
	b, err := board.Open(context.Background(), store.NewMemoryStore(),
		board.WithClock(func() time.Time { return testNow }),
		board.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	)
	require.NoError(t, err)
	return b
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *board.Board) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := newTestBoard(t)
	return New(b, opts...), b
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAddTaskAndViews(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"task": map[string]any{"taskName": "Write launch post", "status": "ready-to-execute", "nextActions": []string{"x"}},
		"meta": map[string]any{"due": "2026-10-17"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/api/views", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views struct {
		Success bool `json:"success"`
		Doer    []struct {
			Score int `json:"score"`
			Task  struct {
				TaskName string `json:"taskName"`
			} `json:"task"`
		} `json:"doer"`
		Manager []any `json:"manager"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.True(t, views.Success)
	require.Len(t, views.Doer, 1)
	// 70 ready + 30 overdue + 5 quick win, clamped
	assert.Equal(t, 100, views.Doer[0].Score)
	assert.Equal(t, "Write launch post", views.Doer[0].Task.TaskName)
	assert.NotNil(t, views.Manager)
}

func TestAddTask_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tasks", map[string]any{"task": map[string]any{"taskName": ""}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = do(t, s, http.MethodPost, "/api/tasks", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCompleteUndo(t *testing.T) {
	s, b := newTestServer(t)
	task, err := b.AddTask(context.Background(), model.Task{TaskName: "Call printer"}, model.TaskMeta{})
	require.NoError(t, err)
	base := "/api/tasks/" + task.ID

	w := do(t, s, http.MethodPatch, base, map[string]any{
		"task": map[string]any{"status": "awaiting-external-response"},
		"meta": map[string]any{"note": "asked on Monday"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, meta, err := b.Task(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "asked on Monday", meta.Note)
	require.NotNil(t, meta.LastUpdated)

	w = do(t, s, http.MethodPatch, base, map[string]any{"meta": map[string]any{"due": "soon"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, b.State().IsDone(task.ID))

	w = do(t, s, http.MethodPost, base+"/undo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, b.State().IsDone(task.ID))

	w = do(t, s, http.MethodPost, "/api/tasks/missing/complete", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyze(t *testing.T) {
	var gotLines []string
	an := &mockAnalyzer{
		AnalyzeFunc: func(_ context.Context, lines []string, _ []model.Task) ([]model.Task, error) {
			gotLines = lines
			drafts := make([]model.Task, len(lines))
			for i, l := range lines {
				drafts[i] = model.Task{TaskName: l, Status: model.StatusReady}
			}
			return drafts, nil
		},
	}
	s, b := newTestServer(t, WithAnalyzer(an))

	w := do(t, s, http.MethodPost, "/api/tasks/analyze", map[string]string{"text": "- Write post\n1) write  POST\n\n* Call venue"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, []string{"Write post", "Call venue"}, gotLines)
	assert.Len(t, b.State().Tasks, 2)
	assert.EqualValues(t, 2, decode(t, w)["drafts"])

	w = do(t, s, http.MethodPost, "/api/tasks/analyze", map[string]string{"text": "  \n "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyze_FailureDoesNotTouchBoard(t *testing.T) {
	an := &mockAnalyzer{
		AnalyzeFunc: func(context.Context, []string, []model.Task) ([]model.Task, error) {
			return nil, fmt.Errorf("analyzing tasks: %w", &ai.APIError{StatusCode: 403, Message: "denied"})
		},
	}
	s, b := newTestServer(t, WithAnalyzer(an))

	w := do(t, s, http.MethodPost, "/api/tasks/analyze", map[string]string{"text": "Write post"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w)["error"], "API key is invalid")
	assert.Empty(t, b.State().Tasks)
}

func TestAnalyze_NotConfigured(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/tasks/analyze", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestResolve(t *testing.T) {
	an := &mockAnalyzer{
		ResolveFunc: func(_ context.Context, task model.Task, rt model.ResolveType) (model.ResolveOutput, error) {
			return model.ResolveOutput{Title: task.TaskName + " / " + string(rt), DoneCriteria: "done"}, nil
		},
	}
	s, b := newTestServer(t, WithAnalyzer(an))
	task, err := b.AddTask(context.Background(), model.Task{TaskName: "Pick vendor"}, model.TaskMeta{})
	require.NoError(t, err)

	w := do(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/resolve", map[string]string{"type": "decision"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Contains(t, out["markdown"], "# Pick vendor / decision")

	w = do(t, s, http.MethodPost, "/api/tasks/"+task.ID+"/resolve", map[string]string{"type": "poem"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/tasks/nope/resolve", map[string]string{"type": "copy"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChase(t *testing.T) {
	s, b := newTestServer(t)
	waited := model.TimestampOf(testNow.AddDate(0, 0, -1))
	task, err := b.AddTask(context.Background(), model.Task{TaskName: "Vendor invoice"}, model.TaskMeta{LastUpdated: &waited})
	require.NoError(t, err)
	path := "/api/tasks/" + task.ID + "/chase"

	w := do(t, s, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["message"], "regarding Vendor invoice")

	w = do(t, s, http.MethodGet, path+"?tone=email", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Thank you.")

	w = do(t, s, http.MethodGet, path+"?tone=fax", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportImportReset(t *testing.T) {
	s, b := newTestServer(t)
	_, err := b.AddTask(context.Background(), model.Task{TaskName: "Keep me"}, model.TaskMeta{})
	require.NoError(t, err)

	w := do(t, s, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="ops_backup_2026-10-18.json"`, w.Header().Get("Content-Disposition"))
	exported := w.Body.String()

	w = do(t, s, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, b.State().Tasks)

	w = do(t, s, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["tasks"])
	assert.Len(t, b.State().Tasks, 1)

	w = do(t, s, http.MethodPost, "/api/import", "[broken")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, b.State().Tasks, 1)
}

func TestModelRoutes(t *testing.T) {
	s, b := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/model", nil)
	assert.Equal(t, model.DefaultModel, decode(t, w)["model"])

	w = do(t, s, http.MethodPut, "/api/model", map[string]string{"model": "gemini-2.5-pro"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gemini-2.5-pro", b.Model())

	w = do(t, s, http.MethodPut, "/api/model", map[string]string{"model": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIntakeRoute(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/intake", nil)
	assert.Equal(t, false, decode(t, w)["enabled"])

	s, _ = newTestServer(t, WithIntake(fixedIntake{st: intake.Status{State: intake.StateIdle, Added: 2}}))
	w = do(t, s, http.MethodGet, "/api/intake", nil)
	out := decode(t, w)
	assert.Equal(t, true, out["enabled"])
	assert.EqualValues(t, 2, out["status"].(map[string]any)["added"])
}

func TestOpsPlan(t *testing.T) {
	proxy := &mockProxy{body: []byte(`{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}`)}
	s, _ := newTestServer(t, WithProxy(proxy, "gemini-2.0-flash"))

	w := do(t, s, http.MethodPost, "/api/ops-plan", map[string]any{
		"prompt":            "plan my week",
		"systemInstruction": "be brief",
		"responseSchema":    map[string]any{"type": "OBJECT"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(proxy.body), w.Body.String())
	assert.Equal(t, "gemini-2.0-flash", proxy.lastReq.Model)
	assert.Equal(t, "plan my week", proxy.lastReq.Prompt)
	assert.Equal(t, "be brief", proxy.lastReq.SystemInstruction)
	assert.JSONEq(t, `{"type":"OBJECT"}`, string(proxy.lastReq.Schema))

	do(t, s, http.MethodPost, "/api/ops-plan", map[string]any{"modelName": "gemini-2.5-pro", "prompt": "x"})
	assert.Equal(t, "gemini-2.5-pro", proxy.lastReq.Model)
	assert.Empty(t, proxy.lastReq.Schema)
}

func TestOpsPlan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		err    error
		status int
		body   string
	}{
		{"wrong method", http.MethodGet, nil, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"missing key", http.MethodPost, ai.ErrMissingAPIKey, http.StatusInternalServerError, `{"error":"Server Configuration Error"}`},
		{"provider error", http.MethodPost, &ai.APIError{StatusCode: 429, Message: "quota"}, http.StatusTooManyRequests, `{"error":"quota"}`},
		{"transport error", http.MethodPost, errors.New("dial tcp: refused"), http.StatusInternalServerError, `{"error":"dial tcp: refused"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, WithProxy(&mockProxy{err: tt.err}, "m"))

			w := do(t, s, tt.method, "/api/ops-plan", map[string]string{"prompt": "x"})

			assert.Equal(t, tt.status, w.Code)
			if strings.HasPrefix(tt.body, "{") {
				assert.JSONEq(t, tt.body, w.Body.String())
			} else {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ops-board/internal/model"
)

var testNow = time.Date(2026, time.October, 18, 10, 30, 0, 0, time.UTC)

// fakeServer answers generateContent with text wrapped in a candidate and
// records the last request it saw.
type fakeServer struct {
	*httptest.Server
	status  int
	text    string
	rawBody string

	lastPath   string
	lastKey    string
	lastReq    apiRequest
	lastPrompt string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: http.StatusOK}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.lastPath = r.URL.Path
		fs.lastKey = r.Header.Get(apiKeyHeader)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &fs.lastReq)
		if len(fs.lastReq.Contents) > 0 && len(fs.lastReq.Contents[0].Parts) > 0 {
			fs.lastPrompt = fs.lastReq.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(fs.status)
		if fs.rawBody != "" {
			_, _ = io.WriteString(w, fs.rawBody)
			return
		}
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": fs.text}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newTestAnalyzer(fs *fakeServer, key string) *Analyzer {
	client := NewClient(model.AIConfig{BaseURL: fs.URL, TimeoutSec: 5}, func() string { return key })
	return NewAnalyzer(client, func() string { return "gemini-test" }).WithClock(func() time.Time { return testNow })
}

const analyzeReply = `{"tasks":[
	{"id":"task_1","originalInput":"blog post about spring menu","taskName":"Write spring menu post",
	 "category":"content-asset","status":"ready-to-execute","blockReason":"","nextActions":["Draft the headline"],
	 "solutionTip":"Reuse last season's photos","isEstimated":false,"blogStructure":["Intro","Menu","CTA"]},
	{"id":"task_1","originalInput":"print quote?","taskName":"Get print quote",
	 "category":"vendor-management","status":"decision-needed","blockReason":"No budget yet",
	 "solutionTip":"Ask two vendors","isEstimated":true}
]}`

func TestAnalyze_ParsesDrafts(t *testing.T) {
	fs := newFakeServer(t)
	fs.text = analyzeReply
	a := newTestAnalyzer(fs, "secret")

	drafts, err := a.Analyze(context.Background(), []string{"blog post about spring menu", "print quote?"}, nil)
	require.NoError(t, err)

	require.Len(t, drafts, 2)
	assert.Empty(t, drafts[0].ID, "ids are assigned by the board")
	assert.Equal(t, "Write spring menu post", drafts[0].TaskName)
	assert.Equal(t, model.StatusReady, drafts[0].Status)
	assert.Equal(t, []string{"Intro", "Menu", "CTA"}, drafts[0].BlogStructure)
	assert.Equal(t, model.TimestampOf(testNow), drafts[0].CreatedAt)
	assert.NotNil(t, drafts[1].NextActions)
	assert.True(t, drafts[1].IsEstimated)

	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", fs.lastPath)
	assert.Equal(t, "secret", fs.lastKey)
	assert.Equal(t, "application/json", fs.lastReq.GenerationConfig.ResponseMimeType)
	assert.Zero(t, fs.lastReq.GenerationConfig.Temperature)
	require.NotNil(t, fs.lastReq.SystemInstruction)
	assert.Contains(t, fs.lastReq.SystemInstruction.Parts[0].Text, "Never invent facts")
	assert.Contains(t, fs.lastPrompt, "blog post about spring menu\nprint quote?")
	assert.Contains(t, fs.lastPrompt, "(none)")
}

func TestAnalyze_SummarizesAtMostFiftyExistingTasks(t *testing.T) {
	fs := newFakeServer(t)
	fs.text = `{"tasks":[]}`
	a := newTestAnalyzer(fs, "secret")

	existing := make([]model.Task, 60)
	for i := range existing {
		existing[i] = model.Task{TaskName: fmt.Sprintf("task %02d", i), Status: model.StatusAwaiting}
	}

	drafts, err := a.Analyze(context.Background(), []string{"anything"}, existing)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	assert.Contains(t, fs.lastPrompt, "- task 00 (awaiting-external-response)")
	assert.Contains(t, fs.lastPrompt, "- task 49 (awaiting-external-response)")
	assert.NotContains(t, fs.lastPrompt, "task 50")
}

func TestAnalyze_AcceptsFencedJSON(t *testing.T) {
	fs := newFakeServer(t)
	fs.text = "```json\n" + analyzeReply + "\n```"
	a := newTestAnalyzer(fs, "secret")

	drafts, err := a.Analyze(context.Background(), []string{"x"}, nil)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	fs := newFakeServer(t)
	fs.text = "sorry, I cannot help with that"
	a := newTestAnalyzer(fs, "secret")

	_, err := a.Analyze(context.Background(), []string{"x"}, nil)

	require.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, UserMessage(err), "could not be read")
}

func TestAnalyze_NoInputSkipsCall(t *testing.T) {
	fs := newFakeServer(t)
	a := newTestAnalyzer(fs, "secret")

	drafts, err := a.Analyze(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, drafts)
	assert.Empty(t, fs.lastPath)
}

func TestAnalyze_MissingKey(t *testing.T) {
	fs := newFakeServer(t)
	a := newTestAnalyzer(fs, "")

	_, err := a.Analyze(context.Background(), []string{"x"}, nil)

	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Empty(t, fs.lastPath, "no request is made without a key")
	assert.Contains(t, UserMessage(err), "No API key")
}

func TestAnalyze_ProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"invalid key", 400, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`, "API key is invalid"},
		{"forbidden", 403, `{"error":{"code":403,"message":"Permission denied"}}`, "API key is invalid"},
		{"quota", 429, `{"error":{"code":429,"message":"Resource has been exhausted"}}`, "Resource has been exhausted"},
		{"plain body", 502, `bad gateway`, "bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			fs.status = tt.status
			fs.rawBody = tt.body
			a := newTestAnalyzer(fs, "secret")

			_, err := a.Analyze(context.Background(), []string{"x"}, nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, UserMessage(err), tt.message)
		})
	}
}

func TestResolve(t *testing.T) {
	fs := newFakeServer(t)
	fs.text = `{"title":"Spring post","summary":"Outline the post","isEstimated":false,
		"blogOutline":["Headline","TOC","CTA","FAQ"],"decisionTable":["Option A: cheaper"],
		"nextFifteenMinutes":["Write the headline"],"doneCriteria":"Outline reviewed"}`
	a := newTestAnalyzer(fs, "secret")

	out, err := a.Resolve(context.Background(), model.Task{TaskName: "Spring post"}, model.ResolveBlog)
	require.NoError(t, err)

	assert.Equal(t, "Spring post", out.Title)
	assert.Equal(t, []string{"Headline", "TOC", "CTA", "FAQ"}, out.BlogOutline)
	assert.Equal(t, []string{"Option A: cheaper"}, out.DecisionTable)
	assert.Equal(t, "Outline reviewed", out.DoneCriteria)
	assert.Contains(t, fs.lastPrompt, "[Selected task (original text)]\nSpring post\n")
	assert.Contains(t, fs.lastPrompt, "[Requested deliverable type]\nblog")
}

func TestResolve_TruncatesLongInput(t *testing.T) {
	fs := newFakeServer(t)
	fs.text = `{"title":"t","summary":"s","isEstimated":true,"nextFifteenMinutes":[],"doneCriteria":"d"}`
	a := newTestAnalyzer(fs, "secret")

	long := strings.Repeat("가", resolveInputLimit+10)
	_, err := a.Resolve(context.Background(), model.Task{OriginalInput: long, TaskName: "short"}, model.ResolveCopy)
	require.NoError(t, err)

	assert.Contains(t, fs.lastPrompt, strings.Repeat("가", resolveInputLimit)+"\n...(truncated)")
	assert.NotContains(t, fs.lastPrompt, strings.Repeat("가", resolveInputLimit+1))
	assert.NotContains(t, fs.lastPrompt, "short")
}

func TestResolve_RejectsUnknownType(t *testing.T) {
	fs := newFakeServer(t)
	a := newTestAnalyzer(fs, "secret")

	_, err := a.Resolve(context.Background(), model.Task{TaskName: "x"}, model.ResolveType("poem"))

	require.Error(t, err)
	assert.Empty(t, fs.lastPath)
}

func TestClient_SendReturnsRawBody(t *testing.T) {
	fs := newFakeServer(t)
	fs.rawBody = `{"candidates":[],"usageMetadata":{"totalTokenCount":3}}`
	c := NewClient(model.AIConfig{BaseURL: fs.URL}, func() string { return "k" })

	body, err := c.Send(context.Background(), GenerateRequest{Model: "m", Prompt: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, fs.rawBody, string(body))
	assert.Empty(t, fs.lastReq.GenerationConfig.ResponseMimeType, "no schema means free text")
	assert.Nil(t, fs.lastReq.SystemInstruction)

	_, err = c.Generate(context.Background(), GenerateRequest{Model: "m", Prompt: "hi"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

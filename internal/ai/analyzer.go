// Package ai turns free-form work notes into structured task drafts and
// produces ready-to-use deliverables for a single task, using Gemini.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/ops-board/internal/model"
)

// Analyzer runs the analyze and resolve prompts against a Generator.
type Analyzer struct {
	gen   Generator
	model func() string
	now   func() time.Time
}

// NewAnalyzer creates an analyzer. modelName is consulted on every call so
// a changed model selection takes effect immediately.
func NewAnalyzer(gen Generator, modelName func() string) *Analyzer {
	return &Analyzer{gen: gen, model: modelName, now: time.Now}
}

// WithClock overrides the clock used to stamp drafts.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

type analyzeResponse struct {
	Tasks []model.Task `json:"tasks"`
}

// Analyze converts input lines into task drafts. existing should be the
// board's active tasks; it is summarized in the prompt so the model can spot
// duplicates. Drafts come back without IDs; the board assigns them.
func (a *Analyzer) Analyze(ctx context.Context, lines []string, existing []model.Task) ([]model.Task, error) {
	if len(lines) == 0 {
		return []model.Task{}, nil
	}

	text, err := a.gen.Generate(ctx, GenerateRequest{
		Model:             a.model(),
		Prompt:            analyzePrompt(lines, existing),
		SystemInstruction: analyzeSystem,
		Schema:            analyzeSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing tasks: %w", err)
	}

	var resp analyzeResponse
	if err := decodeJSON(text, &resp); err != nil {
		return nil, fmt.Errorf("analyzing tasks: %w", err)
	}
	if resp.Tasks == nil {
		return nil, fmt.Errorf("analyzing tasks: %w: missing tasks", ErrMalformedResponse)
	}

	created := model.TimestampOf(a.now())
	drafts := make([]model.Task, 0, len(resp.Tasks))
	for _, t := range resp.Tasks {
		t.ID = ""
		t.CreatedAt = created
		if t.NextActions == nil {
			t.NextActions = []string{}
		}
		drafts = append(drafts, t)
	}
	return drafts, nil
}

// Resolve produces a deliverable of the given type for task.
func (a *Analyzer) Resolve(ctx context.Context, task model.Task, rt model.ResolveType) (model.ResolveOutput, error) {
	if !rt.IsValid() {
		return model.ResolveOutput{}, fmt.Errorf("unknown resolve type %q", rt)
	}

	text, err := a.gen.Generate(ctx, GenerateRequest{
		Model:             a.model(),
		Prompt:            resolvePrompt(task, rt),
		SystemInstruction: resolveSystem,
		Schema:            resolveSchema,
	})
	if err != nil {
		return model.ResolveOutput{}, fmt.Errorf("resolving task: %w", err)
	}

	var out model.ResolveOutput
	if err := decodeJSON(text, &out); err != nil {
		return model.ResolveOutput{}, fmt.Errorf("resolving task: %w", err)
	}
	return out, nil
}

// decodeJSON parses text, retrying once with Markdown code fences removed.
func decodeJSON(text string, dest any) error {
	if err := json.Unmarshal([]byte(text), dest); err == nil {
		return nil
	}

	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), dest); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// UserMessage turns an analyze or resolve failure into text fit for the
// person at the keyboard.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "No API key is configured. Run `opsboard key set` or set GEMINI_API_KEY."
	case errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403 ||
		strings.Contains(apiErr.Message, "API key")):
		return "The API key is invalid. Check it with `opsboard key set`."
	case errors.As(err, &apiErr):
		return "The model provider returned an error: " + apiErr.Message
	case errors.Is(err, ErrMalformedResponse):
		return "The model returned a response that could not be read. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request to the model timed out. Please try again."
	default:
		return err.Error()
	}
}

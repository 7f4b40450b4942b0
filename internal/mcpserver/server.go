// Package mcpserver exposes the board as MCP tools so assistants can read the
// ranked views and act on tasks.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
	"github.com/nhle/ops-board/internal/scoring"
)

// Analyzer turns notes into drafts and resolves tasks into deliverables.
type Analyzer interface {
	Analyze(ctx context.Context, lines []string, existing []model.Task) ([]model.Task, error)
	Resolve(ctx context.Context, task model.Task, rt model.ResolveType) (model.ResolveOutput, error)
}

// NewServer creates an MCP server over b. The analyze and resolve tools are
// only registered when an analyzer is given.
func NewServer(b *board.Board, analyzer Analyzer, version string) *server.MCPServer {
	s := server.NewMCPServer("opsboard", version)

	s.AddTool(mcp.NewTool("get_views",
		mcp.WithDescription("List active tasks ranked by priority score, grouped into doer, manager and planner views."),
		mcp.WithString("bucket", mcp.Description("Only return one view (doer|manager|planner)")),
	), getViewsHandler(b))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a task and its metadata by ID."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), getTaskHandler(b))

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Add a task by hand. Tasks whose name is already on the board are still added."),
		mcp.WithString("name", mcp.Description("Task name"), mcp.Required()),
		mcp.WithString("status", mcp.Description("Status (ready-to-execute|prerequisite-needed|awaiting-external-response|insufficient-data|decision-needed|safe-to-defer)")),
		mcp.WithString("category", mcp.Description("Category (content-asset|vendor-management|internal-coordination|review-decision|waiting-on-hold)")),
		mcp.WithString("due", mcp.Description("Due date as YYYY-MM-DD")),
		mcp.WithString("note", mcp.Description("Free-form note")),
	), addTaskHandler(b))

	s.AddTool(mcp.NewTool("set_status",
		mcp.WithDescription("Change the status of a task."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("status", mcp.Description("New status"), mcp.Required()),
	), setStatusHandler(b))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task done. It leaves every view until undone."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), completeTaskHandler(b))

	s.AddTool(mcp.NewTool("undo_task",
		mcp.WithDescription("Return a done task to the board."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), undoTaskHandler(b))

	s.AddTool(mcp.NewTool("chase_message",
		mcp.WithDescription("Draft a follow-up message for a task that is waiting on someone."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
		mcp.WithString("tone", mcp.Description("chat or email; omit for the wait-aware chase text")),
	), chaseHandler(b))

	if analyzer != nil {
		s.AddTool(mcp.NewTool("analyze_notes",
			mcp.WithDescription("Turn free-form notes, one item per line, into tasks and add the new ones to the board."),
			mcp.WithString("text", mcp.Description("Notes to analyze"), mcp.Required()),
		), analyzeHandler(b, analyzer))

		s.AddTool(mcp.NewTool("resolve_task",
			mcp.WithDescription("Draft a deliverable for a task as Markdown."),
			mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
			mcp.WithString("type", mcp.Description("Deliverable type (copy|checklist|blog|decision)"), mcp.Required()),
		), resolveHandler(b, analyzer))
	}

	return s
}

// Serve runs s over the given streams until ctx is done or in is closed.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

type taskSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   model.Status   `json:"status"`
	Category model.Category `json:"category,omitempty"`
	Score    int            `json:"score"`
	Stale    bool           `json:"stale,omitempty"`
}

func summarize(entries []scoring.Entry) []taskSummary {
	out := make([]taskSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, taskSummary{
			ID:       e.Task.ID,
			Name:     e.Task.TaskName,
			Status:   e.Task.Status,
			Category: e.Task.Category,
			Score:    e.Score,
			Stale:    e.IsStale,
		})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func getViewsHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vs := b.Views(b.Now())

		switch bucket := scoring.Bucket(mcp.ParseString(request, "bucket", "")); bucket {
		case "":
			return jsonResult(map[string]any{
				"doer":    summarize(vs.Doer),
				"manager": summarize(vs.Manager),
				"planner": summarize(vs.Planner),
			})
		case scoring.BucketDoer, scoring.BucketManager, scoring.BucketPlanner:
			return jsonResult(map[string]any{string(bucket): summarize(vs.Entries(bucket))})
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown bucket '%s'", bucket)), nil
		}
	}
}

func getTaskHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, meta, err := b.Task(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"task": task,
			"meta": meta,
			"done": b.State().IsDone(task.ID),
		})
	}
}

func addTaskHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task := model.Task{
			TaskName: mcp.ParseString(request, "name", ""),
			Status:   model.Status(mcp.ParseString(request, "status", string(model.StatusReady))),
			Category: model.Category(mcp.ParseString(request, "category", "")),
		}
		if !task.Status.IsKnown() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status '%s'", task.Status)), nil
		}

		meta := model.TaskMeta{Note: mcp.ParseString(request, "note", "")}
		if due := mcp.ParseString(request, "due", ""); due != "" {
			d, err := model.ParseDate(due)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			meta.Due = &d
		}

		added, err := b.AddTask(ctx, task, meta)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Added '%s' with ID %s.", added.TaskName, added.ID)), nil
	}
}

func setStatusHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := model.Status(mcp.ParseString(request, "status", ""))
		if !status.IsKnown() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status '%s'", status)), nil
		}

		task, err := b.UpdateTask(ctx, mcp.ParseString(request, "id", ""), board.TaskPatch{Status: &status}, board.MetaPatch{})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("'%s' is now %s.", task.TaskName, status.Label())), nil
	}
}

func completeTaskHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		if err := b.Complete(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %s marked done.", id)), nil
	}
}

func undoTaskHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")
		if err := b.Undo(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %s is back on the board.", id)), nil
	}
}

func chaseHandler(b *board.Board) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := mcp.ParseString(request, "id", "")

		var (
			msg string
			err error
		)
		switch tone := model.Tone(mcp.ParseString(request, "tone", "")); tone {
		case "":
			msg, err = b.ChaseMessage(id)
		case model.ToneChat, model.ToneEmail:
			msg, err = b.RemindMessage(id, tone)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown tone '%s'", tone)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(msg), nil
	}
}

func analyzeHandler(b *board.Board, analyzer Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		lines := intake.Prepare(mcp.ParseString(request, "text", ""))
		if len(lines) == 0 {
			return mcp.NewToolResultError("text must contain at least one non-empty line"), nil
		}

		drafts, err := analyzer.Analyze(ctx, lines, b.ActiveTasks())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		added, err := b.AddTasks(ctx, drafts)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return jsonResult(map[string]any{
			"drafts":  len(drafts),
			"skipped": len(drafts) - len(added),
			"added":   added,
		})
	}
}

func resolveHandler(b *board.Board, analyzer Analyzer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rt := model.ResolveType(mcp.ParseString(request, "type", ""))
		if !rt.IsValid() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown deliverable type '%s'", rt)), nil
		}

		task, _, err := b.Task(mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		out, err := analyzer.Resolve(ctx, task, rt)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out.Markdown()), nil
	}
}

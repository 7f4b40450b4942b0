package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/ops-board/internal/ai"
	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
)

const maxImportSize = 10 << 20 // 10MB

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	var apiErr *ai.APIError
	switch {
	case errors.Is(err, board.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, board.ErrEmptyTaskName),
		errors.Is(err, board.ErrInvalidPatch),
		errors.Is(err, board.ErrInvalidDocument):
		status = http.StatusBadRequest
	case errors.Is(err, ai.ErrMissingAPIKey), errors.As(err, &apiErr), errors.Is(err, ai.ErrMalformedResponse):
		status = http.StatusBadGateway
		msg = ai.UserMessage(err)
	}

	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func (s *Server) handleViews(c *gin.Context) {
	vs := s.board.Views(s.board.Now())
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"enriched": vs.Enriched,
		"doer":     vs.Doer,
		"manager":  vs.Manager,
		"planner":  vs.Planner,
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "state": s.board.State()})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	if s.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "analysis is not configured"})
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	lines := intake.Prepare(req.Text)
	if len(lines) == 0 {
		badRequest(c, "text must contain at least one non-empty line")
		return
	}

	drafts, err := s.analyzer.Analyze(c.Request.Context(), lines, s.board.ActiveTasks())
	if err != nil {
		s.fail(c, err)
		return
	}

	added, err := s.board.AddTasks(c.Request.Context(), drafts)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"lines":   len(lines),
		"drafts":  len(drafts),
		"added":   added,
	})
}

func (s *Server) handleAddTask(c *gin.Context) {
	var req struct {
		Task model.Task     `json:"task"`
		Meta model.TaskMeta `json:"meta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := s.board.AddTask(c.Request.Context(), req.Task, req.Meta)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "task": task})
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var req struct {
		Task board.TaskPatch `json:"task"`
		Meta board.MetaPatch `json:"meta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	task, err := s.board.UpdateTask(c.Request.Context(), c.Param("id"), req.Task, req.Meta)
	if err != nil {
		s.fail(c, err)
		return
	}

	_, meta, _ := s.board.Task(task.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "task": task, "meta": meta})
}

func (s *Server) handleComplete(c *gin.Context) {
	if err := s.board.Complete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleUndo(c *gin.Context) {
	if err := s.board.Undo(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleResolve(c *gin.Context) {
	if s.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "analysis is not configured"})
		return
	}

	var req struct {
		Type model.ResolveType `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !req.Type.IsValid() {
		badRequest(c, fmt.Sprintf("unknown resolve type %q", req.Type))
		return
	}

	task, _, err := s.board.Task(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.analyzer.Resolve(c.Request.Context(), task, req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"output":   out,
		"markdown": out.Markdown(),
		"copyText": out.CopyText(),
	})
}

func (s *Server) handleChase(c *gin.Context) {
	id := c.Param("id")

	var (
		msg string
		err error
	)
	switch tone := model.Tone(c.Query("tone")); tone {
	case "":
		msg, err = s.board.ChaseMessage(id)
	case model.ToneChat, model.ToneEmail:
		msg, err = s.board.RemindMessage(id, tone)
	default:
		badRequest(c, fmt.Sprintf("unknown tone %q", tone))
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (s *Server) handleExport(c *gin.Context) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, board.ExportFilename(s.board.Now())))
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	if err := s.board.Export(c.Writer); err != nil {
		s.log.Error().Err(err).Msg("export failed")
	}
}

func (s *Server) handleImport(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	state, err := s.board.Import(c.Request.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "import exceeds 10MB"})
			return
		}
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tasks":   len(state.Tasks),
		"done":    len(state.DoneIDs),
	})
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.board.Reset(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleGetModel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "model": s.board.Model()})
}

func (s *Server) handleSetModel(c *gin.Context) {
	var req struct {
		Model string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := s.board.SetModel(c.Request.Context(), req.Model); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "model": s.board.Model()})
}

func (s *Server) handleIntake(c *gin.Context) {
	if s.intake == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "enabled": true, "status": s.intake.Status()})
}

// handleOpsPlan forwards a prompt to the model provider using the server's
// key and returns the provider's answer unchanged.
func (s *Server) handleOpsPlan(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if s.proxy == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Configuration Error"})
		return
	}

	var req struct {
		ModelName         string          `json:"modelName"`
		Prompt            string          `json:"prompt"`
		SystemInstruction string          `json:"systemInstruction"`
		ResponseSchema    json.RawMessage `json:"responseSchema"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	modelName := req.ModelName
	if modelName == "" {
		modelName = s.proxyModel
	}
	schema := req.ResponseSchema
	if string(schema) == "null" {
		schema = nil
	}

	body, err := s.proxy.Send(c.Request.Context(), ai.GenerateRequest{
		Model:             modelName,
		Prompt:            req.Prompt,
		SystemInstruction: req.SystemInstruction,
		Schema:            schema,
	})

	var apiErr *ai.APIError
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		s.log.Error().Msg("ops-plan called but no API key is configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Configuration Error"})
	case errors.As(err, &apiErr):
		s.log.Warn().Int("status", apiErr.StatusCode).Str("error", apiErr.Message).Msg("provider error")
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
	case err != nil:
		s.log.Error().Err(err).Msg("ops-plan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.Data(http.StatusOK, "application/json", body)
	}
}

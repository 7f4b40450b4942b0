// Package server exposes the board over a JSON HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nhle/ops-board/internal/ai"
	"github.com/nhle/ops-board/internal/board"
	"github.com/nhle/ops-board/internal/intake"
	"github.com/nhle/ops-board/internal/model"
)

// Analyzer is the analysis collaborator used by the analyze and resolve
// routes.
type Analyzer interface {
	Analyze(ctx context.Context, lines []string, existing []model.Task) ([]model.Task, error)
	Resolve(ctx context.Context, task model.Task, rt model.ResolveType) (model.ResolveOutput, error)
}

// Proxy forwards raw generateContent calls for the ops-plan route.
type Proxy interface {
	Send(ctx context.Context, req ai.GenerateRequest) ([]byte, error)
}

// IntakeStatus reports the mail intake state.
type IntakeStatus interface {
	Status() intake.Status
}

// Server is the opsboard HTTP server.
type Server struct {
	board      *board.Board
	analyzer   Analyzer
	proxy      Proxy
	intake     IntakeStatus
	proxyModel string
	log        zerolog.Logger
	router     *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer enables the analyze and resolve routes.
func WithAnalyzer(a Analyzer) Option { return func(s *Server) { s.analyzer = a } }

// WithProxy enables the ops-plan proxy route. model is used when a request
// names none.
func WithProxy(p Proxy, model string) Option {
	return func(s *Server) {
		s.proxy = p
		s.proxyModel = model
	}
}

// WithIntake reports mail intake status on /api/intake.
func WithIntake(i IntakeStatus) Option { return func(s *Server) { s.intake = i } }

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l.With().Str("component", "server").Logger() }
}

// New creates a server for b.
func New(b *board.Board, opts ...Option) *Server {
	s := &Server{
		board:      b,
		proxyModel: "gemini-2.0-flash",
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	api := router.Group("/api")
	{
		api.GET("/views", s.handleViews)
		api.GET("/state", s.handleState)

		api.POST("/tasks/analyze", s.handleAnalyze)
		api.POST("/tasks", s.handleAddTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.POST("/tasks/:id/complete", s.handleComplete)
		api.POST("/tasks/:id/undo", s.handleUndo)
		api.POST("/tasks/:id/resolve", s.handleResolve)
		api.GET("/tasks/:id/chase", s.handleChase)

		api.GET("/export", s.handleExport)
		api.POST("/import", s.handleImport)
		api.POST("/reset", s.handleReset)

		api.GET("/model", s.handleGetModel)
		api.PUT("/model", s.handleSetModel)

		api.GET("/intake", s.handleIntake)

		api.Any("/ops-plan", s.handleOpsPlan)
	}

	s.router = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

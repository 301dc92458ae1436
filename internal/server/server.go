package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/shell"
	"tasktracker/internal/tracker"
)

// Server provides HTTP handlers for the task tracker mini-app.
type Server struct {
	engine    *gin.Engine
	tracker   *tracker.Tracker
	events    *shell.Broadcaster
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
// events may be nil, in which case the event stream is disabled.
func New(tr *tracker.Tracker, events *shell.Broadcaster, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api/healthz", "/api/events"))

	srv := &Server{
		engine:    router,
		tracker:   tr,
		events:    events,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// HTTPServer wraps the engine in an http.Server listening on addr. Shutting
// it down also ends open event streams, which would otherwise keep their
// connections busy until the shutdown deadline.
func (s *Server) HTTPServer(addr string) *http.Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.events != nil {
		hs.RegisterOnShutdown(s.events.Close)
	}
	return hs
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/view", s.handleView)
		api.PUT("/filter", s.handleSetFilter)
		api.GET("/stats", s.handleStats)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET(":id", s.handleGetTask)
			tasks.PATCH(":id", s.handleUpdateTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.POST(":id/toggle", s.handleToggleTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		api.POST("/shell/handshake", s.handleHandshake)
		api.POST("/shell/intent", s.handleIntent)
		api.GET("/events", s.handleEvents)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps tracker errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrEmptyTitle),
		errors.Is(err, tracker.ErrInvalidPriority),
		errors.Is(err, tracker.ErrInvalidStatus),
		errors.Is(err, tracker.ErrInvalidFilter),
		errors.Is(err, tracker.ErrInvalidDueDate),
		errors.Is(err, tracker.ErrUnknownIntent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

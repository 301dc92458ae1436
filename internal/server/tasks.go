package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/models"
	"tasktracker/internal/tasks"
	"tasktracker/internal/tracker"
)

type filterRequest struct {
	Filter models.Filter `json:"filter"`
}

// handleView returns the projection for the active filter, or for the
// filter given in the query string without changing the active one.
func (s *Server) handleView(c *gin.Context) {
	raw := c.Query("filter")
	if raw == "" {
		respondSuccess(c, http.StatusOK, s.tracker.View())
		return
	}
	filter := models.Filter(raw)
	if !filter.Valid() {
		err := fmt.Errorf("%w: %q", tracker.ErrInvalidFilter, raw)
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, s.tracker.ViewWith(filter))
}

// handleSetFilter switches the active filter and returns the new view.
func (s *Server) handleSetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.tracker.SetFilter(req.Filter); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, s.tracker.View())
}

// handleStats reports aggregate counts.
func (s *Server) handleStats(c *gin.Context) {
	st := tasks.ComputeStats(s.tracker.Store().Tasks())
	respondSuccess(c, http.StatusOK, gin.H{
		"stats":          st,
		"completionRate": tasks.CompletionRate(st),
	})
}

// handleListTasks returns every task, newest first.
func (s *Server) handleListTasks(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{"tasks": s.tracker.Store().Tasks()})
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	id := c.Param("id")
	task, ok := s.tracker.Store().Get(id)
	if !ok {
		err := fmt.Errorf("get %s: %w", id, tracker.ErrTaskNotFound)
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleCreateTask adds a task to the top of the list.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req models.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.tracker.AddTask(req)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleUpdateTask applies a partial update.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var patch models.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.tracker.UpdateTask(c.Param("id"), patch)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleToggleTask flips a task between active and completed.
func (s *Server) handleToggleTask(c *gin.Context) {
	task, err := s.tracker.ToggleTask(c.Param("id"))
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.tracker.DeleteTask(c.Param("id")); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

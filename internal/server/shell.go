package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasktracker/internal/shell"
	"tasktracker/internal/tracker"
)

type handshakeRequest struct {
	ThemeParams shell.ThemeParams `json:"themeParams"`
	User        shell.User        `json:"user"`
}

type intentRequest struct {
	Intent tracker.Intent `json:"intent"`
}

const eventBuffer = 32

// handleHandshake resolves the host theme and greeting for the frontend.
func (s *Server) handleHandshake(c *gin.Context) {
	var req handshakeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}
	}
	respondSuccess(c, http.StatusOK, s.tracker.Handshake(req.ThemeParams, req.User))
}

// handleIntent plays the feedback for a frontend navigation gesture.
func (s *Server) handleIntent(c *gin.Context) {
	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.tracker.Signal(req.Intent); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleEvents streams shell signals as server-sent events until the client leaves.
func (s *Server) handleEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event stream disabled"})
		return
	}

	ch, cancel := s.events.Subscribe(eventBuffer)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"filter": s.tracker.Filter()})
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

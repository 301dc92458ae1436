package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the compiled mini-app from the configured directory.
// Unknown non-API paths fall back to index.html for client side routing.
func (s *Server) mountStatic() {
	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing; API only mode", slog.String("path", s.staticDir), slog.Any("error", err))
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found; API only mode", slog.String("path", indexPath), slog.String("error", err.Error()))
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		c.File(indexPath)
	})

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
	}

	s.mountRootFiles()
}

// mountRootFiles exposes top-level files of the build such as favicon.ico or
// manifest.json, which the host fetches by absolute path.
func (s *Server) mountRootFiles() {
	entries, err := os.ReadDir(s.staticDir)
	if err != nil {
		s.logger.Warn("unable to list static directory", slog.String("path", s.staticDir), slog.String("error", err.Error()))
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "index.html" || strings.HasPrefix(name, ".") {
			continue
		}
		s.engine.StaticFile("/"+name, filepath.Join(s.staticDir, name))
	}
}

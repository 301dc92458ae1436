package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"tasktracker/internal/server"
	"tasktracker/internal/shell"
	"tasktracker/internal/tracker"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr, staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the mini-app API and frontend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, addr, staticDir)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory with built frontend (overrides config)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, addr, staticDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx, opts, os.Stdout)
	if err != nil {
		return err
	}
	logger := rt.logger
	if addr == "" {
		addr = rt.cfg.Addr
	}
	if staticDir == "" {
		staticDir = rt.cfg.StaticDir
	}

	logger.Info("task tracker starting",
		slog.String("storage", rt.cfg.Storage.Driver),
		slog.String("key", rt.cfg.Storage.Key))

	events := shell.NewBroadcaster(logger)
	tr := tracker.New(rt.store, shell.Tee{shell.NewLogger(logger), events}, logger)
	srv := server.New(tr, events, logger, staticDir)

	httpServer := srv.HTTPServer(addr)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
			serveErr <- err
		}
	}()

	httpDone := make(chan struct{})
	wait := gfshutdown.GracefulShutdown(ctx, rt.cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			defer close(httpDone)
			return httpServer.Shutdown(ctx)
		},
		"task-store": storeCloser(rt, httpDone),
	})

	select {
	case err := <-serveErr:
		if closeErr := rt.close(context.Background()); closeErr != nil {
			logger.Warn("closing storage", slog.String("error", closeErr.Error()))
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case code := <-wait:
		logger.Info("server stopped", slog.Int("exit_code", code))
		if code != 0 {
			return fmt.Errorf("shutdown finished with exit code %d", code)
		}
		return nil
	}
}

// storeFlushTimeout bounds the final flush once the HTTP server is down.
const storeFlushTimeout = 5 * time.Second

// storeCloser waits for the HTTP server to stop taking requests, then
// flushes and closes storage under its own deadline.
func storeCloser(rt *runtime, httpDone <-chan struct{}) gfshutdown.Operation {
	return func(ctx context.Context) error {
		select {
		case <-httpDone:
		case <-ctx.Done():
		}
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeFlushTimeout)
		defer cancel()
		return rt.close(flushCtx)
	}
}

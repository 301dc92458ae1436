package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"tasktracker/internal/config"
	"tasktracker/internal/shell"
	"tasktracker/internal/storage"
	"tasktracker/internal/storage/redisstore"
	"tasktracker/internal/storage/sqlite"
	"tasktracker/internal/tasks"
	"tasktracker/internal/tracker"
)

// backend is a blob store that owns resources.
type backend interface {
	tasks.Blob
	Delete(ctx context.Context, key string) error
	Close() error
}

// runtime bundles what every command needs once config is resolved.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	blob   backend
	store  *tasks.Store
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s, err := redisstore.Open(ctx, redisstore.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMemory:
		return storage.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// openRuntime loads config, opens the blob backend and the task store.
func openRuntime(ctx context.Context, opts *rootOptions, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	logger := newLogger(logOut, cfg, opts.verbose)

	blob, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}

	store := tasks.Open(ctx, blob, logger, tasks.WithKey(cfg.Storage.Key))
	return &runtime{cfg: cfg, logger: logger, blob: blob, store: store}, nil
}

// close flushes pending writes and releases the backend.
func (r *runtime) close(ctx context.Context) error {
	storeErr := r.store.Close(ctx)
	if storeErr != nil {
		r.logger.Warn("final task flush failed", slog.String("error", storeErr.Error()))
	}
	return errors.Join(storeErr, r.blob.Close())
}

// withTracker runs fn against a tracker for one CLI invocation.
func withTracker(ctx context.Context, opts *rootOptions, logOut io.Writer, fn func(*tracker.Tracker) error) error {
	rt, err := openRuntime(ctx, opts, logOut)
	if err != nil {
		return err
	}
	tr := tracker.New(rt.store, shell.NewLogger(rt.logger), rt.logger)
	runErr := fn(tr)
	return errors.Join(runErr, rt.close(ctx))
}

// resolveID accepts a full id or an unambiguous prefix of one.
func resolveID(store *tasks.Store, arg string) (string, error) {
	if _, ok := store.Get(arg); ok {
		return arg, nil
	}
	var match string
	for _, t := range store.Tasks() {
		if strings.HasPrefix(t.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s: %w", arg, tracker.ErrTaskNotFound)
	}
	return match, nil
}

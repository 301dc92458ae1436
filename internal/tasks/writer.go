package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// writer persists snapshots in the background. Only the latest pending
// snapshot is ever written; older ones are skipped.
type writer struct {
	blob   Blob
	key    string
	logger *slog.Logger

	mu      sync.Mutex
	pending []byte
	seq     uint64
	closed  bool
	wake    chan struct{}
	done    chan struct{}

	saveMu sync.Mutex
	saved  uint64
}

func newWriter(blob Blob, key string, logger *slog.Logger) *writer {
	w := &writer{
		blob:   blob,
		key:    key,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) submit(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.logger.Warn("task store closed, snapshot kept in memory only")
		return
	}
	w.pending = data
	w.seq++
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for range w.wake {
		if err := w.flush(context.Background()); err != nil {
			w.logger.Warn("persist tasks failed", slog.String("key", w.key), slog.String("error", err.Error()))
		}
	}
}

func (w *writer) flush(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()

	w.mu.Lock()
	data, seq := w.pending, w.seq
	w.mu.Unlock()

	if seq == w.saved {
		return nil
	}
	if err := w.blob.Save(ctx, w.key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	w.saved = seq
	return nil
}

func (w *writer) close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.wake)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return w.flush(ctx)
}

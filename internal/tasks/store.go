package tasks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/models"
	"tasktracker/internal/storage"
)

// DefaultKey is the blob key the collection is persisted under.
const DefaultKey = "tasktracker.tasks"

// Blob is the durable key-value slot holding the serialized collection.
type Blob interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the blob key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock overrides the time source used for createdAt and completedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how task ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Store owns the task collection. Every mutation hands a fresh snapshot to a
// background writer; the in-memory list stays authoritative if writes fail.
type Store struct {
	mu     sync.RWMutex
	tasks  []models.Task
	key    string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
	writer *writer
}

// Open loads the persisted collection from blob. Missing or unreadable
// snapshots degrade to an empty collection; Open never fails.
func Open(ctx context.Context, blob Blob, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		key:    DefaultKey,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tasks = s.load(ctx, blob)
	s.writer = newWriter(blob, s.key, logger)
	return s
}

func (s *Store) load(ctx context.Context, blob Blob) []models.Task {
	data, err := blob.Load(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Info("no saved tasks, starting empty", slog.String("key", s.key))
		return []models.Task{}
	}
	if err != nil {
		s.logger.Warn("unable to read saved tasks, starting empty", slog.String("key", s.key), slog.String("error", err.Error()))
		return []models.Task{}
	}

	tasks, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("discarding unreadable task snapshot", slog.String("key", s.key), slog.String("error", err.Error()))
		return []models.Task{}
	}
	s.logger.Info("tasks loaded", slog.Int("count", len(tasks)))
	return tasks
}

// Add prepends a new active task. A blank title is a silent no-op and
// returns false; callers are expected to validate first.
func (s *Store) Add(in models.NewTask) (models.Task, bool) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Task{}, false
	}
	if !in.Priority.Valid() {
		in.Priority = models.PriorityMedium
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := models.Task{
		ID:          s.uniqueID(),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      models.StatusActive,
		DueDate:     dueDate(in.DueDate),
		CreatedAt:   s.now(),
	}
	s.tasks = append([]models.Task{task}, s.tasks...)
	s.persistLocked()
	return task.Clone(), true
}

// Update shallow-merges patch onto the task with the given id. The id and
// createdAt are never touched. Returns false when no task matches.
func (s *Store) Update(id string, patch models.Patch) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	t := &s.tasks[i]

	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil && patch.Priority.Valid() {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = dueDate(patch.DueDate)
	}
	if patch.Status != nil && patch.Status.Valid() {
		setStatus(t, *patch.Status, s.now())
	}

	s.persistLocked()
	return t.Clone(), true
}

// Delete removes the task with the given id. Returns false when absent.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.persistLocked()
	return true
}

// Toggle flips the status of the task with the given id.
func (s *Store) Toggle(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	t := &s.tasks[i]
	setStatus(t, t.Status.Flip(), s.now())
	s.persistLocked()
	return t.Clone(), true
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Tasks returns a copy of the collection, newest first.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Flush writes the latest snapshot synchronously.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close stops the background writer after a final flush.
func (s *Store) Close(ctx context.Context) error {
	return s.writer.close(ctx)
}

// setStatus is the only place status changes; completedAt follows it.
func setStatus(t *models.Task, status models.Status, now time.Time) {
	if t.Status == status {
		return
	}
	t.Status = status
	if status == models.StatusCompleted {
		t.CompletedAt = &now
		return
	}
	t.CompletedAt = nil
}

func dueDate(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	cp := *d
	return &cp
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id
		}
	}
}

func (s *Store) persistLocked() {
	data, err := encodeSnapshot(s.tasks)
	if err != nil {
		s.logger.Error("encode task snapshot", slog.String("error", err.Error()))
		return
	}
	s.writer.submit(data)
}

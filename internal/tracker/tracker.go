package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tasktracker/internal/models"
	"tasktracker/internal/shell"
	"tasktracker/internal/tasks"
)

var (
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	ErrInvalidStatus   = errors.New("status must be active or completed")
	ErrInvalidFilter   = errors.New("filter must be all, active or completed")
	ErrInvalidDueDate  = errors.New("due date must be YYYY-MM-DD")
	ErrUnknownIntent   = errors.New("intent must be compose or back")
	ErrTaskNotFound    = errors.New("task not found")
)

// Intent is a navigation gesture of the frontend that only produces feedback.
type Intent string

const (
	// IntentCompose opens the new task form.
	IntentCompose Intent = "compose"
	// IntentBack leaves a form without saving.
	IntentBack Intent = "back"
)

// ActionTasksUpdated tags the summary payload sent to the host shell.
const ActionTasksUpdated = "tasks_updated"

// Update is the payload reported to the host shell after a change.
type Update struct {
	Action string        `json:"action"`
	Stats  models.Stats  `json:"stats"`
	Tasks  []models.Task `json:"tasks"`
}

// View is the projection a frontend renders.
type View struct {
	Filter         models.Filter         `json:"filter"`
	Tasks          []models.Task         `json:"tasks"`
	Overdue        []string              `json:"overdue"`
	Stats          models.Stats          `json:"stats"`
	CompletionRate int                   `json:"completionRate"`
	Counts         map[models.Filter]int `json:"counts"`
}

// Greeting is the cosmetic result of the host handshake.
type Greeting struct {
	Theme       shell.Theme `json:"theme"`
	DisplayName string      `json:"displayName"`
	Premium     bool        `json:"premium"`
}

// Tracker is the single user session: it validates commands, applies them to
// the store, keeps the active filter and signals the host shell. Commands are
// serialized so notifications leave in mutation order.
type Tracker struct {
	store  *tasks.Store
	shell  shell.Shell
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	filter models.Filter
}

// New builds a tracker over store and reports the loaded state to the host.
func New(store *tasks.Store, sh shell.Shell, logger *slog.Logger) *Tracker {
	if sh == nil {
		sh = shell.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		store:  store,
		shell:  sh,
		logger: logger,
		now:    time.Now,
		filter: models.FilterAll,
	}
	t.notify()
	return t
}

// Store exposes the underlying task store.
func (t *Tracker) Store() *tasks.Store {
	return t.store
}

// Handshake tells the host the app is ready and resolves its theme.
func (t *Tracker) Handshake(params shell.ThemeParams, user shell.User) Greeting {
	t.shell.Ready()
	t.shell.Expand()
	return Greeting{
		Theme:       shell.ResolveTheme(params),
		DisplayName: user.DisplayName(),
		Premium:     user.IsPremium,
	}
}

// AddTask validates and creates a task.
func (t *Tracker) AddTask(in models.NewTask) (models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return models.Task{}, t.reject(ErrEmptyTitle)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return models.Task{}, t.reject(fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.store.Add(in)
	if !ok {
		return models.Task{}, ErrEmptyTitle
	}
	t.shell.Notify(shell.NotifySuccess)
	t.logger.Info("task added", slog.String("id", task.ID))
	t.notify()
	return task, nil
}

// UpdateTask validates and applies a patch.
func (t *Tracker) UpdateTask(id string, patch models.Patch) (models.Task, error) {
	if err := normalizePatch(&patch); err != nil {
		return models.Task{}, t.reject(err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.store.Update(id, patch)
	if !ok {
		return models.Task{}, fmt.Errorf("update %s: %w", id, ErrTaskNotFound)
	}
	t.shell.Notify(shell.NotifySuccess)
	t.logger.Info("task updated", slog.String("id", id))
	t.notify()
	return task, nil
}

// DeleteTask removes a task permanently.
func (t *Tracker) DeleteTask(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.store.Get(id); !ok {
		return fmt.Errorf("delete %s: %w", id, ErrTaskNotFound)
	}
	t.shell.Impact(shell.ImpactHeavy)
	t.store.Delete(id)
	t.shell.Notify(shell.NotifyWarning)
	t.logger.Info("task deleted", slog.String("id", id))
	t.notify()
	return nil
}

// ToggleTask flips a task between active and completed.
func (t *Tracker) ToggleTask(id string) (models.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before, ok := t.store.Get(id)
	if !ok {
		return models.Task{}, fmt.Errorf("toggle %s: %w", id, ErrTaskNotFound)
	}
	t.shell.Impact(shell.ImpactLight)
	if before.Status == models.StatusActive {
		t.shell.Notify(shell.NotifySuccess)
	} else {
		t.shell.Notify(shell.NotifyWarning)
	}

	task, _ := t.store.Toggle(id)
	t.logger.Info("task toggled", slog.String("id", id), slog.String("status", string(task.Status)))
	t.notify()
	return task, nil
}

// SetFilter changes the active filter.
func (t *Tracker) SetFilter(f models.Filter) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, f)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.shell.Selection()
	t.filter = f
	return nil
}

// Signal plays the feedback for a navigation intent. Task state is untouched.
func (t *Tracker) Signal(intent Intent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch intent {
	case IntentCompose:
		t.shell.Impact(shell.ImpactMedium)
	case IntentBack:
		t.shell.Impact(shell.ImpactLight)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
	}
	return nil
}

// Filter returns the active filter.
func (t *Tracker) Filter() models.Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// View projects the store through the active filter.
func (t *Tracker) View() View {
	return t.ViewWith(t.Filter())
}

// ViewWith projects the store through f without changing the active filter.
func (t *Tracker) ViewWith(f models.Filter) View {
	all := t.store.Tasks()
	st := tasks.ComputeStats(all)
	visible := tasks.FilterView(all, f)

	now := t.now()
	overdue := []string{}
	for _, task := range visible {
		if task.Overdue(now) {
			overdue = append(overdue, task.ID)
		}
	}

	counts := make(map[models.Filter]int, len(models.Filters))
	for _, each := range models.Filters {
		counts[each] = tasks.Count(st, each)
	}

	return View{
		Filter:         f,
		Tasks:          visible,
		Overdue:        overdue,
		Stats:          st,
		CompletionRate: tasks.CompletionRate(st),
		Counts:         counts,
	}
}

// notify reports the current collection to the host when it is not empty.
func (t *Tracker) notify() {
	all := t.store.Tasks()
	st := tasks.ComputeStats(all)
	if st.Total == 0 {
		return
	}
	t.shell.SendData(Update{Action: ActionTasksUpdated, Stats: st, Tasks: all})
}

// reject plays the error haptic for input the tracker refuses.
func (t *Tracker) reject(err error) error {
	t.shell.Notify(shell.NotifyError)
	return err
}

func normalizePatch(p *models.Patch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		p.Description = &desc
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	return nil
}

package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
	"tasktracker/internal/storage"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stepClock returns a clock that advances one minute on every call.
func stepClock() func() time.Time {
	t := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func newTestStore(t *testing.T, blob Blob) *Store {
	t.Helper()
	if blob == nil {
		blob = storage.NewMemory()
	}
	s := Open(context.Background(), blob, quietLogger, WithClock(stepClock()), WithIDGenerator(seqIDs()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func mustAdd(t *testing.T, s *Store, title string) models.Task {
	t.Helper()
	task, ok := s.Add(models.NewTask{Title: title})
	require.True(t, ok)
	return task
}

func TestAddDefaults(t *testing.T) {
	s := newTestStore(t, nil)

	task := mustAdd(t, s, "Buy milk")
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.StatusActive, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.DueDate)
	assert.False(t, task.CreatedAt.IsZero())

	st := ComputeStats(s.Tasks())
	assert.Equal(t, models.Stats{Total: 1, Active: 1, Completed: 0}, st)
	assert.Equal(t, 0, CompletionRate(st))
}

func TestAddBlankTitleIsNoop(t *testing.T) {
	s := newTestStore(t, nil)

	_, ok := s.Add(models.NewTask{Title: ""})
	assert.False(t, ok)
	_, ok = s.Add(models.NewTask{Title: "   "})
	assert.False(t, ok)
	assert.Empty(t, s.Tasks())
}

func TestAddPrependsAndKeepsFields(t *testing.T) {
	s := newTestStore(t, nil)
	due := models.NewDate(2025, time.April, 1)

	first := mustAdd(t, s, "first")
	second, ok := s.Add(models.NewTask{
		Title:       "second",
		Description: "details",
		Priority:    models.PriorityHigh,
		DueDate:     &due,
	})
	require.True(t, ok)

	all := FilterView(s.Tasks(), models.FilterAll)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	assert.Equal(t, "details", all[0].Description)
	assert.Equal(t, models.PriorityHigh, all[0].Priority)
	assert.Equal(t, "2025-04-01", all[0].DueDate.String())
}

func TestAddUnknownPriorityFallsBackToMedium(t *testing.T) {
	s := newTestStore(t, nil)
	task, ok := s.Add(models.NewTask{Title: "x", Priority: "urgent"})
	require.True(t, ok)
	assert.Equal(t, models.PriorityMedium, task.Priority)
}

func TestAddGeneratesUniqueIDs(t *testing.T) {
	calls := 0
	gen := func() string {
		calls++
		if calls <= 2 {
			return "same"
		}
		return fmt.Sprintf("id-%d", calls)
	}
	s := Open(context.Background(), storage.NewMemory(), quietLogger, WithIDGenerator(gen))
	defer s.Close(context.Background())

	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpdateOnlyTouchesPatchedFields(t *testing.T) {
	s := newTestStore(t, nil)
	orig := mustAdd(t, s, "Write report")

	high := models.PriorityHigh
	updated, ok := s.Update(orig.ID, models.Patch{Priority: &high})
	require.True(t, ok)

	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, orig.ID, updated.ID)
	assert.Equal(t, orig.CreatedAt, updated.CreatedAt)
	assert.Equal(t, orig.Status, updated.Status)
	assert.Equal(t, orig.Title, updated.Title)
}

func TestUpdateMergesAndClears(t *testing.T) {
	s := newTestStore(t, nil)
	due := models.NewDate(2025, time.May, 5)
	orig, _ := s.Add(models.NewTask{Title: "t", Description: "d", DueDate: &due})

	title := "renamed"
	empty := ""
	updated, ok := s.Update(orig.ID, models.Patch{
		Title:       &title,
		Description: &empty,
		DueDate:     &models.Date{},
	})
	require.True(t, ok)
	assert.Equal(t, "renamed", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Nil(t, updated.DueDate)

	blank := "  "
	bogus := models.Priority("urgent")
	updated, _ = s.Update(orig.ID, models.Patch{Title: &blank, Priority: &bogus})
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, models.PriorityMedium, updated.Priority)
}

func TestUpdateStatusKeepsCompletedAtInvariant(t *testing.T) {
	s := newTestStore(t, nil)
	task := mustAdd(t, s, "t")

	completed := models.StatusCompleted
	updated, _ := s.Update(task.ID, models.Patch{Status: &completed})
	assert.Equal(t, models.StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)

	active := models.StatusActive
	updated, _ = s.Update(task.ID, models.Patch{Status: &active})
	assert.Equal(t, models.StatusActive, updated.Status)
	assert.Nil(t, updated.CompletedAt)
}

func TestToggleTwiceRestoresStatus(t *testing.T) {
	s := newTestStore(t, nil)
	task := mustAdd(t, s, "t")

	done, ok := s.Toggle(task.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.After(done.CreatedAt))

	back, ok := s.Toggle(task.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusActive, back.Status)
	assert.Nil(t, back.CompletedAt)
	assert.Equal(t, task.CreatedAt, back.CreatedAt)
}

func TestDeleteThenReferenceIsNoop(t *testing.T) {
	s := newTestStore(t, nil)
	task := mustAdd(t, s, "gone")
	keep := mustAdd(t, s, "keep")

	assert.True(t, s.Delete(task.ID))
	assert.False(t, s.Delete(task.ID))
	_, ok := s.Toggle(task.ID)
	assert.False(t, ok)
	title := "x"
	_, ok = s.Update(task.ID, models.Patch{Title: &title})
	assert.False(t, ok)
	_, ok = s.Get(task.ID)
	assert.False(t, ok)

	all := s.Tasks()
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)
}

func TestFilterAfterToggleScenario(t *testing.T) {
	s := newTestStore(t, nil)
	a := mustAdd(t, s, "a")
	b := mustAdd(t, s, "b")
	c := mustAdd(t, s, "c")

	// store order is c, b, a; the second one is b
	_, ok := s.Toggle(b.ID)
	require.True(t, ok)

	completed := FilterView(s.Tasks(), models.FilterCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, b.ID, completed[0].ID)

	active := FilterView(s.Tasks(), models.FilterActive)
	require.Len(t, active, 2)
	assert.Equal(t, c.ID, active[0].ID)
	assert.Equal(t, a.ID, active[1].ID)
}

func TestStatsInvariantUnderRandomOperations(t *testing.T) {
	s := newTestStore(t, nil)
	rng := rand.New(rand.NewSource(42))
	var created []string

	for i := 0; i < 300; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(created) == 0:
			task := mustAdd(t, s, fmt.Sprintf("task %d", i))
			created = append(created, task.ID)
		case op == 1:
			s.Toggle(created[rng.Intn(len(created))])
		case op == 2:
			p := models.Priority([]string{"low", "medium", "high"}[rng.Intn(3)])
			s.Update(created[rng.Intn(len(created))], models.Patch{Priority: &p})
		default:
			s.Delete(created[rng.Intn(len(created))])
		}

		all := s.Tasks()
		st := ComputeStats(all)
		require.Equal(t, st.Active+st.Completed, st.Total)
		require.Equal(t, len(all), st.Total)
		for _, task := range all {
			require.Equal(t, task.Status == models.StatusCompleted, task.CompletedAt != nil)
		}
	}
}

func TestTasksReturnsCopies(t *testing.T) {
	s := newTestStore(t, nil)
	mustAdd(t, s, "original")

	list := s.Tasks()
	list[0].Title = "mutated"
	assert.Equal(t, "original", s.Tasks()[0].Title)
}

func TestPersistRoundTrip(t *testing.T) {
	blob := storage.NewMemory()
	ctx := context.Background()

	s := Open(ctx, blob, quietLogger, WithClock(stepClock()))
	due := models.NewDate(2025, time.July, 4)
	s.Add(models.NewTask{Title: "one", Description: "first", Priority: models.PriorityLow})
	second, _ := s.Add(models.NewTask{Title: "two", DueDate: &due})
	s.Add(models.NewTask{Title: "three", Priority: models.PriorityHigh})
	s.Toggle(second.ID)
	require.NoError(t, s.Close(ctx))
	before := s.Tasks()

	reloaded := Open(ctx, blob, quietLogger)
	defer reloaded.Close(ctx)
	after := reloaded.Tasks()

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
	}
	wantJSON, _ := json.Marshal(before)
	gotJSON, _ := json.Marshal(after)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}

func TestPersistsUnderConfiguredKey(t *testing.T) {
	blob := storage.NewMemory()
	ctx := context.Background()
	s := Open(ctx, blob, quietLogger, WithKey("custom"))
	mustAdd(t, s, "x")
	require.NoError(t, s.Flush(ctx))

	_, err := blob.Load(ctx, "custom")
	assert.NoError(t, err)
	_, err = blob.Load(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, s.Close(ctx))
}

func TestLoadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	dup := []models.Task{
		{ID: "a", Title: "x", Priority: models.PriorityLow, Status: models.StatusActive, CreatedAt: created},
		{ID: "a", Title: "y", Priority: models.PriorityLow, Status: models.StatusActive, CreatedAt: created},
	}
	dupJSON, _ := json.Marshal(dup)

	cases := map[string][]byte{
		"garbage":            []byte("{not json"),
		"wrong shape":        []byte(`{"tasks":[]}`),
		"unknown status":     []byte(`[{"id":"a","title":"x","priority":"low","status":"done","createdAt":"2025-01-01T00:00:00Z"}]`),
		"unknown priority":   []byte(`[{"id":"a","title":"x","priority":"urgent","status":"active","createdAt":"2025-01-01T00:00:00Z"}]`),
		"completed no stamp": []byte(`[{"id":"a","title":"x","priority":"low","status":"completed","createdAt":"2025-01-01T00:00:00Z"}]`),
		"active with stamp":  []byte(`[{"id":"a","title":"x","priority":"low","status":"active","createdAt":"2025-01-01T00:00:00Z","completedAt":"2025-01-02T00:00:00Z"}]`),
		"missing id":         []byte(`[{"title":"x","priority":"low","status":"active","createdAt":"2025-01-01T00:00:00Z"}]`),
		"duplicate id":       dupJSON,
		"bad due date":       []byte(`[{"id":"a","title":"x","priority":"low","status":"active","dueDate":"soon","createdAt":"2025-01-01T00:00:00Z"}]`),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			blob := storage.NewMemory()
			require.NoError(t, blob.Save(ctx, DefaultKey, data))

			s := Open(ctx, blob, quietLogger)
			defer s.Close(ctx)

			st := ComputeStats(s.Tasks())
			assert.Empty(t, s.Tasks())
			assert.Equal(t, models.Stats{}, st)
			assert.Equal(t, 0, CompletionRate(st))
		})
	}
}

func TestLoadMissingBlob(t *testing.T) {
	s := newTestStore(t, nil)
	assert.Empty(t, s.Tasks())
	assert.Equal(t, models.Stats{}, ComputeStats(s.Tasks()))
}

func TestLoadAcceptsNull(t *testing.T) {
	blob := storage.NewMemory()
	require.NoError(t, blob.Save(context.Background(), DefaultKey, []byte("null")))
	s := newTestStore(t, blob)
	assert.Empty(t, s.Tasks())
}

type brokenBlob struct {
	loadErr error
	saveErr error
}

func (b brokenBlob) Load(context.Context, string) ([]byte, error) { return nil, b.loadErr }
func (b brokenBlob) Save(context.Context, string, []byte) error   { return b.saveErr }

func TestStorageFailuresAreSwallowed(t *testing.T) {
	boom := errors.New("disk full")
	s := newTestStore(t, brokenBlob{loadErr: boom, saveErr: boom})

	task := mustAdd(t, s, "still here")
	s.Toggle(task.ID)

	assert.ErrorIs(t, s.Flush(context.Background()), boom)
	all := s.Tasks()
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusCompleted, all[0].Status)
}

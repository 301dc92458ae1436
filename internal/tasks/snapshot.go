package tasks

import (
	"encoding/json"
	"fmt"

	"tasktracker/internal/models"
)

func encodeSnapshot(tasks []models.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return json.Marshal(tasks)
}

// decodeSnapshot parses a persisted collection and rejects it as a whole when
// any record breaks the task invariants.
func decodeSnapshot(data []byte) ([]models.Task, error) {
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if tasks == nil {
		return []models.Task{}, nil
	}

	seen := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		if err := checkTask(t); err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("task %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return tasks, nil
}

func checkTask(t models.Task) error {
	switch {
	case t.ID == "":
		return fmt.Errorf("missing id")
	case t.Title == "":
		return fmt.Errorf("missing title")
	case !t.Priority.Valid():
		return fmt.Errorf("unknown priority %q", t.Priority)
	case !t.Status.Valid():
		return fmt.Errorf("unknown status %q", t.Status)
	case t.CreatedAt.IsZero():
		return fmt.Errorf("missing createdAt")
	case (t.Status == models.StatusCompleted) != (t.CompletedAt != nil):
		return fmt.Errorf("completedAt does not match status %q", t.Status)
	}
	return nil
}

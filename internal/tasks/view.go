package tasks

import (
	"math"

	"tasktracker/internal/models"
)

// FilterView returns the tasks matching filter in their original order.
// Unknown filters pass everything through.
func FilterView(tasks []models.Task, filter models.Filter) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		switch filter {
		case models.FilterActive:
			if t.Status != models.StatusActive {
				continue
			}
		case models.FilterCompleted:
			if t.Status != models.StatusCompleted {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// ComputeStats counts tasks by status.
func ComputeStats(tasks []models.Task) models.Stats {
	var st models.Stats
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			st.Completed++
		} else {
			st.Active++
		}
	}
	st.Total = st.Active + st.Completed
	return st
}

// CompletionRate is the rounded percentage of completed tasks, 0 when empty.
func CompletionRate(st models.Stats) int {
	if st.Total <= 0 {
		return 0
	}
	return int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
}

// Count returns the badge count shown next to a filter tab.
func Count(st models.Stats, filter models.Filter) int {
	switch filter {
	case models.FilterActive:
		return st.Active
	case models.FilterCompleted:
		return st.Completed
	default:
		return st.Total
	}
}

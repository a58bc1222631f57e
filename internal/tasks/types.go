package tasks

import (
	"time"

	tasks "google.golang.org/api/tasks/v1"
)

// TaskList represents a Google Tasks task list
type TaskList struct {
	ID      string
	Title   string
	Updated time.Time
}

// Task represents a Google Tasks task
type Task struct {
	ID       string
	Title    string
	ListID   string
	Status   string // "needsAction" or "completed"
	Position string
}

// toTaskList converts a Google Tasks TaskList to our TaskList type
func toTaskList(tl *tasks.TaskList) TaskList {
	if tl == nil {
		return TaskList{}
	}

	result := TaskList{
		ID:    tl.Id,
		Title: tl.Title,
	}

	if tl.Updated != "" {
		if t, err := time.Parse(time.RFC3339, tl.Updated); err == nil {
			result.Updated = t
		}
	}

	return result
}

// toTask converts a Google Tasks Task in list listID to our Task type
func toTask(t *tasks.Task, listID string) Task {
	if t == nil {
		return Task{}
	}

	return Task{
		ID:       t.Id,
		Title:    t.Title,
		ListID:   listID,
		Status:   t.Status,
		Position: t.Position,
	}
}

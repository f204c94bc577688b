package domain

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// ParseTaskStatus normalises s and reports whether it names a known status.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	status := TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return status, true
	}
	return "", false
}

// Task is a unit of work belonging to a project.
type Task struct {
	ID             string
	Title          string
	Description    string
	Status         TaskStatus
	ProjectID      string
	AssignedUserID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TaskFilter narrows task listings. Empty fields match everything.
type TaskFilter struct {
	Status         TaskStatus
	AssignedUserID string
}

package domain

import (
	"strings"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "PLANNED"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusOnHold     ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
)

// ParseProjectStatus normalises s and reports whether it names a known status.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	status := ProjectStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case ProjectStatusPlanned, ProjectStatusInProgress, ProjectStatusOnHold, ProjectStatusCompleted:
		return status, true
	}
	return "", false
}

// Project groups tasks under a single owning user.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tasks       []Task
}

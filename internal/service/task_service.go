package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"projecthub/internal/domain"
	"projecthub/internal/repository"
)

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	ProjectID      string
	Title          string
	Description    string
	Status         string
	AssignedUserID string
}

// TaskPatch lists the fields to change; nil fields are left untouched and an
// empty AssignedUserID clears the assignment.
type TaskPatch struct {
	Title          *string
	Description    *string
	Status         *string
	AssignedUserID *string
}

// TaskService coordinates task level operations backed by repositories.
type TaskService interface {
	Create(ctx context.Context, userID string, input TaskInput) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Update(ctx context.Context, userID, id string, patch TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error
	Filter(ctx context.Context, status, assignedUserID string) ([]domain.Task, error)
}

type taskService struct {
	tasks     repository.TaskRepository
	projects  repository.ProjectRepository
	ownership *Ownership
}

func NewTaskService(tasks repository.TaskRepository, projects repository.ProjectRepository, ownership *Ownership) TaskService {
	return &taskService{
		tasks:     tasks,
		projects:  projects,
		ownership: ownership,
	}
}

func (s *taskService) Create(ctx context.Context, userID string, input TaskInput) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "task.create")
	defer span.End()

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.Invalid("title", "Title is required")
	}
	if strings.TrimSpace(input.ProjectID) == "" {
		return nil, domain.Invalid("projectId", "Project id is required")
	}
	status := domain.TaskStatusTodo
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := domain.ParseTaskStatus(input.Status)
		if !ok {
			return nil, domain.Invalid("status", fmt.Sprintf("unknown task status %q", input.Status))
		}
		status = parsed
	}

	// also rejects a missing project with ErrNotFound
	if _, err := s.ownership.RequireProjectOwner(ctx, userID, input.ProjectID); err != nil {
		return nil, err
	}

	task := &domain.Task{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         status,
		ProjectID:      input.ProjectID,
		AssignedUserID: optionalID(input.AssignedUserID),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("task.id", task.ID), attribute.String("project.id", task.ProjectID))
	return task, nil
}

func (s *taskService) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	ctx, span := tracer.Start(ctx, "task.list_by_project")
	defer span.End()

	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return nil, err
	}
	return s.tasks.ListByProject(ctx, projectID)
}

func (s *taskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "task.get")
	defer span.End()

	return s.tasks.Get(ctx, id)
}

func (s *taskService) Update(ctx context.Context, userID, id string, patch TaskPatch) (*domain.Task, error) {
	ctx, span := tracer.Start(ctx, "task.update")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", id))

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownership.RequireProjectOwner(ctx, userID, task.ProjectID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domain.Invalid("title", "Title cannot be empty")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		status, ok := domain.ParseTaskStatus(*patch.Status)
		if !ok {
			return nil, domain.Invalid("status", fmt.Sprintf("unknown task status %q", *patch.Status))
		}
		task.Status = status
	}
	if patch.AssignedUserID != nil {
		task.AssignedUserID = optionalID(*patch.AssignedUserID)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := tracer.Start(ctx, "task.delete")
	defer span.End()
	span.SetAttributes(attribute.String("task.id", id))

	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownership.RequireProjectOwner(ctx, userID, task.ProjectID); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}

// Filter lists tasks matching the optional status and assignee.
func (s *taskService) Filter(ctx context.Context, status, assignedUserID string) ([]domain.Task, error) {
	ctx, span := tracer.Start(ctx, "task.filter")
	defer span.End()

	filter := domain.TaskFilter{AssignedUserID: strings.TrimSpace(assignedUserID)}
	if strings.TrimSpace(status) != "" {
		parsed, ok := domain.ParseTaskStatus(status)
		if !ok {
			return nil, domain.Invalid("status", fmt.Sprintf("unknown task status %q", status))
		}
		filter.Status = parsed
	}
	return s.tasks.Filter(ctx, filter)
}

func optionalID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}

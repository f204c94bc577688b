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

// ProjectInput carries the fields accepted when creating a project.
type ProjectInput struct {
	Name        string
	Description string
	Status      string
}

// ProjectPatch lists the fields to change; nil fields are left untouched.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *string
}

// ProjectService manages projects owned by the calling user.
type ProjectService interface {
	Create(ctx context.Context, userID string, input ProjectInput) (*domain.Project, error)
	ListByOwner(ctx context.Context, userID string) ([]domain.Project, error)
	Update(ctx context.Context, userID, projectID string, patch ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
	Export(ctx context.Context, userID, projectID string) (*Export, error)
	ListExports(ctx context.Context, userID, projectID string) ([]Export, error)
}

type projectService struct {
	projects  repository.ProjectRepository
	tasks     repository.TaskRepository
	ownership *Ownership
	exporter  *Exporter
}

// NewProjectService builds a ProjectService. exporter may be nil, in which
// case exports report domain.ErrServiceUnavailable.
func NewProjectService(projects repository.ProjectRepository, tasks repository.TaskRepository, ownership *Ownership, exporter *Exporter) ProjectService {
	return &projectService{
		projects:  projects,
		tasks:     tasks,
		ownership: ownership,
		exporter:  exporter,
	}
}

func (s *projectService) Create(ctx context.Context, userID string, input ProjectInput) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "project.create")
	defer span.End()

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.Invalid("name", "Name is required")
	}
	status := domain.ProjectStatusPlanned
	if strings.TrimSpace(input.Status) != "" {
		parsed, ok := domain.ParseProjectStatus(input.Status)
		if !ok {
			return nil, domain.Invalid("status", fmt.Sprintf("unknown project status %q", input.Status))
		}
		status = parsed
	}

	project := &domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		OwnerID:     userID,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	project.Tasks = []domain.Task{}

	span.SetAttributes(attribute.String("project.id", project.ID))
	return project, nil
}

func (s *projectService) ListByOwner(ctx context.Context, userID string) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "project.list")
	defer span.End()

	projects, err := s.projects.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		tasks, err := s.tasks.ListByProject(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].Tasks = tasks
	}
	return projects, nil
}

func (s *projectService) Update(ctx context.Context, userID, projectID string, patch ProjectPatch) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "project.update")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	project, err := s.ownership.RequireProjectOwner(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Invalid("name", "Name cannot be empty")
		}
		project.Name = name
	}
	if patch.Description != nil {
		project.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		status, ok := domain.ParseProjectStatus(*patch.Status)
		if !ok {
			return nil, domain.Invalid("status", fmt.Sprintf("unknown project status %q", *patch.Status))
		}
		project.Status = status
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project's tasks before the project itself so no task
// outlives its parent.
func (s *projectService) Delete(ctx context.Context, userID, projectID string) error {
	ctx, span := tracer.Start(ctx, "project.delete")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if _, err := s.ownership.RequireProjectOwner(ctx, userID, projectID); err != nil {
		return err
	}

	removed, err := s.tasks.DeleteByProject(ctx, projectID)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int64("project.tasks_removed", removed))

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}

	if s.exporter != nil {
		if err := s.exporter.Purge(ctx, projectID); err != nil {
			span.RecordError(err)
		}
	}
	return nil
}

func (s *projectService) Export(ctx context.Context, userID, projectID string) (*Export, error) {
	ctx, span := tracer.Start(ctx, "project.export")
	defer span.End()

	if s.exporter == nil {
		return nil, fmt.Errorf("export storage not configured: %w", domain.ErrServiceUnavailable)
	}

	project, err := s.ownership.RequireProjectOwner(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	project.Tasks = tasks

	return s.exporter.Export(ctx, project)
}

func (s *projectService) ListExports(ctx context.Context, userID, projectID string) ([]Export, error) {
	if s.exporter == nil {
		return nil, fmt.Errorf("export storage not configured: %w", domain.ErrServiceUnavailable)
	}
	if _, err := s.ownership.RequireProjectOwner(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.exporter.List(ctx, projectID)
}

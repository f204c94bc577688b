package service

import (
	"context"
	"errors"
	"fmt"

	"projecthub/internal/domain"
	"projecthub/internal/repository"
)

// Ownership authorizes project mutations against the stored owner.
type Ownership struct {
	projects repository.ProjectRepository
}

func NewOwnership(projects repository.ProjectRepository) *Ownership {
	return &Ownership{projects: projects}
}

// RequireProjectOwner loads the project fresh from the repository and checks
// that userID owns it. It returns domain.ErrNotFound or domain.ErrForbidden.
func (o *Ownership) RequireProjectOwner(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	project, err := o.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if userID == "" || project.OwnerID != userID {
		return nil, domain.ErrForbidden
	}
	return project, nil
}

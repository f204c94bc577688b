package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"projecthub/internal/domain"
	"projecthub/internal/repository"
)

const (
	createProjectsTable = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	owner_id TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
	createProjectsOwnerIndex = `CREATE INDEX IF NOT EXISTS idx_projects_owner_id ON projects(owner_id)`
)

type ProjectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) repository.ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Init(ctx context.Context) error {
	if err := r.db.migrate(ctx, createProjectsTable, createProjectsOwnerIndex); err != nil {
		return fmt.Errorf("create projects table: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := r.db.exec(ctx, `
INSERT INTO projects (id, name, description, status, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.Name,
		project.Description,
		string(project.Status),
		project.OwnerID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.queryRow(ctx, `
SELECT id, name, description, status, owner_id, created_at, updated_at
FROM projects
WHERE id = ?`,
		id,
	)
	return scanProject(row)
}

func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	rows, err := r.db.query(ctx, `
SELECT id, name, description, status, owner_id, created_at, updated_at
FROM projects
WHERE owner_id = ?
ORDER BY created_at ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	project.UpdatedAt = time.Now().UTC()
	res, err := r.db.exec(ctx, `
UPDATE projects
SET name=?, description=?, status=?, updated_at=?
WHERE id=?`,
		project.Name,
		project.Description,
		string(project.Status),
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return expectAffected(res, "project")
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.exec(ctx, `DELETE FROM projects WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectAffected(res, "project")
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		project domain.Project
		status  string
	)
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&status,
		&project.OwnerID,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	project.Status = domain.ProjectStatus(status)
	return &project, nil
}

func expectAffected(res sql.Result, entity string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s %w", entity, domain.ErrNotFound)
	}
	return nil
}

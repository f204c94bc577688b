package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"projecthub/internal/domain"
	"projecthub/internal/repository"
)

const (
	createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	project_id TEXT NOT NULL REFERENCES projects(id),
	assigned_user_id TEXT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`
	createTasksProjectIndex  = `CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id)`
	createTasksAssigneeIndex = `CREATE INDEX IF NOT EXISTS idx_tasks_assigned_user_id ON tasks(assigned_user_id)`

	selectTaskColumns = `SELECT id, title, description, status, project_id, assigned_user_id, created_at, updated_at FROM tasks`
)

type TaskRepository struct {
	db *DB
}

func NewTaskRepository(db *DB) repository.TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if err := r.db.migrate(ctx, createTasksTable, createTasksProjectIndex, createTasksAssigneeIndex); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.db.exec(ctx, `
INSERT INTO tasks (id, title, description, status, project_id, assigned_user_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.ProjectID,
		nullString(task.AssignedUserID),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (*domain.Task, error) {
	return scanTask(r.db.queryRow(ctx, selectTaskColumns+` WHERE id = ?`, id))
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return r.list(ctx, selectTaskColumns+` WHERE project_id = ? ORDER BY created_at ASC, id ASC`, projectID)
}

func (r *TaskRepository) Filter(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AssignedUserID != "" {
		clauses = append(clauses, "assigned_user_id = ?")
		args = append(args, filter.AssignedUserID)
	}

	query := selectTaskColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"
	return r.list(ctx, query, args...)
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	task.UpdatedAt = time.Now().UTC()
	res, err := r.db.exec(ctx, `
UPDATE tasks
SET title=?, description=?, status=?, assigned_user_id=?, updated_at=?
WHERE id=?`,
		task.Title,
		task.Description,
		string(task.Status),
		nullString(task.AssignedUserID),
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res, "task")
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.exec(ctx, `DELETE FROM tasks WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res, "task")
}

func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	res, err := r.db.exec(ctx, `DELETE FROM tasks WHERE project_id=?`, projectID)
	if err != nil {
		return 0, fmt.Errorf("delete project tasks: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("project tasks rows affected: %w", err)
	}
	return aff, nil
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		assignee sql.NullString
	)
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.ProjectID,
		&assignee,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Status = domain.TaskStatus(status)
	if assignee.Valid {
		v := assignee.String
		task.AssignedUserID = &v
	}
	return &task, nil
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"projecthub/internal/domain"
	"projecthub/internal/storage"
)

const defaultExportURLExpiry = 15 * time.Minute

// ExportOptions configures where project snapshots are written.
type ExportOptions struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// Export describes a stored project snapshot.
type Export struct {
	Key         string
	Location    string
	URL         string
	Size        int64
	CreatedAt   time.Time
	URLExpireAt time.Time
}

// Exporter writes JSON snapshots of projects to object storage.
type Exporter struct {
	store storage.Service
	opts  ExportOptions
	now   func() time.Time
}

func NewExporter(store storage.Service, opts ExportOptions) *Exporter {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = defaultExportURLExpiry
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &Exporter{store: store, opts: opts, now: time.Now}
}

type projectSnapshot struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	OwnerID     string         `json:"userId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	ExportedAt  time.Time      `json:"exportedAt"`
	Tasks       []taskSnapshot `json:"tasks"`
}

type taskSnapshot struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	AssignedUserID *string   `json:"assignedUserId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (e *Exporter) Export(ctx context.Context, project *domain.Project) (*Export, error) {
	exportedAt := e.now().UTC()
	snapshot := projectSnapshot{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      string(project.Status),
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
		ExportedAt:  exportedAt,
		Tasks:       make([]taskSnapshot, len(project.Tasks)),
	}
	for i, task := range project.Tasks {
		snapshot.Tasks[i] = taskSnapshot{
			ID:             task.ID,
			Title:          task.Title,
			Description:    task.Description,
			Status:         string(task.Status),
			AssignedUserID: task.AssignedUserID,
			CreatedAt:      task.CreatedAt,
			UpdatedAt:      task.UpdatedAt,
		}
	}

	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(e.projectPrefix(project.ID), exportedAt.Format("20060102T150405.000000000Z")+".json")
	location, err := e.store.PutObject(ctx, e.opts.Bucket, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	url, err := e.store.GetObjectURL(ctx, e.opts.Bucket, key, e.opts.URLExpiry)
	if err != nil {
		return nil, err
	}

	return &Export{
		Key:         key,
		Location:    location,
		URL:         url,
		Size:        int64(len(body)),
		CreatedAt:   exportedAt,
		URLExpireAt: exportedAt.Add(e.opts.URLExpiry),
	}, nil
}

func (e *Exporter) List(ctx context.Context, projectID string) ([]Export, error) {
	objects, err := e.store.ListObjects(ctx, e.opts.Bucket, e.projectPrefix(projectID)+"/")
	if err != nil {
		return nil, err
	}
	exports := make([]Export, 0, len(objects))
	for _, obj := range objects {
		url, err := e.store.GetObjectURL(ctx, e.opts.Bucket, obj.Key, e.opts.URLExpiry)
		if err != nil {
			return nil, err
		}
		exp := Export{
			Key:         obj.Key,
			Location:    fmt.Sprintf("s3://%s/%s", e.opts.Bucket, obj.Key),
			URL:         url,
			Size:        obj.Size,
			URLExpireAt: e.now().UTC().Add(e.opts.URLExpiry),
		}
		if obj.LastModified != nil {
			exp.CreatedAt = obj.LastModified.UTC()
		}
		exports = append(exports, exp)
	}
	return exports, nil
}

// Purge removes every stored snapshot of the project.
func (e *Exporter) Purge(ctx context.Context, projectID string) error {
	return e.store.DeletePrefix(ctx, e.opts.Bucket, e.projectPrefix(projectID)+"/")
}

func (e *Exporter) projectPrefix(projectID string) string {
	if e.opts.KeyPrefix == "" {
		return projectID
	}
	return e.opts.KeyPrefix + "/" + projectID
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"projecthub/internal/domain"
)

func TestProjectCreate_Defaults(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "Ada", "ada@x.com")

	project, err := env.project.Create(context.Background(), owner.ID, ProjectInput{Name: " Apollo ", Description: "moon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.Status != domain.ProjectStatusPlanned {
		t.Errorf("expected default status PLANNED, got %s", project.Status)
	}
	if project.OwnerID != owner.ID || project.Name != "Apollo" {
		t.Errorf("unexpected project: %+v", project)
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.register(t, "Ada", "ada@x.com")
	ctx := context.Background()

	if _, err := env.project.Create(ctx, owner.ID, ProjectInput{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for missing name, got %v", err)
	}
	if _, err := env.project.Create(ctx, owner.ID, ProjectInput{Name: "x", Status: "SOMEDAY"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
	project, err := env.project.Create(ctx, owner.ID, ProjectInput{Name: "x", Status: "in_progress"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.Status != domain.ProjectStatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", project.Status)
	}
}

func TestProjectListByOwner_IncludesTasks(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@x.com")
	bob := env.register(t, "Bob", "bob@x.com")
	project := env.createProject(t, ada.ID)
	env.createTask(t, ada.ID, project.ID)
	env.createTask(t, ada.ID, project.ID)
	env.createProject(t, bob.ID)

	projects, err := env.project.ListByOwner(context.Background(), ada.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	if len(projects[0].Tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(projects[0].Tasks))
	}
}

func TestProjectUpdate_Ownership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@x.com")
	bob := env.register(t, "Bob", "bob@x.com")
	project := env.createProject(t, ada.ID)
	name := "Gemini"

	if _, err := env.project.Update(ctx, bob.ID, project.ID, ProjectPatch{Name: &name}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}

	status := "completed"
	updated, err := env.project.Update(ctx, ada.ID, project.ID, ProjectPatch{Name: &name, Status: &status})
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.Name != "Gemini" || updated.Status != domain.ProjectStatusCompleted {
		t.Errorf("unexpected project: %+v", updated)
	}

	if _, err := env.project.Update(ctx, ada.ID, "missing", ProjectPatch{Name: &name}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectUpdate_ReadsCurrentOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@x.com")
	bob := env.register(t, "Bob", "bob@x.com")
	project := env.createProject(t, ada.ID)

	// hand the project to bob behind the service's back
	stored, err := env.projects.Get(ctx, project.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	stored.OwnerID = bob.ID
	if err := env.projects.Delete(ctx, project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := env.projects.Create(ctx, stored); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	desc := "changed"
	if _, err := env.project.Update(ctx, ada.ID, project.ID, ProjectPatch{Description: &desc}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for previous owner, got %v", err)
	}
	if _, err := env.project.Update(ctx, bob.ID, project.ID, ProjectPatch{Description: &desc}); err != nil {
		t.Fatalf("expected new owner to succeed, got %v", err)
	}
}

func TestProjectDelete_CascadesTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@x.com")
	bob := env.register(t, "Bob", "bob@x.com")
	project := env.createProject(t, ada.ID)
	for i := 0; i < 5; i++ {
		env.createTask(t, ada.ID, project.ID)
	}

	if err := env.project.Delete(ctx, bob.ID, project.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := env.project.Delete(ctx, ada.ID, project.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	remaining, err := env.task.Filter(ctx, "", "")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	for _, task := range remaining {
		if task.ProjectID == project.ID {
			t.Fatalf("task %s outlived its project", task.ID)
		}
	}
	if _, err := env.projects.Get(ctx, project.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected project gone, got %v", err)
	}
	if err := env.project.Delete(ctx, ada.ID, project.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting again, got %v", err)
	}
}

func TestProjectExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := env.register(t, "Ada", "ada@x.com")
	bob := env.register(t, "Bob", "bob@x.com")
	project := env.createProject(t, ada.ID)
	env.createTask(t, ada.ID, project.ID)

	if _, err := env.project.Export(ctx, bob.ID, project.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	export, err := env.project.Export(ctx, ada.ID, project.ID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.HasPrefix(export.Key, "projects/"+project.ID+"/") {
		t.Errorf("unexpected export key %s", export.Key)
	}
	if export.URL == "" || export.Size == 0 {
		t.Errorf("unexpected export: %+v", export)
	}
	body := string(env.store.objects[export.Key])
	if !strings.Contains(body, `"name": "Apollo"`) || !strings.Contains(body, `"title": "Write docs"`) {
		t.Errorf("snapshot missing project data: %s", body)
	}

	exports, err := env.project.ListExports(ctx, ada.ID, project.ID)
	if err != nil {
		t.Fatalf("list exports: %v", err)
	}
	if len(exports) != 1 || exports[0].Key != export.Key {
		t.Fatalf("unexpected exports: %+v", exports)
	}

	if err := env.project.Delete(ctx, ada.ID, project.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(env.store.objects) != 0 {
		t.Errorf("expected exports purged with project, got %d objects", len(env.store.objects))
	}
}

func TestProjectExport_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	ada := env.register(t, "Ada", "ada@x.com")
	project := env.createProject(t, ada.ID)
	svc := NewProjectService(env.projects, env.tasks, NewOwnership(env.projects), nil)

	if _, err := svc.Export(context.Background(), ada.ID, project.ID); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if err := svc.Delete(context.Background(), ada.ID, project.ID); err != nil {
		t.Fatalf("delete without exporter: %v", err)
	}
}

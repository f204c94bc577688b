package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"projecthub/internal/auth"
	"projecthub/internal/domain"
	"projecthub/internal/repository"
	"projecthub/internal/repository/sqlstore"
	"projecthub/internal/storage"
)

type testEnv struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	tokens   *auth.TokenManager
	accounts AccountService
	project  ProjectService
	task     TaskService
	store    *memoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		users:    sqlstore.NewUserRepository(db),
		projects: sqlstore.NewProjectRepository(db),
		tasks:    sqlstore.NewTaskRepository(db),
		tokens:   auth.NewTokenManager("test-secret", auth.DefaultTokenTTL),
		store:    newMemoryStore(),
	}
	ctx := context.Background()
	for _, initRepo := range []func(context.Context) error{env.users.Init, env.projects.Init, env.tasks.Init} {
		if err := initRepo(ctx); err != nil {
			t.Fatalf("init repository: %v", err)
		}
	}

	env.accounts, err = NewAccountService(env.users, auth.NewPasswordHasher(auth.MinCost), env.tokens)
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	ownership := NewOwnership(env.projects)
	exporter := NewExporter(env.store, ExportOptions{Bucket: "exports", KeyPrefix: "projects"})
	env.project = NewProjectService(env.projects, env.tasks, ownership, exporter)
	env.task = NewTaskService(env.tasks, env.projects, ownership)
	return env
}

func (e *testEnv) register(t *testing.T, name, email string) *domain.User {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), name, email, "secret1")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func (e *testEnv) createProject(t *testing.T, ownerID string) *domain.Project {
	t.Helper()
	project, err := e.project.Create(context.Background(), ownerID, ProjectInput{Name: "Apollo"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func (e *testEnv) createTask(t *testing.T, ownerID, projectID string) *domain.Task {
	t.Helper()
	task, err := e.task.Create(context.Background(), ownerID, TaskInput{ProjectID: projectID, Title: "Write docs"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) PutObject(_ context.Context, bucket, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}

func (m *memoryStore) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) DeletePrefix(_ context.Context, _, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			delete(m.objects, key)
		}
	}
	return nil
}

func (m *memoryStore) GetObjectURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://%s.example.test/%s?expires=%d", bucket, key, int(expires.Seconds())), nil
}

var _ storage.Service = (*memoryStore)(nil)

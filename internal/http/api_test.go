package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"projecthub/internal/auth"
	"projecthub/internal/repository/sqlstore"
	"projecthub/internal/service"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	db     *sqlstore.DB
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlstore.NewUserRepository(db)
	projects := sqlstore.NewProjectRepository(db)
	tasks := sqlstore.NewTaskRepository(db)
	ctx := t.Context()
	if err := users.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := projects.Init(ctx); err != nil {
		t.Fatalf("init projects: %v", err)
	}
	if err := tasks.Init(ctx); err != nil {
		t.Fatalf("init tasks: %v", err)
	}

	tokens := auth.NewTokenManager(testSecret, auth.DefaultTokenTTL)
	accounts, err := service.NewAccountService(users, auth.NewPasswordHasher(auth.MinCost), tokens)
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	ownership := service.NewOwnership(projects)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		accounts,
		service.NewProjectService(projects, tasks, ownership, nil),
		service.NewTaskService(tasks, projects, ownership),
		tokens,
		logger,
		5*time.Second,
	)
	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{router: router, db: db, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// signup registers and logs in, returning "Bearer <token>" and the user id.
func (s *testServer) signup(t *testing.T, name, email string) (string, string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "secret1"})
	expectStatus(t, rec, http.StatusCreated)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "secret1"})
	expectStatus(t, rec, http.StatusOK)
	login := decode[LoginResponse](t, rec)
	return "Bearer " + login.Token, login.UserID
}

func (s *testServer) createProject(t *testing.T, token, name string) ProjectResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/projects", token, gin.H{"name": name, "description": "desc"})
	expectStatus(t, rec, http.StatusCreated)
	return decode[ProjectResponse](t, rec)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ada", "email": "ada@x.com", "password": "secret1"})
	expectStatus(t, rec, http.StatusCreated)
	if strings.Contains(strings.ToLower(rec.Body.String()), "password") {
		t.Fatalf("register response leaks password data: %s", rec.Body.String())
	}
	body := decode[struct {
		User UserResponse `json:"user"`
	}](t, rec)
	if body.User.Name != "Ada" || body.User.Email != "ada@x.com" {
		t.Errorf("unexpected user: %+v", body.User)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@x.com", "password": "wrong"})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[errorResponse](t, rec); got.Code != CodeInvalidCredentials {
		t.Errorf("expected INVALID_CREDENTIALS, got %+v", got)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@x.com", "password": "secret1"})
	expectStatus(t, rec, http.StatusOK)
	login := decode[LoginResponse](t, rec)
	if login.Token == "" || login.UserID != body.User.ID {
		t.Fatalf("unexpected login response: %+v", login)
	}
}

func TestRegister_DuplicateAndValidation(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@x.com")

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ada", "email": "ada@x.com", "password": "secret1"})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[errorResponse](t, rec); got.Code != CodeDuplicateAccount {
		t.Errorf("expected DUPLICATE_ACCOUNT, got %+v", got)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Bob", "email": "bob@x.com", "password": "123"})
	expectStatus(t, rec, http.StatusBadRequest)
	if got := decode[errorResponse](t, rec); got.Code != CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %+v", got)
	}
}

func TestGateway(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signup(t, "Ada", "ada@x.com")
	raw := strings.TrimPrefix(token, "Bearer ")

	tests := []struct {
		name   string
		header string
		want   int
		code   Code
	}{
		{"missing", "", http.StatusUnauthorized, CodeUnauthenticated},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, CodeUnauthenticated},
		{"garbage", "Bearer not-a-token", http.StatusBadRequest, CodeInvalidToken},
		{"with prefix", token, http.StatusOK, ""},
		{"without prefix", raw, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/projects", tt.header, nil)
			expectStatus(t, rec, tt.want)
			if tt.code != "" {
				if got := decode[errorResponse](t, rec); got.Code != tt.code {
					t.Errorf("expected %s, got %+v", tt.code, got)
				}
			}
		})
	}
}

func TestGateway_ForeignAndExpiredTokens(t *testing.T) {
	s := newTestServer(t)
	_, userID := s.signup(t, "Ada", "ada@x.com")

	foreign, _, err := auth.NewTokenManager("other-secret", time.Hour).Issue(userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec := s.do(t, http.MethodGet, "/api/projects", "Bearer "+foreign, nil)
	expectStatus(t, rec, http.StatusBadRequest)

	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _, err := auth.NewTokenManager(testSecret, auth.DefaultTokenTTL, auth.WithClock(past)).Issue(userID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec = s.do(t, http.MethodGet, "/api/projects", "Bearer "+expired, nil)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestProjectOwnership(t *testing.T) {
	s := newTestServer(t)
	ada, _ := s.signup(t, "Ada", "ada@x.com")
	bob, _ := s.signup(t, "Bob", "bob@x.com")
	project := s.createProject(t, ada, "Apollo")
	if project.Status != "PLANNED" {
		t.Errorf("expected default status PLANNED, got %s", project.Status)
	}

	rec := s.do(t, http.MethodPut, "/api/projects/"+project.ID, bob, gin.H{"name": "Hijacked"})
	expectStatus(t, rec, http.StatusForbidden)
	rec = s.do(t, http.MethodDelete, "/api/projects/"+project.ID, bob, nil)
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodPut, "/api/projects/"+project.ID, ada, gin.H{"status": "IN_PROGRESS"})
	expectStatus(t, rec, http.StatusOK)
	updated := decode[ProjectResponse](t, rec)
	if updated.Status != "IN_PROGRESS" || updated.Name != "Apollo" {
		t.Errorf("unexpected project: %+v", updated)
	}

	rec = s.do(t, http.MethodPut, "/api/projects/missing", ada, gin.H{"name": "x"})
	expectStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodGet, "/api/projects", bob, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]ProjectResponse](t, rec); len(got) != 0 {
		t.Errorf("bob should see no projects, got %d", len(got))
	}
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t)
	ada, adaID := s.signup(t, "Ada", "ada@x.com")
	bob, _ := s.signup(t, "Bob", "bob@x.com")
	project := s.createProject(t, ada, "Apollo")

	rec := s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/tasks", ada, gin.H{"title": "Design", "assignedUserId": adaID})
	expectStatus(t, rec, http.StatusCreated)
	first := decode[TaskResponse](t, rec)
	if first.Status != "TODO" || first.ProjectID != project.ID {
		t.Errorf("unexpected task: %+v", first)
	}

	rec = s.do(t, http.MethodPost, "/api/tasks", ada, gin.H{"title": "Build", "projectId": project.ID, "status": "IN_PROGRESS"})
	expectStatus(t, rec, http.StatusCreated)
	second := decode[TaskResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/api/tasks", ada, gin.H{"title": "Orphan", "projectId": "missing"})
	expectStatus(t, rec, http.StatusNotFound)
	if got := decode[errorResponse](t, rec); got.Error != "Project not found" {
		t.Errorf("unexpected message %q", got.Error)
	}

	rec = s.do(t, http.MethodPost, "/api/tasks", bob, gin.H{"title": "Sneaky", "projectId": project.ID})
	expectStatus(t, rec, http.StatusForbidden)

	rec = s.do(t, http.MethodGet, "/api/tasks/project/"+project.ID, bob, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]TaskResponse](t, rec); len(got) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(got))
	}

	rec = s.do(t, http.MethodGet, "/api/tasks/"+first.ID, ada, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/tasks?status=todo", ada, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]TaskResponse](t, rec); len(got) != 1 || got[0].ID != first.ID {
		t.Errorf("unexpected status filter result: %+v", got)
	}
	rec = s.do(t, http.MethodGet, "/api/tasks?assignedUserId="+adaID, ada, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]TaskResponse](t, rec); len(got) != 1 {
		t.Errorf("expected 1 assigned task, got %d", len(got))
	}

	rec = s.do(t, http.MethodPut, "/api/tasks/"+second.ID, bob, gin.H{"status": "DONE"})
	expectStatus(t, rec, http.StatusForbidden)
	rec = s.do(t, http.MethodPut, "/api/tasks/"+second.ID, ada, gin.H{"status": "DONE"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[TaskResponse](t, rec); got.Status != "DONE" || got.Title != "Build" {
		t.Errorf("unexpected task: %+v", got)
	}

	rec = s.do(t, http.MethodDelete, "/api/tasks/"+second.ID, ada, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(t, http.MethodGet, "/api/tasks/"+second.ID, ada, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestDeleteProject_RemovesTasks(t *testing.T) {
	s := newTestServer(t)
	ada, _ := s.signup(t, "Ada", "ada@x.com")
	project := s.createProject(t, ada, "Apollo")
	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/tasks", ada, gin.H{"title": "t"})
		expectStatus(t, rec, http.StatusCreated)
	}

	rec := s.do(t, http.MethodGet, "/api/projects", ada, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[[]ProjectResponse](t, rec); len(got) != 1 || len(got[0].Tasks) != 3 {
		t.Fatalf("expected project with 3 tasks, got %+v", got)
	}

	rec = s.do(t, http.MethodDelete, "/api/projects/"+project.ID, ada, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(t, http.MethodGet, "/api/tasks", ada, nil)
	expectStatus(t, rec, http.StatusOK)
	for _, task := range decode[[]TaskResponse](t, rec) {
		if task.ProjectID == project.ID {
			t.Fatalf("task %s outlived project", task.ID)
		}
	}
}

func TestExport_NotConfigured(t *testing.T) {
	s := newTestServer(t)
	ada, _ := s.signup(t, "Ada", "ada@x.com")
	project := s.createProject(t, ada, "Apollo")

	rec := s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/export", ada, nil)
	expectStatus(t, rec, http.StatusServiceUnavailable)
	if got := decode[errorResponse](t, rec); got.ErrorID == "" {
		t.Error("expected error id on 503 response")
	}
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	s := newTestServer(t)
	ada, _ := s.signup(t, "Ada", "ada@x.com")
	s.db.Close()

	rec := s.do(t, http.MethodGet, "/api/projects", ada, nil)
	expectStatus(t, rec, http.StatusInternalServerError)
	got := decode[errorResponse](t, rec)
	if got.Code != CodeInternal || got.ErrorID == "" {
		t.Errorf("unexpected error body: %+v", got)
	}
	if strings.Contains(rec.Body.String(), "sql") {
		t.Errorf("response leaks driver details: %s", rec.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":              "",
		"Bearer abc":    "abc",
		"abc":           "abc",
		"  Bearer abc ": "abc",
		"Bearer ":       "",
	}
	for in, want := range tests {
		if got := bearerToken(in); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}

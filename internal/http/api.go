package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"projecthub/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts       service.AccountService
	projects       service.ProjectService
	tasks          service.TaskService
	tokens         TokenVerifier
	logger         *logrus.Logger
	requestTimeout time.Duration
}

func NewHandler(accounts service.AccountService, projects service.ProjectService, tasks service.TaskService, tokens TokenVerifier, logger *logrus.Logger, requestTimeout time.Duration) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		accounts:       accounts,
		projects:       projects,
		tasks:          tasks,
		tokens:         tokens,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), accessLog(h.logger))
	if h.requestTimeout > 0 {
		router.Use(requestTimeout(h.requestTimeout))
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Project Management API is running...")
	})

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}

	projects := api.Group("/projects", RequireAuth(h.tokens))
	{
		projects.POST("", h.createProject)
		projects.GET("", h.listProjects)
		projects.PUT("/:id", h.updateProject)
		projects.DELETE("/:id", h.deleteProject)
		projects.POST("/:id/tasks", h.createProjectTask)
		projects.POST("/:id/export", h.exportProject)
		projects.GET("/:id/exports", h.listExports)
	}

	tasks := api.Group("/tasks", RequireAuth(h.tokens))
	{
		tasks.POST("", h.createTask)
		tasks.GET("", h.filterTasks)
		tasks.GET("/project/:projectId", h.listProjectTasks)
		tasks.GET("/:id", h.getTask)
		tasks.PUT("/:id", h.updateTask)
		tasks.DELETE("/:id", h.deleteTask)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

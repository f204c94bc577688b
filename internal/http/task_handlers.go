package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/domain"
	"projecthub/internal/service"
)

type createTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	AssignedUserID string `json:"assignedUserId"`
	ProjectID      string `json:"projectId"`
}

type updateTaskRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	AssignedUserID *string `json:"assignedUserId"`
}

func (h *Handler) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("", "Invalid request payload"))
		return
	}
	h.insertTask(c, req)
}

// createProjectTask is createTask with the project taken from the path.
func (h *Handler) createProjectTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("", "Invalid request payload"))
		return
	}
	req.ProjectID = c.Param("id")
	h.insertTask(c, req)
}

func (h *Handler) insertTask(c *gin.Context, req createTaskRequest) {
	task, err := h.tasks.Create(c.Request.Context(), principalFrom(c).UserID, service.TaskInput{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskToResponse(*task))
}

func (h *Handler) listProjectTasks(c *gin.Context) {
	tasks, err := h.tasks.ListByProject(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponse(tasks))
}

func (h *Handler) getTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

func (h *Handler) updateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("", "Invalid request payload"))
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), principalFrom(c).UserID, c.Param("id"), service.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(*task))
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), principalFrom(c).UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (h *Handler) filterTasks(c *gin.Context) {
	tasks, err := h.tasks.Filter(c.Request.Context(), c.Query("status"), c.Query("assignedUserId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponse(tasks))
}

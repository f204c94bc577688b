package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projecthub/internal/domain"
	"projecthub/internal/service"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("", "Invalid request payload"))
		return
	}

	project, err := h.projects.Create(c.Request.Context(), principalFrom(c).UserID, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, projectToResponse(*project))
}

func (h *Handler) listProjects(c *gin.Context) {
	projects, err := h.projects.ListByOwner(c.Request.Context(), principalFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ProjectResponse, len(projects))
	for i := range projects {
		resp[i] = projectToResponse(projects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, domain.Invalid("", "Invalid request payload"))
		return
	}

	project, err := h.projects.Update(c.Request.Context(), principalFrom(c).UserID, c.Param("id"), service.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, projectToResponse(*project))
}

func (h *Handler) deleteProject(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), principalFrom(c).UserID, c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (h *Handler) exportProject(c *gin.Context) {
	export, err := h.projects.Export(c.Request.Context(), principalFrom(c).UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, exportToResponse(*export))
}

func (h *Handler) listExports(c *gin.Context) {
	exports, err := h.projects.ListExports(c.Request.Context(), principalFrom(c).UserID, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := make([]ExportResponse, len(exports))
	for i := range exports {
		resp[i] = exportToResponse(exports[i])
	}
	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/dto"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
	"github.com/yukikurage/project-task-api/internal/middleware"
	"github.com/yukikurage/project-task-api/internal/services"
	"github.com/yukikurage/project-task-api/internal/utils"
)

// ProjectHandler serves the owner-scoped project endpoints.
type ProjectHandler struct {
	projects *services.ProjectService
	cascade  *services.CascadeService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects *services.ProjectService, cascade *services.CascadeService) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		cascade:  cascade,
	}
}

// CreateProject creates a project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Project name is required")
		return
	}

	date, err := services.ParseDate("date", req.Date)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), services.CreateProjectInput{
		OwnerID:       userID,
		Name:          req.Name,
		Description:   req.Description,
		Date:          date,
		Collaborators: req.Collaborators,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Project created successfully",
		"project": dto.ToProjectDTO(*project),
	})
}

// ListProjects returns the caller's projects, newest first.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projects.ListProjects(c.Request.Context(), userID, params)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	counts, err := h.projects.TaskCounts(c.Request.Context(), projects)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"projects":   dto.ToProjectSummaryDTOs(projects, counts),
		"pagination": params.Response(total),
	})
}

// GetProject returns one owned project with its tasks.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	project, tasks, err := h.projects.GetProject(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"project": dto.ToProjectDTO(*project),
		"tasks":   dto.ToTaskDTOs(tasks),
	})
}

// UpdateProject updates name, description or date of an owned project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := services.ParseDate("date", *req.Date)
		if err != nil {
			respondProjectError(c, err)
			return
		}
		input.Date = date
		input.ClearDate = date == nil
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project updated successfully",
		"project": dto.ToProjectDTO(*project),
	})
}

// DeleteProject removes an owned project and its tasks.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	report, err := h.cascade.DeleteProject(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project and associated tasks deleted successfully",
		"deleted": report,
	})
}

func respondProjectError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrProjectNameTaken):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyExists, "A project with this name already exists")
	case errors.Is(err, services.ErrProjectNotFound):
		// foreign projects are reported as missing
		apierrors.NotFound(c, "Project not found")
	default:
		respondInternal(c, err)
	}
}

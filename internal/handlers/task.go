package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-task-api/internal/dto"
	apierrors "github.com/yukikurage/project-task-api/internal/errors"
	"github.com/yukikurage/project-task-api/internal/middleware"
	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/services"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
	}
}

// CreateTask creates a task in the project named by :projectId
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Task title is required")
		return
	}

	dueDate, err := services.ParseDate("dueDate", req.DueDate)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), services.CreateTaskInput{
		OwnerID:     userID,
		ProjectID:   c.Param("projectId"),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		DueDate:     dueDate,
		AssignedTo:  emptyAsNil(req.AssignedTo),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"data":    dto.ToTaskDTO(*task),
	})
}

// ListTasks returns the tasks of the project named by :projectId
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tasks, err := h.tasks.ListTasks(c.Request.Context(), userID, c.Param("projectId"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToTaskDTOs(tasks),
	})
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.DueDate != nil {
		dueDate, err := services.ParseDate("dueDate", *req.DueDate)
		if err != nil {
			respondTaskError(c, err)
			return
		}
		input.DueDate = dueDate
		input.ClearDueDate = dueDate == nil
	}
	if req.AssignedTo != nil {
		input.AssignedTo = emptyAsNil(req.AssignedTo)
		input.ClearAssignee = input.AssignedTo == nil
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"data":    dto.ToTaskDTO(*task),
	})
}

// ToggleTask flips the status of a task
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, err := h.tasks.ToggleTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task status updated",
		"data":    dto.ToTaskDTO(*task),
	})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.tasks.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}

func emptyAsNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func respondTaskError(c *gin.Context, err error) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	default:
		respondInternal(c, err)
	}
}

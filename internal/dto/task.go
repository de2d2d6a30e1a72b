package dto

import (
	"time"

	"github.com/yukikurage/project-task-api/internal/models"
)

// CreateTaskRequest is the body of POST /api/task/:projectId
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     string  `json:"dueDate"`
	AssignedTo  *string `json:"assignedTo"`
}

// UpdateTaskRequest is the body of PUT /api/task/:id. Absent fields are
// left unchanged; an empty dueDate or assignedTo clears it.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	DueDate     *string `json:"dueDate"`
	AssignedTo  *string `json:"assignedTo"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	DueDate     *time.Time        `json:"dueDate"`
	ProjectID   string            `json:"projectId"`
	AssignedTo  *string           `json:"assignedTo"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		DueDate:     task.DueDate,
		ProjectID:   task.ProjectID,
		AssignedTo:  task.AssignedTo,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

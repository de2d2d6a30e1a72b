package dto

import (
	"time"

	"github.com/yukikurage/project-task-api/internal/models"
)

// CreateProjectRequest is the body of POST /api/project
type CreateProjectRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	Date          string   `json:"date"`
	Collaborators []string `json:"collaborators"`
}

// UpdateProjectRequest is the body of PUT /api/project/:id. Absent fields
// are left unchanged; an empty date clears it.
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Date          *time.Time `json:"date"`
	OwnerID       string     `json:"ownerId"`
	Collaborators []string   `json:"collaborators"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	collaborators := project.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}
	return ProjectDTO{
		ID:            project.ID,
		Name:          project.Name,
		Description:   project.Description,
		Date:          project.Date,
		OwnerID:       project.OwnerID,
		Collaborators: collaborators,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}
}

// ProjectSummaryDTO is a listed project with the size of its task list
type ProjectSummaryDTO struct {
	ProjectDTO
	TaskCount int64 `json:"taskCount"`
}

// ToProjectSummaryDTOs converts listed projects, taking task counts from counts
func ToProjectSummaryDTOs(projects []models.Project, counts map[string]int64) []ProjectSummaryDTO {
	items := make([]ProjectSummaryDTO, len(projects))
	for i, project := range projects {
		items[i] = ProjectSummaryDTO{
			ProjectDTO: ToProjectDTO(project),
			TaskCount:  counts[project.ID],
		}
	}
	return items
}

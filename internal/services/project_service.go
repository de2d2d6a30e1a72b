package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/yukikurage/project-task-api/internal/constants"
	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/repository"
	"github.com/yukikurage/project-task-api/internal/utils"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectNameTaken = errors.New("a project with this name already exists")
)

// ProjectService provides owner-scoped project operations.
type ProjectService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	now      func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projects repository.ProjectRepository, tasks repository.TaskRepository) *ProjectService {
	return &ProjectService{
		projects: projects,
		tasks:    tasks,
		now:      time.Now,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	OwnerID       string
	Name          string
	Description   string
	Date          *time.Time
	Collaborators []string
}

// UpdateProjectInput represents the fields a project owner may change.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Date        *time.Time
	ClearDate   bool
}

func validateProjectName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n < constants.MinProjectNameLength || n > constants.MaxProjectNameLength {
		return "", invalid("name", "project name must be between %d and %d characters",
			constants.MinProjectNameLength, constants.MaxProjectNameLength)
	}
	return name, nil
}

// CreateProject creates a project owned by input.OwnerID.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	name, err := validateProjectName(input.Name)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameAvailable(ctx, input.OwnerID, name, ""); err != nil {
		return nil, err
	}

	collaborators := input.Collaborators
	if collaborators == nil {
		collaborators = []string{}
	}

	now := s.now().UTC()
	project := &models.Project{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Date:          input.Date,
		OwnerID:       input.OwnerID,
		Collaborators: collaborators,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.projects.Create(ctx, project); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrProjectNameTaken
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjects returns one page of the owner's projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, ownerID string, page utils.PaginationParams) ([]models.Project, int64, error) {
	projects, total, err := s.projects.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// TaskCounts returns the number of tasks of each listed project, keyed by project ID.
func (s *ProjectService) TaskCounts(ctx context.Context, projects []models.Project) (map[string]int64, error) {
	counts := make(map[string]int64, len(projects))
	for _, project := range projects {
		n, err := s.tasks.CountByProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks: %w", err)
		}
		counts[project.ID] = n
	}
	return counts, nil
}

// GetProject returns an owned project together with its tasks.
func (s *ProjectService) GetProject(ctx context.Context, ownerID, projectID string) (*models.Project, []models.Task, error) {
	project, err := s.findOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, nil, err
	}

	tasks, err := s.tasks.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list project tasks: %w", err)
	}

	return project, tasks, nil
}

// UpdateProject updates an owned project. Ownership is checked on every call.
func (s *ProjectService) UpdateProject(ctx context.Context, ownerID, projectID string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.findOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateProjectName(*input.Name)
		if err != nil {
			return nil, err
		}
		if name != project.Name {
			if err := s.ensureNameAvailable(ctx, ownerID, name, project.ID); err != nil {
				return nil, err
			}
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.ClearDate {
		project.Date = nil
	} else if input.Date != nil {
		project.Date = input.Date
	}
	project.UpdatedAt = s.now().UTC()

	if err := s.projects.UpdateOwned(ctx, project); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrProjectNameTaken
		default:
			return nil, fmt.Errorf("failed to update project: %w", err)
		}
	}

	return project, nil
}

func (s *ProjectService) findOwned(ctx context.Context, ownerID, projectID string) (*models.Project, error) {
	project, err := s.projects.FindOwned(ctx, projectID, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) ensureNameAvailable(ctx context.Context, ownerID, name, excludeID string) error {
	exists, err := s.projects.ExistsByName(ctx, ownerID, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check project name: %w", err)
	}
	if exists {
		return ErrProjectNameTaken
	}
	return nil
}

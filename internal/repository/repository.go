package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/utils"
)

var (
	// ErrNotFound is returned when no document matches the filter.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("repository: duplicate key")
)

// Store groups the repositories of one backend. Transaction runs fn as a
// single unit of work; fn must use the ctx and Store it receives.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Tasks() TaskRepository
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Delete removes a user and reports how many records were removed
	Delete(ctx context.Context, id string) (int64, error)
}

// ProjectRepository defines the interface for project data access.
// Every lookup is filtered by owner.
type ProjectRepository interface {
	// Create inserts a new project
	Create(ctx context.Context, project *models.Project) error

	// FindOwned finds a project by ID restricted to its owner
	FindOwned(ctx context.Context, id, ownerID string) (*models.Project, error)

	// ListByOwner lists an owner's projects, newest first
	ListByOwner(ctx context.Context, ownerID string, page utils.PaginationParams) ([]models.Project, int64, error)

	// ExistsByName reports whether the owner has another project with this name
	ExistsByName(ctx context.Context, ownerID, name, excludeID string) (bool, error)

	// UpdateOwned writes name, description and date of an owned project
	UpdateOwned(ctx context.Context, project *models.Project) error

	// IDsByOwner returns the IDs of every project the owner has
	IDsByOwner(ctx context.Context, ownerID string) ([]string, error)

	// DeleteOwned removes one owned project
	DeleteOwned(ctx context.Context, id, ownerID string) (int64, error)

	// DeleteByOwner removes every project of the owner
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// TaskRepository defines the interface for task data access.
// Every lookup is filtered by parent project.
type TaskRepository interface {
	// Create inserts a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// ListByProject lists a project's tasks, newest first
	ListByProject(ctx context.Context, projectID string) ([]models.Task, error)

	// Update writes the mutable fields of a task within its project
	Update(ctx context.Context, task *models.Task) error

	// DeleteInProject removes one task within its project
	DeleteInProject(ctx context.Context, id, projectID string) (int64, error)

	// DeleteByProjectIDs removes every task whose project is in ids
	DeleteByProjectIDs(ctx context.Context, ids []string) (int64, error)

	// DeleteByAssignee removes every task assigned to the user
	DeleteByAssignee(ctx context.Context, userID string) (int64, error)

	// CountByProject counts the tasks of a project
	CountByProject(ctx context.Context, projectID string) (int64, error)
}

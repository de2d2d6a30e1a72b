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
)

var ErrTaskNotFound = errors.New("task not found")

// TaskService handles task business logic. Every task is reached through
// a project owned by the caller.
type TaskService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks repository.TaskRepository, projects repository.ProjectRepository, users repository.UserRepository) *TaskService {
	return &TaskService{
		tasks:    tasks,
		projects: projects,
		users:    users,
		now:      time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	OwnerID     string
	ProjectID   string
	Title       string
	Description string
	Status      models.TaskStatus
	DueDate     *time.Time
	AssignedTo  *string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	DueDate       *time.Time
	ClearDueDate  bool
	AssignedTo    *string
	ClearAssignee bool
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", invalid("title", "title is required")
	}
	if utf8.RuneCountInString(title) > constants.MaxTaskTitleLength {
		return "", invalid("title", "title must be at most %d characters", constants.MaxTaskTitleLength)
	}
	return title, nil
}

func validateStatus(status models.TaskStatus) error {
	switch status {
	case models.TaskStatusPending, models.TaskStatusCompleted:
		return nil
	default:
		return invalid("status", "status must be %q or %q", models.TaskStatusPending, models.TaskStatusCompleted)
	}
}

// CreateTask creates a task inside an owned project
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if err := validateStatus(input.Status); err != nil {
		return nil, err
	}

	if err := s.ensureProjectOwned(ctx, input.OwnerID, input.ProjectID); err != nil {
		return nil, err
	}
	if err := s.ensureAssignee(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		DueDate:     input.DueDate,
		ProjectID:   input.ProjectID,
		AssignedTo:  input.AssignedTo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// ListTasks returns the tasks of an owned project, newest first
func (s *TaskService) ListTasks(ctx context.Context, ownerID, projectID string) ([]models.Task, error) {
	if err := s.ensureProjectOwned(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findOwnedTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if err := validateStatus(*input.Status); err != nil {
			return nil, err
		}
		task.Status = *input.Status
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearAssignee {
		task.AssignedTo = nil
	} else if input.AssignedTo != nil {
		if err := s.ensureAssignee(ctx, input.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = input.AssignedTo
	}

	return s.save(ctx, task)
}

// ToggleTask flips a task between pending and completed
func (s *TaskService) ToggleTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	task, err := s.findOwnedTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	task.Status = task.Status.Toggle()
	return s.save(ctx, task)
}

// DeleteTask deletes a task from an owned project
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	task, err := s.findOwnedTask(ctx, ownerID, taskID)
	if err != nil {
		return err
	}

	deleted, err := s.tasks.DeleteInProject(ctx, task.ID, task.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) (*models.Task, error) {
	task.UpdatedAt = s.now().UTC()
	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// findOwnedTask loads a task and checks that its project belongs to ownerID.
// Tasks of other owners are reported as not found.
func (s *TaskService) findOwnedTask(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if _, err := s.projects.FindOwned(ctx, task.ProjectID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureProjectOwned(ctx context.Context, ownerID, projectID string) error {
	if _, err := s.projects.FindOwned(ctx, projectID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	return nil
}

func (s *TaskService) ensureAssignee(ctx context.Context, userID *string) error {
	if userID == nil {
		return nil
	}
	if _, err := s.users.FindByID(ctx, *userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("assignedTo", "assigned user does not exist")
		}
		return fmt.Errorf("failed to find assignee: %w", err)
	}
	return nil
}

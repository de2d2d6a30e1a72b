package repository

import (
	"context"

	"github.com/yukikurage/project-task-api/internal/database"
	"github.com/yukikurage/project-task-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return translateGormError(r.db.WithContext(ctx).Create(task).Error)
}

// FindByID finds a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &task, nil
}

// ListByProject lists the tasks of a project
func (r *GormTaskRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Scopes(database.NewestFirst).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update updates a task inside its project
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND project_id = ?", task.ID, task.ProjectID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"due_date":    task.DueDate,
			"assigned_to": task.AssignedTo,
			"updated_at":  task.UpdatedAt,
		})
	if result.Error != nil {
		return translateGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInProject deletes a task inside its project
func (r *GormTaskRepository) DeleteInProject(ctx context.Context, id, projectID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", id, projectID).
		Delete(&models.Task{})
	return result.RowsAffected, translateGormError(result.Error)
}

// DeleteByProjectIDs deletes all tasks under the given projects
func (r *GormTaskRepository) DeleteByProjectIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("project_id IN ?", ids).
		Delete(&models.Task{})
	return result.RowsAffected, translateGormError(result.Error)
}

// DeleteByAssignee deletes all tasks assigned to the user
func (r *GormTaskRepository) DeleteByAssignee(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("assigned_to = ?", userID).
		Delete(&models.Task{})
	return result.RowsAffected, translateGormError(result.Error)
}

// CountByProject counts the tasks of a project
func (r *GormTaskRepository) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

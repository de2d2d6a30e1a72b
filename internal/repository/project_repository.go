package repository

import (
	"context"

	"github.com/yukikurage/project-task-api/internal/database"
	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/utils"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return translateGormError(r.db.WithContext(ctx).Create(project).Error)
}

// FindOwned finds a project by ID and owner
func (r *GormProjectRepository) FindOwned(ctx context.Context, id, ownerID string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&project).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &project, nil
}

// ListByOwner lists the owner's projects with pagination
func (r *GormProjectRepository) ListByOwner(ctx context.Context, ownerID string, page utils.PaginationParams) ([]models.Project, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Scopes(database.NewestFirst)
	if page.Limit > 0 {
		query = query.Scopes(database.Paginate(page))
	}

	projects := []models.Project{}
	if err := query.Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// ExistsByName checks for another project of the owner with the same name
func (r *GormProjectRepository) ExistsByName(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("owner_id = ? AND name = ?", ownerID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateOwned updates the mutable fields of an owned project
func (r *GormProjectRepository) UpdateOwned(ctx context.Context, project *models.Project) error {
	result := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ? AND owner_id = ?", project.ID, project.OwnerID).
		Updates(map[string]interface{}{
			"name":        project.Name,
			"description": project.Description,
			"date":        project.Date,
			"updated_at":  project.UpdatedAt,
		})
	if result.Error != nil {
		return translateGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IDsByOwner returns all project IDs of the owner
func (r *GormProjectRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	ids := []string{}
	if err := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteOwned deletes one owned project
func (r *GormProjectRepository) DeleteOwned(ctx context.Context, id, ownerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Project{})
	return result.RowsAffected, translateGormError(result.Error)
}

// DeleteByOwner deletes every project of the owner
func (r *GormProjectRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&models.Project{})
	return result.RowsAffected, translateGormError(result.Error)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new Store backed by a relational database.
// The db must be opened with TranslateError enabled so unique index
// violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository       { return NewUserRepository(s.db) }
func (s *GormStore) Projects() ProjectRepository { return NewProjectRepository(s.db) }
func (s *GormStore) Tasks() TaskRepository       { return NewTaskRepository(s.db) }

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormStore(tx))
	})
}

// translateGormError maps GORM errors onto the backend neutral errors
func translateGormError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

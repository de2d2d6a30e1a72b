package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/project-task-api/internal/database"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore is a MongoDB implementation of Store
type MongoStore struct {
	db           *mongo.Database
	transactions bool
}

// NewMongoStore creates a new Store backed by MongoDB. With transactions
// enabled (replica set deployments only) Transaction runs fn inside a
// multi-document transaction; otherwise fn runs as a plain step sequence.
func NewMongoStore(db *mongo.Database, transactions bool) *MongoStore {
	return &MongoStore{db: db, transactions: transactions}
}

func (s *MongoStore) Users() UserRepository {
	return &MongoUserRepository{coll: s.db.Collection(database.CollectionUsers)}
}

func (s *MongoStore) Projects() ProjectRepository {
	return &MongoProjectRepository{coll: s.db.Collection(database.CollectionProjects)}
}

func (s *MongoStore) Tasks() TaskRepository {
	return &MongoTaskRepository{coll: s.db.Collection(database.CollectionTasks)}
}

// Transaction runs fn as one unit of work
func (s *MongoStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if !s.transactions {
		return fn(ctx, s)
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx, s)
	})
	return err
}

// translateMongoError maps driver errors onto the backend neutral errors
func translateMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yukikurage/project-task-api/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo collection names
const (
	CollectionUsers    = "users"
	CollectionProjects = "projects"
	CollectionTasks    = "tasks"
)

type mongoIndex struct {
	collection string
	name       string
	keys       bson.D
	unique     bool
}

// mongoIndexes mirrors the unique and lookup indexes declared on the GORM models
var mongoIndexes = []mongoIndex{
	{CollectionUsers, "idx_users_email", bson.D{{Key: "email", Value: 1}}, true},
	{CollectionProjects, "idx_projects_owner_name", bson.D{{Key: "ownerId", Value: 1}, {Key: "name", Value: 1}}, true},
	{CollectionProjects, "idx_projects_owner_created", bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}, false},
	{CollectionTasks, "idx_tasks_project_id", bson.D{{Key: "projectId", Value: 1}}, false},
	{CollectionTasks, "idx_tasks_assigned_to", bson.D{{Key: "assignedTo", Value: 1}}, false},
}

// ConnectMongo connects to MongoDB and pings the primary
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("mongo connection established", "database", cfg.MongoDB)
	return client, nil
}

// EnsureMongoIndexes creates the indexes the stores rely on. CreateMany is
// a no-op for indexes that already exist with the same definition.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	byCollection := map[string][]mongo.IndexModel{}
	order := []string{}
	for _, idx := range mongoIndexes {
		if _, ok := byCollection[idx.collection]; !ok {
			order = append(order, idx.collection)
		}
		opts := options.Index().SetName(idx.name)
		if idx.unique {
			opts.SetUnique(true)
		}
		byCollection[idx.collection] = append(byCollection[idx.collection], mongo.IndexModel{
			Keys:    idx.keys,
			Options: opts,
		})
	}

	for _, coll := range order {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, byCollection[coll])
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		slog.Info("mongo indexes ensured", "collection", coll, "indexes", names)
	}
	return nil
}

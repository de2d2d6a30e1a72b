package repository

import (
	"context"

	"github.com/yukikurage/project-task-api/internal/models"
	"github.com/yukikurage/project-task-api/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

// MongoUserRepository is a MongoDB implementation of UserRepository
type MongoUserRepository struct {
	coll *mongo.Collection
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	return translateMongoError(err)
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateMongoError(err)
	}
	return &user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, translateMongoError(err)
	}
	return res.DeletedCount, nil
}

// MongoProjectRepository is a MongoDB implementation of ProjectRepository
type MongoProjectRepository struct {
	coll *mongo.Collection
}

func (r *MongoProjectRepository) Create(ctx context.Context, project *models.Project) error {
	_, err := r.coll.InsertOne(ctx, project)
	return translateMongoError(err)
}

func (r *MongoProjectRepository) FindOwned(ctx context.Context, id, ownerID string) (*models.Project, error) {
	var project models.Project
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&project)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &project, nil
}

func (r *MongoProjectRepository) ListByOwner(ctx context.Context, ownerID string, page utils.PaginationParams) ([]models.Project, int64, error) {
	filter := bson.M{"ownerId": ownerID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(newestFirst)
	if page.Limit > 0 {
		opts.SetSkip(int64(page.Offset)).SetLimit(int64(page.Limit))
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *MongoProjectRepository) ExistsByName(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	filter := bson.M{"ownerId": ownerID, "name": name}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoProjectRepository) UpdateOwned(ctx context.Context, project *models.Project) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": project.ID, "ownerId": project.OwnerID},
		bson.M{"$set": bson.M{
			"name":        project.Name,
			"description": project.Description,
			"date":        project.Date,
			"updatedAt":   project.UpdatedAt,
		}},
	)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProjectRepository) IDsByOwner(ctx context.Context, ownerID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *MongoProjectRepository) DeleteOwned(ctx context.Context, id, ownerID string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoProjectRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// MongoTaskRepository is a MongoDB implementation of TaskRepository
type MongoTaskRepository struct {
	coll *mongo.Collection
}

func (r *MongoTaskRepository) Create(ctx context.Context, task *models.Task) error {
	_, err := r.coll.InsertOne(ctx, task)
	return translateMongoError(err)
}

func (r *MongoTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task); err != nil {
		return nil, translateMongoError(err)
	}
	return &task, nil
}

func (r *MongoTaskRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"projectId": projectID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoTaskRepository) Update(ctx context.Context, task *models.Task) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": task.ID, "projectId": task.ProjectID},
		bson.M{"$set": bson.M{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"dueDate":     task.DueDate,
			"assignedTo":  task.AssignedTo,
			"updatedAt":   task.UpdatedAt,
		}},
	)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepository) DeleteInProject(ctx context.Context, id, projectID string) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "projectId": projectID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepository) DeleteByProjectIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"projectId": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepository) DeleteByAssignee(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"assignedTo": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoTaskRepository) CountByProject(ctx context.Context, projectID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"projectId": projectID})
}

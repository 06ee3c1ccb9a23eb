package mongodb

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProjectRepository struct {
	coll *mongo.Collection
}

func (r *ProjectRepository) Insert(ctx context.Context, project *models.Project) error {
	_, err := r.coll.InsertOne(ctx, project)
	return err
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	return findOne[models.Project](ctx, r.coll, bson.M{"_id": id})
}

func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Skip))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, listQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	projects := make([]models.Project, 0)
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func listQuery(filter models.ProjectFilter) bson.M {
	query := bson.M{}
	if filter.OwnerID != "" {
		query["user_id"] = filter.OwnerID
	}
	if len(filter.TechStack) > 0 {
		query["tech_stack"] = bson.M{"$in": filter.TechStack}
	}
	budget := bson.M{}
	if filter.MinBudget != nil {
		budget["$gte"] = *filter.MinBudget
	}
	if filter.MaxBudget != nil {
		budget["$lte"] = *filter.MaxBudget
	}
	if len(budget) > 0 {
		query["budget"] = budget
	}
	return query
}

func (r *ProjectRepository) Update(ctx context.Context, id string, update models.ProjectUpdate) (bool, error) {
	set := bson.M{}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Budget != nil {
		set["budget"] = *update.Budget
	}
	if update.TechStack != nil {
		set["tech_stack"] = update.TechStack
	}
	if update.Images != nil {
		set["images"] = update.Images
	}
	if len(set) == 0 {
		return false, nil
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *ProjectRepository) SetStatus(ctx context.Context, id string, status models.ProjectStatus) (bool, error) {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"status": status}})
}

// AddLike uses $addToSet so a user id is never stored twice.
func (r *ProjectRepository) AddLike(ctx context.Context, id, userID string) (bool, error) {
	return r.updateOne(ctx, id, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *ProjectRepository) RemoveLike(ctx context.Context, id, userID string) (bool, error) {
	return r.updateOne(ctx, id, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *ProjectRepository) AppendComment(ctx context.Context, id string, comment models.Comment) (bool, error) {
	return r.updateOne(ctx, id, bson.M{"$push": bson.M{"comments": comment}})
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *ProjectRepository) updateOne(ctx context.Context, id string, update bson.M) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

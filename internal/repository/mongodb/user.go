package mongodb

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepository struct {
	coll *mongo.Collection
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.coll, bson.M{"email": email})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (bool, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if len(set) == 0 {
		return false, nil
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) UpdateImage(ctx context.Context, id, image string) (bool, error) {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"image": image}})
}

func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *UserRepository) updateOne(ctx context.Context, id string, update bson.M) (bool, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

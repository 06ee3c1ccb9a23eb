package mongodb

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type RefreshTokenRepository struct {
	coll *mongo.Collection
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if _, err := r.coll.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *RefreshTokenRepository) FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	return findOne[models.RefreshToken](ctx, r.coll, bson.M{"token_hash": tokenHash, "revoked": false})
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"token_hash": tokenHash}, bson.M{"$set": bson.M{"revoked": true}})
	return err
}

func (r *RefreshTokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}

type LogRepository struct {
	coll *mongo.Collection
}

func (r *LogRepository) InsertLogs(ctx context.Context, logs []models.SystemLog) error {
	if len(logs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(logs))
	for i := range logs {
		docs[i] = logs[i]
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

func (r *LogRepository) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

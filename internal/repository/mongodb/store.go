package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	projectsCollection      = "projects"
	refreshTokensCollection = "refresh_tokens"
	systemLogsCollection    = "system_logs"
)

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store on a MongoDB database.
type Store struct {
	client        *mongo.Client
	users         *UserRepository
	projects      *ProjectRepository
	refreshTokens *RefreshTokenRepository
	logs          *LogRepository
}

func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:        client,
		users:         &UserRepository{coll: db.Collection(usersCollection)},
		projects:      &ProjectRepository{coll: db.Collection(projectsCollection)},
		refreshTokens: &RefreshTokenRepository{coll: db.Collection(refreshTokensCollection)},
		logs:          &LogRepository{coll: db.Collection(systemLogsCollection)},
	}
}

// EnsureIndexes creates the indexes listing and lookups rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users.coll: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.projects.coll: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tech_stack", Value: 1}}},
			{Keys: bson.D{{Key: "budget", Value: 1}}},
		},
		s.refreshTokens.coll: {
			{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		s.logs.coll: {
			{Keys: bson.D{{Key: "timestamp", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) Projects() repository.ProjectRepository           { return s.projects }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository { return s.refreshTokens }
func (s *Store) Logs() repository.LogRepository                   { return s.logs }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

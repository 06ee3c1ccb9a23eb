package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository persists identity records.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateProfile and UpdateImage report whether the stored record changed.
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (bool, error)
	UpdateImage(ctx context.Context, id, image string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ProjectRepository persists project documents. Every mutating method is a
// single atomic update of one document and reports whether it changed it.
type ProjectRepository interface {
	Insert(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	// List returns projects newest first; filtering happens in the store.
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Update(ctx context.Context, id string, update models.ProjectUpdate) (bool, error)
	SetStatus(ctx context.Context, id string, status models.ProjectStatus) (bool, error)
	AddLike(ctx context.Context, id, userID string) (bool, error)
	RemoveLike(ctx context.Context, id, userID string) (bool, error)
	AppendComment(ctx context.Context, id string, comment models.Comment) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// FindActive returns a non-revoked token by hash regardless of expiry.
	FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	DeleteForUser(ctx context.Context, userID string) error
}

type LogRepository interface {
	InsertLogs(ctx context.Context, logs []models.SystemLog) error
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the handle constructed once at startup and passed down to
// services, handlers and logging.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	RefreshTokens() RefreshTokenRepository
	Logs() LogRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

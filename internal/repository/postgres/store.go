package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var _ repository.Store = (*Store)(nil)

// Store implements repository.Store on PostgreSQL through GORM.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate runs AutoMigrate for all tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&userRow{},
		&projectRow{},
		&refreshTokenRow{},
		&systemLogRow{},
	)
}

func (s *Store) Users() repository.UserRepository       { return &UserRepository{db: s.db} }
func (s *Store) Projects() repository.ProjectRepository { return &ProjectRepository{db: s.db} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository {
	return &RefreshTokenRepository{db: s.db}
}
func (s *Store) Logs() repository.LogRepository { return &LogRepository{db: s.db} }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrDuplicate
	default:
		return err
	}
}

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(newUserRow(user)).Error)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.model(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (bool, error) {
	updates := map[string]interface{}{}
	changed := r.db.Where("1 = 0")
	if update.Name != nil {
		updates["name"] = *update.Name
		changed = changed.Or("name IS DISTINCT FROM ?", *update.Name)
	}
	if update.Bio != nil {
		updates["bio"] = *update.Bio
		changed = changed.Or("bio IS DISTINCT FROM ?", *update.Bio)
	}
	if len(updates) == 0 {
		return false, nil
	}
	// Rewriting identical values modifies nothing, as in the document store.
	res := r.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", id).
		Where(changed).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepository) UpdateImage(ctx context.Context, id, image string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ? AND image IS DISTINCT FROM ?", id, image).
		Update("image", image)
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRow{})
	return res.RowsAffected > 0, res.Error
}

type RefreshTokenRepository struct {
	db *gorm.DB
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	row := refreshTokenRow(*token)
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *RefreshTokenRepository) FindActive(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var row refreshTokenRow
	if err := r.db.WithContext(ctx).Where("token_hash = ? AND revoked = false", tokenHash).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	token := models.RefreshToken(row)
	return &token, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Model(&refreshTokenRow{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (r *RefreshTokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&refreshTokenRow{}).Error
}

type LogRepository struct {
	db *gorm.DB
}

func (r *LogRepository) InsertLogs(ctx context.Context, logs []models.SystemLog) error {
	if len(logs) == 0 {
		return nil
	}
	rows := make([]systemLogRow, len(logs))
	for i, l := range logs {
		rows[i] = systemLogRow{
			ID:        l.ID,
			Timestamp: l.Timestamp,
			Level:     l.Level,
			Message:   l.Message,
			RequestID: l.RequestID,
			UserID:    l.UserID,
			Action:    l.Action,
			Error:     l.Error,
			LatencyMs: l.LatencyMs,
			Extra:     datatypes.JSON("{}"),
		}
		if len(l.Extra) > 0 {
			if b, err := json.Marshal(l.Extra); err == nil {
				rows[i].Extra = datatypes.JSON(b)
			}
		}
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 50).Error
}

func (r *LogRepository) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where(`"timestamp" < ?`, cutoff).Delete(&systemLogRow{})
	return res.RowsAffected, res.Error
}

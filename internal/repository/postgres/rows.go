package postgres

import (
	"encoding/json"
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
	"gorm.io/datatypes"
)

type userRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Email          string    `gorm:"not null;size:255;uniqueIndex"`
	Name           string    `gorm:"not null;size:255"`
	HashedPassword string    `gorm:"not null"`
	IsActive       bool      `gorm:"not null;default:true"`
	CreatedAt      time.Time `gorm:"not null"`
	Image          *string   `gorm:"type:text"`
	Bio            *string   `gorm:"type:text"`
}

func (userRow) TableName() string { return "users" }

func newUserRow(u *models.User) *userRow {
	return &userRow{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		HashedPassword: u.HashedPassword,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		Image:          u.Image,
		Bio:            u.Bio,
	}
}

func (r *userRow) model() *models.User {
	return &models.User{
		ID:             r.ID,
		Email:          r.Email,
		Name:           r.Name,
		HashedPassword: r.HashedPassword,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		Image:          r.Image,
		Bio:            r.Bio,
	}
}

// commentJSON is the jsonb element layout of projects.comments.
type commentJSON struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// projectRow keeps the document shape: list-valued fields are jsonb columns.
type projectRow struct {
	ID          string                           `gorm:"primaryKey;size:36"`
	Title       string                           `gorm:"not null;size:255"`
	Description string                           `gorm:"type:text"`
	Budget      int                              `gorm:"not null;index"`
	TechStack   datatypes.JSONSlice[string]      `gorm:"type:jsonb;not null;default:'[]'"`
	Status      string                           `gorm:"size:20;not null;default:'OPEN'"`
	CreatedAt   time.Time                        `gorm:"not null;index"`
	UserID      string                           `gorm:"size:36;not null;index"`
	Images      datatypes.JSONSlice[string]      `gorm:"type:jsonb;not null;default:'[]'"`
	Likes       datatypes.JSONSlice[string]      `gorm:"type:jsonb;not null;default:'[]'"`
	Comments    datatypes.JSONSlice[commentJSON] `gorm:"type:jsonb;not null;default:'[]'"`
}

func (projectRow) TableName() string { return "projects" }

func newProjectRow(p *models.Project) *projectRow {
	comments := make([]commentJSON, len(p.Comments))
	for i, c := range p.Comments {
		comments[i] = commentJSON(c)
	}
	return &projectRow{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Budget:      p.Budget,
		TechStack:   nonNil(p.TechStack),
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UserID:      p.UserID,
		Images:      nonNil(p.Images),
		Likes:       nonNil(p.Likes),
		Comments:    comments,
	}
}

func (r *projectRow) model() *models.Project {
	comments := make([]models.Comment, len(r.Comments))
	for i, c := range r.Comments {
		comments[i] = models.Comment(c)
	}
	return &models.Project{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Budget:      r.Budget,
		TechStack:   r.TechStack,
		Status:      models.ProjectStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UserID:      r.UserID,
		Images:      r.Images,
		Likes:       r.Likes,
		Comments:    comments,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func commentArray(c models.Comment) (string, error) {
	b, err := json.Marshal([]commentJSON{commentJSON(c)})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type refreshTokenRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"default:false"`
	CreatedAt time.Time
}

func (refreshTokenRow) TableName() string { return "refresh_tokens" }

type systemLogRow struct {
	ID        string         `gorm:"primaryKey;size:36"`
	Timestamp time.Time      `gorm:"not null;index"`
	Level     string         `gorm:"size:10;not null;index"`
	Message   string         `gorm:"type:text"`
	RequestID string         `gorm:"size:64;index"`
	UserID    *string        `gorm:"size:36"`
	Action    string         `gorm:"size:100"`
	Error     string         `gorm:"type:text"`
	LatencyMs int
	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}

func (systemLogRow) TableName() string { return "system_logs" }

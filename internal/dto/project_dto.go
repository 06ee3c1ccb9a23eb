package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/models"
)

type ProjectCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Budget      *int     `json:"budget"`
	TechStack   []string `json:"tech_stack"`
	Images      []string `json:"images"`
}

// ProjectUpdateRequest is a partial update; absent or null fields are ignored.
type ProjectUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Budget      *int     `json:"budget"`
	TechStack   []string `json:"tech_stack"`
	Images      []string `json:"images"`
}

type ProjectStatusRequest struct {
	Status *models.ProjectStatus `json:"status"`
}

type CommentCreateRequest struct {
	Text string `json:"text"`
}

// ProjectListQuery holds parsed listing parameters.
type ProjectListQuery struct {
	Skip      int
	Limit     int
	TechStack []string
	MinBudget *int
	MaxBudget *int
}

type ProjectResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Budget      int                  `json:"budget"`
	TechStack   []string             `json:"tech_stack"`
	Status      models.ProjectStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UserID      string               `json:"user_id"`
	Images      []string             `json:"images"`
	Likes       int                  `json:"likes"`
	Comments    []CommentResponse    `json:"comments"`
}

type CommentResponse struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
	User      CommentUser `json:"user"`
}

// CommentUser is the commenter snapshot taken at read time.
type CommentUser struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

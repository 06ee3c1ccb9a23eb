package models

import "time"

type ProjectStatus string

const (
	StatusOpen      ProjectStatus = "OPEN"
	StatusCompleted ProjectStatus = "COMPLETED"
)

// Valid reports whether s is a known lifecycle status.
func (s ProjectStatus) Valid() bool {
	return s == StatusOpen || s == StatusCompleted
}

// Project is the persisted document. Likes holds raw user ids and comments
// reference their author by id only; shaping happens on the response path.
type Project struct {
	ID          string        `bson:"_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Budget      int           `bson:"budget"`
	TechStack   []string      `bson:"tech_stack"`
	Status      ProjectStatus `bson:"status"`
	CreatedAt   time.Time     `bson:"created_at"`
	UserID      string        `bson:"user_id"`
	Images      []string      `bson:"images"`
	Likes       []string      `bson:"likes"`
	Comments    []Comment     `bson:"comments"`
}

// LikedBy reports whether userID is in the likes set.
func (p *Project) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is embedded in a Project and never edited after append.
type Comment struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ProjectUpdate carries owner-editable fields; nil fields are left untouched.
type ProjectUpdate struct {
	Title       *string
	Description *string
	Budget      *int
	TechStack   []string
	Images      []string
}

// Empty reports whether the update sets nothing.
func (u ProjectUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Budget == nil &&
		u.TechStack == nil && u.Images == nil
}

// ProjectFilter selects projects for listing. Zero Limit means no limit.
type ProjectFilter struct {
	OwnerID   string
	TechStack []string
	MinBudget *int
	MaxBudget *int
	Skip      int
	Limit     int
}

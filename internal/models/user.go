package models

import "time"

// User is an identity record. Name, bio and image are the only mutable fields.
type User struct {
	ID             string    `bson:"_id" json:"id"`
	Email          string    `bson:"email" json:"email"`
	Name           string    `bson:"name" json:"name"`
	HashedPassword string    `bson:"hashed_password" json:"-"`
	IsActive       bool      `bson:"is_active" json:"is_active"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	Image          *string   `bson:"image,omitempty" json:"image"`
	Bio            *string   `bson:"bio,omitempty" json:"bio"`
}

// ProfileUpdate carries the profile fields to set; nil fields are left untouched.
type ProfileUpdate struct {
	Name *string
	Bio  *string
}

// Empty reports whether the update sets nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Bio == nil
}

// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an account in the social graph.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email     string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `gorm:"size:30" json:"first_name"`
	LastName  string `gorm:"size:30" json:"last_name"`
	Bio       string `gorm:"type:text" json:"bio"`
	Avatar    string `json:"avatar"`
	// AvatarKey is the object-store path of the avatar, used for cleanup.
	AvatarKey string `json:"-"`

	// FollowersCount is not persisted; computed at query time
	FollowersCount int64 `gorm:"->;-:migration" json:"followers_count"`
	// FollowingCount is not persisted; computed at query time
	FollowingCount int64 `gorm:"->;-:migration" json:"following_count"`
	// PostsCount is not persisted; computed at query time
	PostsCount int64 `gorm:"->;-:migration" json:"posts_count"`
	// IsFollowing indicates whether the requesting user follows this user (computed)
	IsFollowing bool `gorm:"->;-:migration" json:"is_following"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

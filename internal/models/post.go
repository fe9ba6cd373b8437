package models

import "time"

// Post is a piece of content owned by exactly one user.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Content  string `gorm:"type:text" json:"content"`
	ImageURL string `json:"image_url,omitempty"`
	// ImageKey is the object-store path of the image in the posts bucket.
	ImageKey string `json:"-"`
	UserID   uint   `gorm:"not null;index:idx_posts_user_created,priority:1" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	// IsLiked indicates whether the current requesting user liked this post (computed)
	IsLiked   bool      `gorm:"->;-:migration" json:"is_liked"`
	CreatedAt time.Time `gorm:"index:idx_posts_user_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasImage reports whether the post carries an image reference.
func (p *Post) HasImage() bool {
	return p.ImageURL != ""
}

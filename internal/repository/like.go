package repository

import (
	"context"

	"socialgraph/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository persists likes. The (user, post) pair is unique.
type LikeRepository interface {
	// Create inserts the like and reports false when it already existed.
	Create(ctx context.Context, userID, postID uint) (bool, error)
	// Delete removes the like and reports whether one was removed.
	Delete(ctx context.Context, userID, postID uint) (bool, error)
	DeleteByPost(ctx context.Context, postID uint) error
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteOnPostsOf(ctx context.Context, authorID uint) error
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Create uses INSERT ... ON CONFLICT DO NOTHING so the unique index decides
// concurrent duplicates.
func (r *likeRepository) Create(ctx context.Context, userID, postID uint) (bool, error) {
	like := &models.Like{UserID: userID, PostID: postID}
	res := writeDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(like)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *likeRepository) Delete(ctx context.Context, userID, postID uint) (bool, error) {
	res := writeDB(ctx, r.db).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) DeleteByPost(ctx context.Context, postID uint) error {
	return r.deleteWhere(ctx, "post_id = ?", postID)
}

// DeleteByUser removes likes the user made.
func (r *likeRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.deleteWhere(ctx, "user_id = ?", userID)
}

// DeleteOnPostsOf removes likes on posts authored by authorID.
func (r *likeRepository) DeleteOnPostsOf(ctx context.Context, authorID uint) error {
	return r.deleteWhere(ctx, "post_id IN (SELECT id FROM posts WHERE user_id = ?)", authorID)
}

func (r *likeRepository) deleteWhere(ctx context.Context, query string, args ...any) error {
	if err := writeDB(ctx, r.db).Where(query, args...).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

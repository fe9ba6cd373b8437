package repository

import (
	"context"
	"errors"
	"time"

	"socialgraph/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedCursor selects a page of posts that sort after the position
// (Before, BeforeID) in created_at DESC, id DESC order. With BeforeID zero
// only the timestamp is compared.
type FeedCursor struct {
	Before   *time.Time
	BeforeID uint
	Limit    int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, cursor FeedCursor, viewerID uint) ([]*models.Post, error)
	ImageKeysByUser(ctx context.Context, userID uint) ([]string, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := writeDB(ctx, r.db).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := applyPostDetails(readDB(ctx, r.db).Model(&models.Post{}), viewerID).
		Preload("User").
		Where("posts.id = ?", id).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := readDB(ctx, r.db).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// UpdateContent changes only the content column.
func (r *postRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := writeDB(ctx, r.db).Model(&models.Post{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := writeDB(ctx, r.db).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int, viewerID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := applyPostDetails(readDB(ctx, r.db).Model(&models.Post{}), viewerID).
		Preload("User").
		Where("posts.user_id = ?", userID).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListByAuthors returns posts by any of authorIDs, newest first with the
// post ID as tiebreaker.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, cursor FeedCursor, viewerID uint) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}

	q := applyPostDetails(readDB(ctx, r.db).Model(&models.Post{}), viewerID).
		Preload("User").
		Where("posts.user_id IN ?", authorIDs)
	switch {
	case cursor.Before != nil && cursor.BeforeID > 0:
		q = q.Where("(posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?))",
			*cursor.Before, *cursor.Before, cursor.BeforeID)
	case cursor.Before != nil:
		q = q.Where("posts.created_at < ?", *cursor.Before)
	}

	var posts []*models.Post
	if err := q.Order("posts.created_at DESC, posts.id DESC").
		Limit(clampLimit(cursor.Limit, 20, 100)).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// applyPostDetails adds the like and comment counts as two separate
// subqueries plus whether viewerID liked the post.
func applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS is_liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS is_liked")
}

func (r *postRepository) ImageKeysByUser(ctx context.Context, userID uint) ([]string, error) {
	var keys []string
	if err := readDB(ctx, r.db).Model(&models.Post{}).
		Where("user_id = ? AND image_key <> ''", userID).
		Pluck("image_key", &keys).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return keys, nil
}

func (r *postRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := writeDB(ctx, r.db).Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"

	"socialgraph/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
	DeleteByPost(ctx context.Context, postID uint) error
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteOnPostsOf(ctx context.Context, authorID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := writeDB(ctx, r.db).Omit(clause.Associations).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := readDB(ctx, r.db).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// ListByPost returns comments oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := readDB(ctx, r.db).
		Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Limit(clampLimit(limit, 50, 100)).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// UpdateContent changes only the content column.
func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := writeDB(ctx, r.db).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.deleteWhere(ctx, "id = ?", id)
}

func (r *commentRepository) DeleteByPost(ctx context.Context, postID uint) error {
	return r.deleteWhere(ctx, "post_id = ?", postID)
}

// DeleteByUser removes comments the user wrote.
func (r *commentRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.deleteWhere(ctx, "user_id = ?", userID)
}

// DeleteOnPostsOf removes comments on posts authored by authorID.
func (r *commentRepository) DeleteOnPostsOf(ctx context.Context, authorID uint) error {
	return r.deleteWhere(ctx, "post_id IN (SELECT id FROM posts WHERE user_id = ?)", authorID)
}

func (r *commentRepository) deleteWhere(ctx context.Context, query string, args ...any) error {
	if err := writeDB(ctx, r.db).Where(query, args...).Delete(&models.Comment{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

package repository

import (
	"context"

	"socialgraph/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository persists directed follow edges.
type FollowRepository interface {
	// Create inserts the edge and reports false when it already existed.
	Create(ctx context.Context, followerID, followingID uint) (bool, error)
	// Delete removes the edge and reports whether one was removed.
	Delete(ctx context.Context, followerID, followingID uint) (bool, error)
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	Counts(ctx context.Context, userID uint) (followers, following int64, err error)
	DeleteAllForUser(ctx context.Context, userID uint) error
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) (bool, error) {
	edge := &models.Follow{FollowerID: followerID, FollowingID: followingID}
	res := writeDB(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(edge)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	res := writeDB(ctx, r.db).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := readDB(ctx, r.db).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := readDB(ctx, r.db).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("following_id ASC").
		Pluck("following_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Followers lists users following userID, most recent edge first.
func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listUsers(ctx, "follows.follower_id", "follows.following_id", userID, limit, offset)
}

// Following lists users userID follows, most recent edge first.
func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listUsers(ctx, "follows.following_id", "follows.follower_id", userID, limit, offset)
}

func (r *followRepository) listUsers(ctx context.Context, joinCol, filterCol string, userID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := readDB(ctx, r.db).Model(&models.User{}).
		Select("users.*").
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(filterCol+" = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var row struct {
		Followers int64
		Following int64
	}
	err := readDB(ctx, r.db).Raw(
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = ?) AS followers,
			(SELECT COUNT(*) FROM follows WHERE follower_id = ?) AS following`,
		userID, userID,
	).Scan(&row).Error
	if err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return row.Followers, row.Following, nil
}

// DeleteAllForUser removes edges in both directions.
func (r *followRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	if err := writeDB(ctx, r.db).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&models.Follow{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

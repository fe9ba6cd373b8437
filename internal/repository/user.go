package repository

import (
	"context"
	"errors"

	"socialgraph/internal/cache"
	"socialgraph/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileUpdate carries the profile columns to change. Nil fields are left alone.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Avatar    *string
	AvatarKey *string
}

func (u ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}
	if u.FirstName != nil {
		cols["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		cols["last_name"] = *u.LastName
	}
	if u.Bio != nil {
		cols["bio"] = *u.Bio
	}
	if u.Avatar != nil {
		cols["avatar"] = *u.Avatar
	}
	if u.AvatarKey != nil {
		cols["avatar_key"] = *u.AvatarKey
	}
	return cols
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfile(ctx context.Context, username string, viewerID uint) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int, viewerID uint) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID serves the base row from cache outside transactions. The cached
// copy has no password hash or avatar key.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	load := func(user *models.User) error {
		if err := readDB(ctx, r.db).First(user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	var user models.User
	var err error
	if inTx(ctx) {
		err = load(&user)
	} else {
		err = cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error { return load(&user) })
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns the full row, password hash included.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := readDB(ctx, r.db).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetProfile returns the user with follower/following/post counts and
// whether viewerID follows them.
func (r *userRepository) GetProfile(ctx context.Context, username string, viewerID uint) (*models.User, error) {
	var user models.User
	err := applyUserDetails(readDB(ctx, r.db).Model(&models.User{}), viewerID).
		Where("users.username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", username)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// applyUserDetails adds the derived profile columns as subqueries.
func applyUserDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "users.*, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) AS followers_count, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count, " +
		"(SELECT COUNT(*) FROM posts WHERE posts.user_id = users.id) AS posts_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM follows WHERE follows.following_id = users.id AND follows.follower_id = ?) AS is_following", viewerID)
	}
	return db.Select(selectQuery + ", false AS is_following")
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := writeDB(ctx, r.db).Omit(clause.Associations).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewAlreadyExistsError("Username or email already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, update ProfileUpdate) error {
	cols := update.columns()
	if len(cols) == 0 {
		return nil
	}
	res := writeDB(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	afterCommit(ctx, func() { cache.InvalidateUser(context.WithoutCancel(ctx), id) })
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	if err := writeDB(ctx, r.db).Delete(&models.User{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	afterCommit(ctx, func() { cache.InvalidateUser(context.WithoutCancel(ctx), id) })
	return nil
}

// List pages through all users in signup order with the same derived
// columns as GetProfile.
func (r *userRepository) List(ctx context.Context, limit, offset int, viewerID uint) ([]models.User, error) {
	users := []models.User{}
	err := applyUserDetails(readDB(ctx, r.db).Model(&models.User{}), viewerID).
		Order("users.id ASC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

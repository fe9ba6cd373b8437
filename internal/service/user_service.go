package service

import (
	"context"
	"fmt"
	"strings"

	"socialgraph/internal/auth"
	"socialgraph/internal/authz"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
	"socialgraph/internal/storage"
	"socialgraph/internal/validation"
)

const (
	maxNameLength = 30
	maxBioLength  = 500
)

type UserService struct {
	tx            repository.Transactor
	users         repository.UserRepository
	follows       repository.FollowRepository
	posts         repository.PostRepository
	likes         repository.LikeRepository
	comments      repository.CommentRepository
	store         storage.ObjectStore
	maxImageBytes int64
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileInput changes only the non-nil fields. Avatar holds raw
// image bytes.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Avatar    []byte
}

func NewUserService(
	tx repository.Transactor,
	users repository.UserRepository,
	follows repository.FollowRepository,
	posts repository.PostRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	store storage.ObjectStore,
	maxImageBytes int64,
) *UserService {
	return &UserService{
		tx:            tx,
		users:         users,
		follows:       follows,
		posts:         posts,
		likes:         likes,
		comments:      comments,
		store:         store,
		maxImageBytes: maxImageBytes,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.Result[models.User], error) {
	return run(ctx, "register", 0, func(ctx context.Context) (*models.Result[models.User], error) {
		in.Username = strings.TrimSpace(in.Username)
		in.Email = strings.ToLower(strings.TrimSpace(in.Email))

		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewInvalidOperationError(err.Error())
		}
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewInvalidOperationError(err.Error())
		}
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewInvalidOperationError(err.Error())
		}
		if err := validateNames(&in.FirstName, &in.LastName); err != nil {
			return nil, err
		}

		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, models.NewInternalError(err)
		}

		user := &models.User{
			Username:  in.Username,
			Email:     in.Email,
			Password:  hash,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return models.Succeed("Account created", user), nil
	})
}

// Authenticate checks credentials. Unknown users and wrong passwords produce
// the same UNAUTHENTICATED error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewUnauthenticatedError("Invalid username or password")

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.CodeOf(err) == models.CodeNotFound {
			return nil, invalid
		}
		return nil, err
	}
	ok, err := auth.CheckPassword(user.Password, password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, invalid
	}
	return user, nil
}

// Profile returns username's profile as seen by viewer. An empty username
// means the viewer's own profile and requires authentication.
func (s *UserService) Profile(ctx context.Context, viewer authz.Identity, username string) (*models.User, error) {
	if username == "" {
		if err := authz.Require(viewer); err != nil {
			return nil, err
		}
		me, err := s.users.GetByID(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		username = me.Username
	}
	return s.users.GetProfile(ctx, username, viewer.UserID)
}

// ListUsers pages through every user with derived counts as seen by viewer.
func (s *UserService) ListUsers(ctx context.Context, viewer authz.Identity, limit, offset int) ([]models.User, error) {
	return s.users.List(ctx, limit, offset, viewer.UserID)
}

// UpdateProfile uploads a new avatar before touching the row and removes the
// replaced one after commit.
func (s *UserService) UpdateProfile(ctx context.Context, actor authz.Identity, in UpdateProfileInput) (*models.Result[models.User], error) {
	return run(ctx, "update_profile", actor.UserID, func(ctx context.Context) (*models.Result[models.User], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}
		if err := validateNames(in.FirstName, in.LastName); err != nil {
			return nil, err
		}
		if in.Bio != nil {
			bio := strings.TrimSpace(*in.Bio)
			if len([]rune(bio)) > maxBioLength {
				return nil, models.NewInvalidOperationError(fmt.Sprintf("Bio too long (max %d characters)", maxBioLength))
			}
			in.Bio = &bio
		}

		update := repository.ProfileUpdate{FirstName: in.FirstName, LastName: in.LastName, Bio: in.Bio}
		var newKey string
		if len(in.Avatar) > 0 {
			if _, err := storage.ValidateImage(in.Avatar, s.maxImageBytes); err != nil {
				return nil, err
			}
			url, key, err := s.store.Upload(ctx, storage.BucketProfiles, "profile_"+actor.Username, in.Avatar)
			if err != nil {
				return nil, models.NewStorageError(err)
			}
			newKey = key
			update.Avatar, update.AvatarKey = &url, &key
		}

		var (
			oldKey  string
			profile *models.User
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			current, err := s.users.GetByID(ctx, actor.UserID)
			if err != nil {
				return err
			}
			oldKey = current.AvatarKey
			if err := s.users.UpdateProfile(ctx, actor.UserID, update); err != nil {
				return err
			}
			profile, err = s.users.GetProfile(ctx, current.Username, actor.UserID)
			return err
		})
		if err != nil {
			removeObject(ctx, s.store, storage.BucketProfiles, newKey)
			return nil, err
		}

		if newKey != "" && oldKey != "" && oldKey != newKey {
			removeObject(ctx, s.store, storage.BucketProfiles, oldKey)
		}
		return models.Succeed("Profile updated", profile), nil
	})
}

// DeleteAccount removes the user and everything hanging off them in one
// transaction: their likes and comments, likes and comments on their posts,
// their posts, follow edges in both directions, then the user row. Stored
// images are removed best-effort after commit.
func (s *UserService) DeleteAccount(ctx context.Context, actor authz.Identity) (*models.Result[models.User], error) {
	return run(ctx, "delete_account", actor.UserID, func(ctx context.Context) (*models.Result[models.User], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var (
			deleted   *models.User
			imageKeys []string
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			user, err := s.users.GetByID(ctx, actor.UserID)
			if err != nil {
				return err
			}
			if imageKeys, err = s.posts.ImageKeysByUser(ctx, actor.UserID); err != nil {
				return err
			}

			steps := []func(context.Context, uint) error{
				s.likes.DeleteByUser,
				s.comments.DeleteByUser,
				s.likes.DeleteOnPostsOf,
				s.comments.DeleteOnPostsOf,
				s.posts.DeleteByUser,
				s.follows.DeleteAllForUser,
				s.users.Delete,
			}
			for _, step := range steps {
				if err := step(ctx, actor.UserID); err != nil {
					return err
				}
			}
			deleted = user
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, key := range imageKeys {
			removeObject(ctx, s.store, storage.BucketPosts, key)
		}
		removeObject(ctx, s.store, storage.BucketProfiles, deleted.AvatarKey)
		return models.Succeed("Account deleted", deleted), nil
	})
}

func validateNames(names ...*string) error {
	for _, name := range names {
		if name == nil {
			continue
		}
		*name = strings.TrimSpace(*name)
		if len([]rune(*name)) > maxNameLength {
			return models.NewInvalidOperationError(fmt.Sprintf("Names must be at most %d characters", maxNameLength))
		}
	}
	return nil
}

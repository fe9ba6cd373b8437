package service

import (
	"context"

	"socialgraph/internal/authz"
	"socialgraph/internal/events"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
)

// FollowService owns the directed follow graph.
type FollowService struct {
	tx      repository.Transactor
	users   repository.UserRepository
	follows repository.FollowRepository
	events  events.Publisher
}

func NewFollowService(
	tx repository.Transactor,
	users repository.UserRepository,
	follows repository.FollowRepository,
	pub events.Publisher,
) *FollowService {
	return &FollowService{tx: tx, users: users, follows: follows, events: pub}
}

// Follow adds the edge actor -> target. An existing edge is a declined
// ALREADY_EXISTS result; concurrent duplicates are resolved by the unique index.
func (s *FollowService) Follow(ctx context.Context, actor authz.Identity, targetUsername string) (*models.Result[models.User], error) {
	return run(ctx, "follow_user", actor.UserID, func(ctx context.Context) (*models.Result[models.User], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var target *models.User
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			user, err := s.users.GetByUsername(ctx, targetUsername)
			if err != nil {
				return err
			}
			if user.ID == actor.UserID {
				return models.NewInvalidOperationError("You cannot follow yourself")
			}

			created, err := s.follows.Create(ctx, actor.UserID, user.ID)
			if err != nil {
				return err
			}
			if !created {
				return models.NewAlreadyExistsError("already following")
			}

			target, err = s.users.GetProfile(ctx, targetUsername, actor.UserID)
			return err
		})
		if err != nil {
			return nil, err
		}

		events.Emit(ctx, s.events, events.NewEvent(events.UserFollowed, actor.UserID, target.ID, nil))
		return models.Succeed("Now following "+target.Username, target), nil
	})
}

// Unfollow removes the edge actor -> target. Removing an absent edge succeeds.
func (s *FollowService) Unfollow(ctx context.Context, actor authz.Identity, targetUsername string) (*models.Result[models.User], error) {
	return run(ctx, "unfollow_user", actor.UserID, func(ctx context.Context) (*models.Result[models.User], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var (
			target  *models.User
			removed bool
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			user, err := s.users.GetByUsername(ctx, targetUsername)
			if err != nil {
				return err
			}
			if removed, err = s.follows.Delete(ctx, actor.UserID, user.ID); err != nil {
				return err
			}
			target, err = s.users.GetProfile(ctx, targetUsername, actor.UserID)
			return err
		})
		if err != nil {
			return nil, err
		}

		if !removed {
			return models.Succeed("Not following "+target.Username, target), nil
		}
		events.Emit(ctx, s.events, events.NewEvent(events.UserUnfollowed, actor.UserID, target.ID, nil))
		return models.Succeed("Unfollowed "+target.Username, target), nil
	})
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, followingID)
}

// Followers lists the users following username.
func (s *FollowService) Followers(ctx context.Context, username string, limit, offset int) ([]models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, user.ID, limit, offset)
}

// Following lists the users username follows.
func (s *FollowService) Following(ctx context.Context, username string, limit, offset int) ([]models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, user.ID, limit, offset)
}

// Counts returns the follower and following counts of userID.
func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	return s.follows.Counts(ctx, userID)
}

func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.follows.FollowingIDs(ctx, userID)
}

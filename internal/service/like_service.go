package service

import (
	"context"

	"socialgraph/internal/authz"
	"socialgraph/internal/events"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
)

// LikeService manages like edges between users and posts.
type LikeService struct {
	tx     repository.Transactor
	posts  repository.PostRepository
	likes  repository.LikeRepository
	events events.Publisher
}

func NewLikeService(tx repository.Transactor, posts repository.PostRepository, likes repository.LikeRepository, pub events.Publisher) *LikeService {
	return &LikeService{tx: tx, posts: posts, likes: likes, events: pub}
}

// LikePost inserts the like with ON CONFLICT DO NOTHING, so of two
// concurrent likes exactly one succeeds and the other is ALREADY_EXISTS.
func (s *LikeService) LikePost(ctx context.Context, actor authz.Identity, postID uint) (*models.Result[models.Post], error) {
	return run(ctx, "like_post", actor.UserID, func(ctx context.Context) (*models.Result[models.Post], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var post *models.Post
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.requirePost(ctx, postID); err != nil {
				return err
			}
			created, err := s.likes.Create(ctx, actor.UserID, postID)
			if err != nil {
				return err
			}
			if !created {
				return models.NewAlreadyExistsError("already liked")
			}
			post, err = s.posts.GetByID(ctx, postID, actor.UserID)
			return err
		})
		if err != nil {
			return nil, err
		}

		events.Emit(ctx, s.events, events.NewEvent(events.PostLiked, actor.UserID, postID, nil))
		return models.Succeed("Post liked", post), nil
	})
}

// UnlikePost removes the like. Unliking a post that is not liked succeeds.
func (s *LikeService) UnlikePost(ctx context.Context, actor authz.Identity, postID uint) (*models.Result[models.Post], error) {
	return run(ctx, "unlike_post", actor.UserID, func(ctx context.Context) (*models.Result[models.Post], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var (
			post    *models.Post
			removed bool
		)
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.requirePost(ctx, postID); err != nil {
				return err
			}
			var err error
			if removed, err = s.likes.Delete(ctx, actor.UserID, postID); err != nil {
				return err
			}
			post, err = s.posts.GetByID(ctx, postID, actor.UserID)
			return err
		})
		if err != nil {
			return nil, err
		}

		if !removed {
			return models.Succeed("Post was not liked", post), nil
		}
		return models.Succeed("Post unliked", post), nil
	})
}

func (s *LikeService) requirePost(ctx context.Context, postID uint) error {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

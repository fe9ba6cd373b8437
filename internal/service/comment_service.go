package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"socialgraph/internal/authz"
	"socialgraph/internal/events"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
)

// MaxCommentLength is counted in Unicode code points after trimming.
const MaxCommentLength = 1000

type CommentService struct {
	tx       repository.Transactor
	posts    repository.PostRepository
	comments repository.CommentRepository
	events   events.Publisher
}

func NewCommentService(
	tx repository.Transactor,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	pub events.Publisher,
) *CommentService {
	return &CommentService{tx: tx, posts: posts, comments: comments, events: pub}
}

// normalizeComment trims content and enforces 1..MaxCommentLength characters.
func normalizeComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewInvalidOperationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return "", models.NewInvalidOperationError(fmt.Sprintf("Comment too long (max %d characters)", MaxCommentLength))
	}
	return content, nil
}

func (s *CommentService) CreateComment(ctx context.Context, actor authz.Identity, postID uint, content string) (*models.Result[models.Comment], error) {
	return run(ctx, "create_comment", actor.UserID, func(ctx context.Context) (*models.Result[models.Comment], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}
		content, err := normalizeComment(content)
		if err != nil {
			return nil, err
		}

		var created *models.Comment
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			exists, err := s.posts.Exists(ctx, postID)
			if err != nil {
				return err
			}
			if !exists {
				return models.NewNotFoundError("Post", postID)
			}

			comment := &models.Comment{Content: content, UserID: actor.UserID, PostID: postID}
			if err := s.comments.Create(ctx, comment); err != nil {
				return err
			}
			created, err = s.comments.GetByID(ctx, comment.ID)
			return err
		})
		if err != nil {
			return nil, err
		}

		events.Emit(ctx, s.events, events.NewEvent(events.CommentCreated, actor.UserID, postID, map[string]uint{"comment_id": created.ID}))
		return models.Succeed("Comment added", created), nil
	})
}

func (s *CommentService) EditComment(ctx context.Context, actor authz.Identity, commentID uint, content string) (*models.Result[models.Comment], error) {
	return run(ctx, "edit_comment", actor.UserID, func(ctx context.Context) (*models.Result[models.Comment], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}
		content, err := normalizeComment(content)
		if err != nil {
			return nil, err
		}

		var updated *models.Comment
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.ownedComment(ctx, actor, commentID); err != nil {
				return err
			}
			if err := s.comments.UpdateContent(ctx, commentID, content); err != nil {
				return err
			}
			updated, err = s.comments.GetByID(ctx, commentID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return models.Succeed("Comment updated", updated), nil
	})
}

// DeleteComment returns the comment as it was before deletion.
func (s *CommentService) DeleteComment(ctx context.Context, actor authz.Identity, commentID uint) (*models.Result[models.Comment], error) {
	return run(ctx, "delete_comment", actor.UserID, func(ctx context.Context) (*models.Result[models.Comment], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var deleted *models.Comment
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			comment, err := s.ownedComment(ctx, actor, commentID)
			if err != nil {
				return err
			}
			if err := s.comments.Delete(ctx, commentID); err != nil {
				return err
			}
			deleted = comment
			return nil
		})
		if err != nil {
			return nil, err
		}
		return models.Succeed("Comment deleted", deleted), nil
	})
}

func (s *CommentService) ownedComment(ctx context.Context, actor authz.Identity, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if models.CodeOf(err) == models.CodeNotFound {
			return nil, authz.RequireOwner(actor, "Comment", commentID, 0)
		}
		return nil, err
	}
	if err := authz.RequireOwner(actor, "Comment", commentID, comment.UserID); err != nil {
		return nil, err
	}
	return comment, nil
}

// CommentsForPost lists a post's comments, oldest first.
func (s *CommentService) CommentsForPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	exists, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return s.comments.ListByPost(ctx, postID, limit, offset)
}

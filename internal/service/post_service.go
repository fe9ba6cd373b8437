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
	"socialgraph/internal/storage"
)

// MaxPostContentLength is counted in Unicode code points.
const MaxPostContentLength = 50000

type PostService struct {
	tx            repository.Transactor
	users         repository.UserRepository
	posts         repository.PostRepository
	likes         repository.LikeRepository
	comments      repository.CommentRepository
	store         storage.ObjectStore
	events        events.Publisher
	maxImageBytes int64
}

type CreatePostInput struct {
	Content string
	// Image holds the raw upload; nil for text-only posts.
	Image []byte
}

func NewPostService(
	tx repository.Transactor,
	users repository.UserRepository,
	posts repository.PostRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	store storage.ObjectStore,
	pub events.Publisher,
	maxImageBytes int64,
) *PostService {
	return &PostService{
		tx:            tx,
		users:         users,
		posts:         posts,
		likes:         likes,
		comments:      comments,
		store:         store,
		events:        pub,
		maxImageBytes: maxImageBytes,
	}
}

// CreatePost uploads the image (if any) before writing the row. An upload
// failure is a storage fault and nothing is persisted; if the insert fails
// afterwards the uploaded object is removed best-effort.
func (s *PostService) CreatePost(ctx context.Context, actor authz.Identity, in CreatePostInput) (*models.Result[models.Post], error) {
	return run(ctx, "create_post", actor.UserID, func(ctx context.Context) (*models.Result[models.Post], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		content := strings.TrimSpace(in.Content)
		if content == "" && len(in.Image) == 0 {
			return nil, models.NewInvalidOperationError("Post must have content or an image")
		}
		if utf8.RuneCountInString(content) > MaxPostContentLength {
			return nil, models.NewInvalidOperationError(fmt.Sprintf("Content too long (max %d characters)", MaxPostContentLength))
		}

		post := &models.Post{UserID: actor.UserID, Content: content}
		if len(in.Image) > 0 {
			if _, err := storage.ValidateImage(in.Image, s.maxImageBytes); err != nil {
				return nil, err
			}
			url, key, err := s.store.Upload(ctx, storage.BucketPosts, fmt.Sprintf("post_%d", actor.UserID), in.Image)
			if err != nil {
				return nil, models.NewStorageError(err)
			}
			post.ImageURL, post.ImageKey = url, key
		}

		var created *models.Post
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.posts.Create(ctx, post); err != nil {
				return err
			}
			var err error
			created, err = s.posts.GetByID(ctx, post.ID, actor.UserID)
			return err
		})
		if err != nil {
			removeObject(ctx, s.store, storage.BucketPosts, post.ImageKey)
			return nil, err
		}

		events.Emit(ctx, s.events, events.NewEvent(events.PostCreated, actor.UserID, created.ID, nil))
		return models.Succeed("Post created", created), nil
	})
}

// EditPost replaces the content of a post the actor owns.
func (s *PostService) EditPost(ctx context.Context, actor authz.Identity, postID uint, content string) (*models.Result[models.Post], error) {
	return run(ctx, "edit_post", actor.UserID, func(ctx context.Context) (*models.Result[models.Post], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return nil, models.NewInvalidOperationError("Content is required")
		}
		if utf8.RuneCountInString(content) > MaxPostContentLength {
			return nil, models.NewInvalidOperationError(fmt.Sprintf("Content too long (max %d characters)", MaxPostContentLength))
		}

		var updated *models.Post
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.ownedPost(ctx, actor, postID); err != nil {
				return err
			}
			if err := s.posts.UpdateContent(ctx, postID, content); err != nil {
				return err
			}
			var err error
			updated, err = s.posts.GetByID(ctx, postID, actor.UserID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return models.Succeed("Post updated", updated), nil
	})
}

// DeletePost removes the post with its likes and comments in one
// transaction and returns the post as it was before deletion.
func (s *PostService) DeletePost(ctx context.Context, actor authz.Identity, postID uint) (*models.Result[models.Post], error) {
	return run(ctx, "delete_post", actor.UserID, func(ctx context.Context) (*models.Result[models.Post], error) {
		if err := authz.Require(actor); err != nil {
			return nil, err
		}

		var deleted *models.Post
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			post, err := s.ownedPost(ctx, actor, postID)
			if err != nil {
				return err
			}
			if err := s.likes.DeleteByPost(ctx, postID); err != nil {
				return err
			}
			if err := s.comments.DeleteByPost(ctx, postID); err != nil {
				return err
			}
			if err := s.posts.Delete(ctx, postID); err != nil {
				return err
			}
			deleted = post
			return nil
		})
		if err != nil {
			return nil, err
		}

		removeObject(ctx, s.store, storage.BucketPosts, deleted.ImageKey)
		events.Emit(ctx, s.events, events.NewEvent(events.PostDeleted, actor.UserID, deleted.ID, nil))
		return models.Succeed("Post deleted", deleted), nil
	})
}

// ownedPost loads postID and checks the actor owns it. Missing and foreign
// posts are reported identically.
func (s *PostService) ownedPost(ctx context.Context, actor authz.Identity, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, actor.UserID)
	if err != nil {
		if models.CodeOf(err) == models.CodeNotFound {
			return nil, authz.RequireOwner(actor, "Post", postID, 0)
		}
		return nil, err
	}
	if err := authz.RequireOwner(actor, "Post", postID, post.UserID); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post with derived counts for viewer.
func (s *PostService) GetPost(ctx context.Context, viewer authz.Identity, postID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID, viewer.UserID)
}

// PostsByUser lists username's posts, newest first.
func (s *PostService) PostsByUser(ctx context.Context, viewer authz.Identity, username string, limit, offset int) ([]*models.Post, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.posts.ListByUser(ctx, user.ID, limit, offset, viewer.UserID)
}

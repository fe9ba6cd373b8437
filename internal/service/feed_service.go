package service

import (
	"context"
	"time"

	"socialgraph/internal/authz"
	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// FeedPage is one page of the feed. NextBefore and NextBeforeID locate the
// last post of the page and are unset when the page was not full.
type FeedPage struct {
	Posts        []*models.Post `json:"posts"`
	NextBefore   *time.Time     `json:"next_before,omitempty"`
	NextBeforeID uint           `json:"next_before_id,omitempty"`
}

// FeedCursor is the position after which the next page starts. A zero
// BeforeID compares the timestamp alone.
type FeedCursor struct {
	Before   *time.Time
	BeforeID uint
}

// FeedService composes the chronological feed from the follow graph.
type FeedService struct {
	follows *FollowService
	posts   repository.PostRepository
}

func NewFeedService(follows *FollowService, posts repository.PostRepository) *FeedService {
	return &FeedService{follows: follows, posts: posts}
}

// Feed returns posts by users the actor follows, newest first with the post
// ID as tiebreaker, starting after the cursor position.
func (s *FeedService) Feed(ctx context.Context, actor authz.Identity, after FeedCursor, limit int) (page *FeedPage, err error) {
	ctx, finish := observability.StartSpan(ctx, "service.feed")
	defer func() { finish(err) }()

	if err := authz.Require(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	ids, err := s.follows.FollowingIDs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &FeedPage{Posts: []*models.Post{}}, nil
	}

	cursor := repository.FeedCursor{Limit: limit}
	if after.Before != nil {
		utc := after.Before.UTC()
		cursor.Before = &utc
		cursor.BeforeID = after.BeforeID
	}
	posts, err := s.posts.ListByAuthors(ctx, ids, cursor, actor.UserID)
	if err != nil {
		return nil, err
	}

	page = &FeedPage{Posts: posts}
	if len(posts) == limit {
		last := posts[len(posts)-1]
		next := last.CreatedAt.UTC()
		page.NextBefore = &next
		page.NextBeforeID = last.ID
	}
	return page, nil
}

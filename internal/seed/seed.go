// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"socialgraph/internal/auth"
	"socialgraph/internal/middleware"
	"socialgraph/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user. It passes the signup
// password policy so seeded accounts can log in.
const DefaultPassword = "Seeded-Password-1"

// Options configures the seeder.
type Options struct {
	NumUsers       int
	NumPosts       int
	FollowsPerUser int
	// MaxLikesPerPost and MaxCommentsPerPost bound the random engagement.
	MaxLikesPerPost    int
	MaxCommentsPerPost int
	MaxDays            int
	BatchSize          int
	// Seed makes a run reproducible; zero uses the clock.
	Seed int64
}

// Stats counts what a run inserted.
type Stats struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
}

func (s Stats) String() string {
	return fmt.Sprintf("users=%d follows=%d posts=%d likes=%d comments=%d",
		s.Users, s.Follows, s.Posts, s.Likes, s.Comments)
}

// Seeder persists a random social graph.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	rng     *rand.Rand
}

// NewSeeder creates a seeder over db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(opts.Seed, opts.MaxDays),
		// #nosec G404: acceptable for seeding
		rng: rand.New(rand.NewSource(opts.Seed + 1)),
	}
}

// Run clears nothing; it adds users, follows, posts and engagement.
func (s *Seeder) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return stats, fmt.Errorf("seed users: %w", err)
	}
	stats.Users = len(users)

	if stats.Follows, err = s.SeedFollows(ctx, users, s.opts.FollowsPerUser); err != nil {
		return stats, fmt.Errorf("seed follows: %w", err)
	}

	posts, err := s.SeedPosts(ctx, users, s.opts.NumPosts)
	if err != nil {
		return stats, fmt.Errorf("seed posts: %w", err)
	}
	stats.Posts = len(posts)

	if stats.Likes, stats.Comments, err = s.SeedEngagement(ctx, users, posts); err != nil {
		return stats, fmt.Errorf("seed engagement: %w", err)
	}

	middleware.Logger.Info("seeding complete", "stats", stats.String())
	return stats, nil
}

// ClearAll deletes every row of the domain tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, table := range []string{"likes", "comments", "posts", "follows", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedUsers inserts n users sharing DefaultPassword.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]*models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&existing).Error; err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, s.factory.BuildUser(int(existing)+i+1, hash))
	}
	if err := s.db.WithContext(ctx).CreateInBatches(users, s.opts.BatchSize).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SeedFollows makes every user follow up to perUser random others. Self
// edges are skipped and duplicates are ignored by the unique pair index.
func (s *Seeder) SeedFollows(ctx context.Context, users []*models.User, perUser int) (int, error) {
	if len(users) < 2 || perUser <= 0 {
		return 0, nil
	}
	var follows []*models.Follow
	for _, follower := range users {
		picked := 0
		for _, idx := range s.rng.Perm(len(users)) {
			if picked == perUser {
				break
			}
			if target := users[idx]; target.ID != follower.ID {
				follows = append(follows, &models.Follow{FollowerID: follower.ID, FollowingID: target.ID})
				picked++
			}
		}
	}
	return insertIgnoringDuplicates(ctx, s, follows)
}

// SeedPosts inserts n posts by random authors.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, n int) ([]*models.Post, error) {
	if len(users) == 0 || n <= 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, s.factory.BuildPost(users[s.rng.Intn(len(users))]))
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(posts, s.opts.BatchSize).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// SeedEngagement adds random likes and comments to posts.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, posts []*models.Post) (likes, comments int, err error) {
	if len(users) == 0 || len(posts) == 0 {
		return 0, 0, nil
	}

	var (
		likeRows    []*models.Like
		commentRows []*models.Comment
	)
	for _, post := range posts {
		if s.opts.MaxLikesPerPost > 0 {
			n := s.rng.Intn(min(s.opts.MaxLikesPerPost, len(users)) + 1)
			for _, idx := range s.rng.Perm(len(users))[:n] {
				likeRows = append(likeRows, &models.Like{UserID: users[idx].ID, PostID: post.ID})
			}
		}
		if s.opts.MaxCommentsPerPost > 0 {
			for i := s.rng.Intn(s.opts.MaxCommentsPerPost + 1); i > 0; i-- {
				commentRows = append(commentRows, s.factory.BuildComment(users[s.rng.Intn(len(users))], post))
			}
		}
	}

	if likes, err = insertIgnoringDuplicates(ctx, s, likeRows); err != nil {
		return 0, 0, err
	}
	if len(commentRows) > 0 {
		if err := s.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(commentRows, s.opts.BatchSize).Error; err != nil {
			return likes, 0, err
		}
	}
	return likes, len(commentRows), nil
}

// insertIgnoringDuplicates batch-inserts rows with ON CONFLICT DO NOTHING and
// returns how many were actually written.
func insertIgnoringDuplicates[T any](ctx context.Context, s *Seeder, rows []*T) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		CreateInBatches(rows, s.opts.BatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialgraph/internal/cache"
	"socialgraph/internal/models"
	"socialgraph/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_EdgeUniquenessAndSelfCheck(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	created, err := repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)

	// The store rejects self edges even if the engine check is bypassed.
	_, err = repo.Create(ctx, alice.ID, alice.ID)
	assert.Error(t, err)

	followers, following, err := repo.Counts(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(0), following)

	users, err := repo.Followers(ctx, bob.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	removed, err := repo.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostRepository_DerivedViews(t *testing.T) {
	db := testutil.NewTestDB(t)
	posts := NewPostRepository(db)
	likes := NewLikeRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, "hello")

	created, err := likes.Create(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = likes.Create(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, created)

	for _, body := range []string{"one", "two"} {
		require.NoError(t, comments.Create(ctx, &models.Comment{Content: body, UserID: bob.ID, PostID: post.ID}))
	}

	asBob, err := posts.GetByID(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), asBob.LikesCount)
	assert.Equal(t, int64(2), asBob.CommentsCount)
	assert.True(t, asBob.IsLiked)
	assert.Equal(t, "alice", asBob.User.Username)

	asAlice, err := posts.GetByID(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, asAlice.IsLiked)

	anon, err := posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.IsLiked)
	assert.Equal(t, int64(1), anon.LikesCount)
}

func TestPostRepository_ListByAuthorsOrdering(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insert := func(userID uint, content string, at time.Time) uint {
		p := &models.Post{UserID: userID, Content: content, CreatedAt: at, UpdatedAt: at}
		require.NoError(t, repo.Create(ctx, p))
		return p.ID
	}
	first := insert(alice.ID, "a1", base)
	tieLow := insert(bob.ID, "b1", base.Add(time.Minute))
	tieHigh := insert(alice.ID, "a2", base.Add(time.Minute))
	insert(carol.ID, "c1", base.Add(2*time.Minute))

	got, err := repo.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, FeedCursor{}, 0)
	require.NoError(t, err)
	ids := make([]uint, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []uint{tieHigh, tieLow, first}, ids)

	before := base.Add(time.Minute)
	got, err = repo.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, FeedCursor{Before: &before, Limit: 10}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first, got[0].ID)

	got, err = repo.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, FeedCursor{Before: &before, BeforeID: tieHigh, Limit: 10}, 0)
	require.NoError(t, err)
	ids = ids[:0]
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []uint{tieLow, first}, ids, "the tied post after the cursor is kept")
}

func TestUserRepository_DuplicateAndProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	alice := &models.User{Username: "alice", Email: "alice@example.com", Password: "hash"}
	require.NoError(t, repo.Create(ctx, alice))

	err := repo.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "hash"})
	assert.Equal(t, models.CodeAlreadyExists, models.CodeOf(err))
	err = repo.Create(ctx, &models.User{Username: "alice2", Email: "alice@example.com", Password: "hash"})
	assert.Equal(t, models.CodeAlreadyExists, models.CodeOf(err))

	bob := testutil.CreateUser(t, db, "bob")
	_, err = follows.Create(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	testutil.CreatePost(t, db, alice.ID, "post")

	profile, err := repo.GetProfile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.FollowersCount)
	assert.Equal(t, int64(0), profile.FollowingCount)
	assert.Equal(t, int64(1), profile.PostsCount)
	assert.True(t, profile.IsFollowing)

	_, err = repo.GetProfile(ctx, "nobody", 0)
	assert.Equal(t, models.CodeNotFound, models.CodeOf(err))

	full, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", full.Password)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	tx := NewTransactor(db)
	posts := NewPostRepository(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	boom := errors.New("boom")
	var postID uint
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		p := &models.Post{UserID: alice.ID, Content: "draft"}
		if err := posts.Create(ctx, p); err != nil {
			return err
		}
		postID = p.ID

		exists, err := posts.Exists(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, exists)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := posts.Exists(ctx, postID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCascadeDeletes(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	likes := NewLikeRepository(db)
	comments := NewCommentRepository(db)
	posts := NewPostRepository(db)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	alicePost := testutil.CreatePost(t, db, alice.ID, "a")
	bobPost := testutil.CreatePost(t, db, bob.ID, "b")

	_, err := likes.Create(ctx, bob.ID, alicePost.ID)
	require.NoError(t, err)
	_, err = likes.Create(ctx, alice.ID, bobPost.ID)
	require.NoError(t, err)
	require.NoError(t, comments.Create(ctx, &models.Comment{Content: "x", UserID: bob.ID, PostID: alicePost.ID}))

	require.NoError(t, likes.DeleteOnPostsOf(ctx, alice.ID))
	require.NoError(t, comments.DeleteOnPostsOf(ctx, alice.ID))

	count := func(model any, postID uint) int64 {
		var n int64
		require.NoError(t, db.Model(model).Where("post_id = ?", postID).Count(&n).Error)
		return n
	}
	assert.Zero(t, count(&models.Like{}, alicePost.ID))
	assert.Zero(t, count(&models.Comment{}, alicePost.ID))
	assert.Equal(t, int64(1), count(&models.Like{}, bobPost.ID))

	// Foreign keys cascade too.
	require.NoError(t, posts.Delete(ctx, bobPost.ID))
	assert.Zero(t, count(&models.Like{}, bobPost.ID))
}

func TestUserRepository_CacheInvalidatedAfterCommit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	key := cache.UserKey(alice.ID)

	_, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	renamed := "Alicia"
	update := ProfileUpdate{FirstName: &renamed}
	boom := errors.New("boom")
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.UpdateProfile(ctx, alice.ID, update))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, mr.Exists(key), "a rolled back update leaves the cache alone")

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.UpdateProfile(ctx, alice.ID, update))
		assert.True(t, mr.Exists(key), "invalidation waits for commit")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	user, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.FirstName)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	assert.False(t, mr.Exists(key), "outside a transaction invalidation is immediate")
}

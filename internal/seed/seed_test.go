package seed

import (
	"context"
	"testing"
	"time"

	"socialgraph/internal/auth"
	"socialgraph/internal/models"
	"socialgraph/internal/testutil"
	"socialgraph/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_BuildsValidEntities(t *testing.T) {
	f := NewFactory(42, 30)
	for i := 1; i <= 50; i++ {
		u := f.BuildUser(i, "hash")
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.NoError(t, validation.ValidateEmail(u.Email), u.Email)
	}

	user := &models.User{ID: 7}
	post := f.BuildPost(user)
	assert.Equal(t, uint(7), post.UserID)
	assert.NotEmpty(t, post.Content)
	assert.WithinDuration(t, time.Now(), post.CreatedAt, 31*24*time.Hour)

	post.ID = 3
	comment := f.BuildComment(user, post)
	assert.Equal(t, uint(3), comment.PostID)
	assert.False(t, comment.CreatedAt.Before(post.CreatedAt))
}

func TestFactory_SameSeedSameUsers(t *testing.T) {
	a := NewFactory(7, 10).BuildUser(1, "h")
	b := NewFactory(7, 10).BuildUser(1, "h")
	assert.Equal(t, a.Username, b.Username)
}

func TestUsernameBase(t *testing.T) {
	assert.Equal(t, "zooconnor", usernameBase("Zoë O'Connor"))
	assert.Equal(t, "user", usernameBase("!!!"))
}

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	s := NewSeeder(db, Options{
		NumUsers:           8,
		NumPosts:           20,
		FollowsPerUser:     3,
		MaxLikesPerPost:    4,
		MaxCommentsPerPost: 2,
		MaxDays:            10,
		BatchSize:          5,
		Seed:               1234,
	})
	stats, err := s.Run(ctx)
	require.NoError(t, err)

	count := func(model any) int {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return int(n)
	}
	assert.Equal(t, 8, stats.Users)
	assert.Equal(t, 8*3, stats.Follows)
	assert.Equal(t, stats.Follows, count(&models.Follow{}))
	assert.Equal(t, 20, count(&models.Post{}))
	assert.Equal(t, stats.Likes, count(&models.Like{}))
	assert.Equal(t, stats.Comments, count(&models.Comment{}))

	var selfEdges int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = following_id").Count(&selfEdges).Error)
	assert.Zero(t, selfEdges)

	var user models.User
	require.NoError(t, db.First(&user).Error)
	ok, err := auth.CheckPassword(user.Password, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok, "seeded users can log in")

	require.NoError(t, s.ClearAll(ctx))
	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Post{}, &models.Follow{}, &models.User{}} {
		assert.Zero(t, count(model))
	}
}

package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"socialgraph/internal/authz"
	"socialgraph/internal/models"
	"socialgraph/internal/repository"
	"socialgraph/internal/storage"
	"socialgraph/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func identityOf(u *models.User) authz.Identity {
	return authz.Identity{UserID: u.ID, Username: u.Username}
}

// engines wires every service over a private SQLite database.
type engines struct {
	db       *gorm.DB
	store    *storage.MemoryStore
	events   *testutil.RecordingPublisher
	users    *UserService
	follows  *FollowService
	posts    *PostService
	comments *CommentService
	likes    *LikeService
	feed     *FeedService
}

func newEngines(t *testing.T) *engines {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := storage.NewMemoryStore()
	pub := &testutil.RecordingPublisher{}

	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	follows := NewFollowService(tx, userRepo, followRepo, pub)
	return &engines{
		db:       db,
		store:    store,
		events:   pub,
		users:    NewUserService(tx, userRepo, followRepo, postRepo, likeRepo, commentRepo, store, 1<<20),
		follows:  follows,
		posts:    NewPostService(tx, userRepo, postRepo, likeRepo, commentRepo, store, pub, 1<<20),
		comments: NewCommentService(tx, postRepo, commentRepo, pub),
		likes:    NewLikeService(tx, postRepo, likeRepo, pub),
		feed:     NewFeedService(follows, postRepo),
	}
}

func (e *engines) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// passthroughTx runs fn without a database.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

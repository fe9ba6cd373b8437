package server

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"socialgraph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeed(t *testing.T) {
	env := newTestEnv(t)
	reader := env.signup(t, "reader")
	env.signup(t, "followed")
	env.signup(t, "stranger")
	env.call(t, http.MethodPost, "/api/users/followed/follow", reader, nil)

	userID := func(username string) uint {
		var u models.User
		require.NoError(t, env.db.Where("username = ?", username).First(&u).Error)
		return u.ID
	}
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	insert := func(username, content string, minutes int) {
		post := &models.Post{UserID: userID(username), Content: content, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
		require.NoError(t, env.db.Omit("User").Create(post).Error)
	}
	insert("followed", "oldest", 1)
	insert("stranger", "not followed", 2)
	insert("followed", "middle", 3)
	insert("reader", "my own", 4)
	insert("followed", "newest", 5)

	contents := func(body map[string]any) []string {
		var out []string
		for _, p := range body["posts"].([]any) {
			out = append(out, p.(map[string]any)["content"].(string))
		}
		return out
	}

	status, body := env.call(t, http.MethodGet, "/api/feed?limit=2", reader, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []string{"newest", "middle"}, contents(body))
	next, ok := body["next_before"].(string)
	require.True(t, ok, "a full page carries a cursor")
	nextID, ok := body["next_before_id"].(float64)
	require.True(t, ok)

	status, body = env.call(t, http.MethodGet, "/api/feed?limit=2&before="+url.QueryEscape(next)+"&before_id="+strconv.Itoa(int(nextID)), reader, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []string{"oldest"}, contents(body))
	assert.NotContains(t, body, "next_before")

	for _, query := range []string{"before=yesterday", "before_id=3", "before=" + url.QueryEscape(next) + "&before_id=abc"} {
		status, body = env.call(t, http.MethodGet, "/api/feed?"+query, reader, nil)
		assert.Equal(t, http.StatusBadRequest, status, query)
		assert.Equal(t, "INVALID_OPERATION", body["code"], query)
	}
}

func TestGetFeed_TiedTimestamps(t *testing.T) {
	env := newTestEnv(t)
	reader := env.signup(t, "reader")
	env.signup(t, "author")
	env.call(t, http.MethodPost, "/api/users/author/follow", reader, nil)

	var author models.User
	require.NoError(t, env.db.Where("username = ?", "author").First(&author).Error)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, content := range []string{"first", "second", "third"} {
		post := &models.Post{UserID: author.ID, Content: content, CreatedAt: at}
		require.NoError(t, env.db.Omit("User").Create(post).Error)
	}

	var seen []string
	query := "/api/feed?limit=1"
	for i := 0; i < 5; i++ {
		status, body := env.call(t, http.MethodGet, query, reader, nil)
		require.Equal(t, http.StatusOK, status, body)
		for _, p := range body["posts"].([]any) {
			seen = append(seen, p.(map[string]any)["content"].(string))
		}
		next, ok := body["next_before"].(string)
		if !ok {
			break
		}
		query = "/api/feed?limit=1&before=" + url.QueryEscape(next) +
			"&before_id=" + strconv.Itoa(int(body["next_before_id"].(float64)))
	}
	assert.Equal(t, []string{"third", "second", "first"}, seen)
}

func TestGetFeed_NoFollows(t *testing.T) {
	env := newTestEnv(t)
	loner := env.signup(t, "loner")
	env.createPost(t, loner, "talking to myself")

	status, body := env.call(t, http.MethodGet, "/api/feed", loner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["posts"])
}

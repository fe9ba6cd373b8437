package server

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"socialgraph/internal/events"
	"socialgraph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAndUnfollow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	env.signup(t, "bob")

	status, body := env.call(t, http.MethodPost, "/api/users/bob/follow", alice, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	profile := body["payload"].(map[string]any)
	assert.Equal(t, float64(1), profile["followers_count"])
	assert.Equal(t, true, profile["is_following"])

	status, body = env.call(t, http.MethodPost, "/api/users/bob/follow", alice, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ALREADY_EXISTS", body["code"])

	status, body = env.call(t, http.MethodPost, "/api/users/alice/follow", alice, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OPERATION", body["code"])

	status, body = env.call(t, http.MethodPost, "/api/users/ghost/follow", alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, followers := env.callList(t, http.MethodGet, "/api/users/bob/followers", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0]["username"])

	status, following := env.callList(t, http.MethodGet, "/api/users/alice/following", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0]["username"])

	status, body = env.call(t, http.MethodDelete, "/api/users/bob/follow", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Unfollowed bob", body["message"])

	status, body = env.call(t, http.MethodDelete, "/api/users/bob/follow", alice, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Not following bob", body["message"])

	assert.Equal(t, []string{events.UserFollowed, events.UserUnfollowed}, env.events.Types())
}

func TestGetUserProfile(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.signup(t, "viewer")
	author := env.signup(t, "author")
	env.createPost(t, author, "one")
	env.createPost(t, author, "two")
	env.call(t, http.MethodPost, "/api/users/author/follow", viewer, nil)

	status, body := env.call(t, http.MethodGet, "/api/users/author", viewer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["posts_count"])
	assert.Equal(t, float64(1), body["followers_count"])
	assert.Equal(t, true, body["is_following"])

	status, body = env.call(t, http.MethodGet, "/api/users/author", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_following"])

	status, body = env.call(t, http.MethodGet, "/api/users/missing_user", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, posts := env.callList(t, http.MethodGet, "/api/users/author/posts?limit=1", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, posts, 1)
}

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "painter")

	status, body := env.call(t, http.MethodPut, "/api/users/me", token, map[string]any{
		"first_name": "Frida",
		"bio":        "  colours  ",
		"avatar":     pngDataURL(t),
	})
	require.Equal(t, http.StatusOK, status, body)
	user := body["payload"].(map[string]any)
	assert.Equal(t, "Frida", user["first_name"])
	assert.Equal(t, "colours", user["bio"])
	assert.True(t, strings.HasPrefix(user["avatar"].(string), "memory://profiles/profile_painter"))
	assert.Equal(t, 1, env.store.Len())

	status, body = env.call(t, http.MethodPut, "/api/users/me", token, map[string]any{"avatar": pngDataURL(t)})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "Frida", body["payload"].(map[string]any)["first_name"])
	assert.Equal(t, 1, env.store.Len(), "replaced avatar is removed")

	status, body = env.call(t, http.MethodPut, "/api/users/me", token, map[string]any{"last_name": strings.Repeat("k", 31)})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_OPERATION", body["code"])
}

func TestDeleteMyAccount(t *testing.T) {
	env := newTestEnv(t)
	leaving := env.signup(t, "leaving")
	staying := env.signup(t, "staying")

	ownPost := env.createPost(t, leaving, "bye")
	otherPost := env.createPost(t, staying, "still here")
	env.call(t, http.MethodPost, "/api/users/staying/follow", leaving, nil)
	env.call(t, http.MethodPost, "/api/users/leaving/follow", staying, nil)
	env.call(t, http.MethodPost, "/api/posts/"+strconv.Itoa(otherPost)+"/like", leaving, nil)
	env.call(t, http.MethodPost, "/api/posts/"+strconv.Itoa(otherPost)+"/comments", leaving, map[string]string{"content": "hi"})
	env.call(t, http.MethodPost, "/api/posts/"+strconv.Itoa(ownPost)+"/like", staying, nil)

	status, body := env.call(t, http.MethodDelete, "/api/users/me", leaving, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "leaving", body["payload"].(map[string]any)["username"])

	for _, model := range []any{&models.Like{}, &models.Comment{}, &models.Follow{}} {
		var n int64
		require.NoError(t, env.db.Model(model).Count(&n).Error)
		assert.Zero(t, n)
	}
	var posts int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(1), posts)

	status, _ = env.call(t, http.MethodGet, "/api/users/leaving", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// The token outlives the account but no longer resolves to a user.
	status, _ = env.call(t, http.MethodGet, "/api/users/me", leaving, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	env.signup(t, "bob")
	env.signup(t, "carol")
	env.call(t, http.MethodPost, "/api/users/bob/follow", alice, nil)

	status, users := env.callList(t, http.MethodGet, "/api/users", alice)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, users, 3)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u["username"].(string))
		assert.NotContains(t, u, "password")
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
	assert.Equal(t, true, users[1]["is_following"])
	assert.Equal(t, float64(1), users[1]["followers_count"])
	assert.Equal(t, false, users[2]["is_following"])

	status, users = env.callList(t, http.MethodGet, "/api/users?limit=1&offset=2", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0]["username"])
	assert.Equal(t, false, users[0]["is_following"])

	status, users = env.callList(t, http.MethodGet, "/api/users?offset=10", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, users)
}

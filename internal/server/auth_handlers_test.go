package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Success",
			body:           map[string]string{"username": "ada_l", "email": "ada@example.com", "password": testPassword},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Duplicate username",
			body:           map[string]string{"username": "ada_l", "email": "other@example.com", "password": testPassword},
			expectedStatus: http.StatusOK,
			expectedCode:   "ALREADY_EXISTS",
		},
		{
			name:           "Duplicate email ignores case",
			body:           map[string]string{"username": "ada_two", "email": "ADA@example.com", "password": testPassword},
			expectedStatus: http.StatusOK,
			expectedCode:   "ALREADY_EXISTS",
		},
		{
			name:           "Weak password",
			body:           map[string]string{"username": "grace", "email": "grace@example.com", "password": "short"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_OPERATION",
		},
		{
			name:           "Bad username",
			body:           map[string]string{"username": "x", "email": "x@example.com", "password": testPassword},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_OPERATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.call(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, tt.expectedStatus, status, body)
			if tt.expectedCode == "" {
				assert.Equal(t, true, body["success"])
				payload := body["payload"].(map[string]any)
				assert.NotEmpty(t, payload["token"])
				user := payload["user"].(map[string]any)
				assert.Equal(t, "ada_l", user["username"])
				assert.NotContains(t, user, "password")
				return
			}
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.expectedCode, body["code"])
		})
	}
}

func TestSignup_InvalidBody(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.callRaw(t, http.MethodPost, "/api/auth/signup", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "linus")

	t.Run("valid credentials", func(t *testing.T) {
		status, body := env.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"username": "linus", "password": testPassword,
		})
		require.Equal(t, http.StatusOK, status, body)
		token := body["payload"].(map[string]any)["token"].(string)

		status, me := env.call(t, http.MethodGet, "/api/users/me", token, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "linus", me["username"])
	})

	for name, creds := range map[string]map[string]string{
		"wrong password": {"username": "linus", "password": "Wrong-Password-1!"},
		"unknown user":   {"username": "nobody", "password": testPassword},
	} {
		t.Run(name, func(t *testing.T) {
			status, body := env.call(t, http.MethodPost, "/api/auth/login", "", creds)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "UNAUTHENTICATED", body["code"])
			assert.Equal(t, "Invalid username or password", body["message"])
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/feed"},
		{http.MethodPost, "/api/posts"},
		{http.MethodPut, "/api/posts/1"},
		{http.MethodDelete, "/api/posts/1"},
		{http.MethodPost, "/api/posts/1/like"},
		{http.MethodPost, "/api/posts/1/comments"},
		{http.MethodPut, "/api/comments/1"},
		{http.MethodDelete, "/api/comments/1"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodDelete, "/api/users/me"},
		{http.MethodPost, "/api/users/someone/follow"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, body := env.call(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "UNAUTHENTICATED", body["code"])
		})
	}

	status, _ := env.call(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

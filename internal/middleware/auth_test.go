package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialgraph/internal/auth"
	"socialgraph/internal/authz"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRequired(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret-key-12345678901234567890123456789012")
	token, err := issuer.IssueToken(authz.Identity{UserID: 123, Username: "alice"})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", AuthRequired(issuer), func(c *fiber.Ctx) error {
		id := IdentityFrom(c)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": id.UserID, "username": id.Username})
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + token, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body struct {
					UserID   uint   `json:"userID"`
					Username string `json:"username"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.expectedUserID, body.UserID)
				assert.Equal(t, "alice", body.Username)
			} else {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, "UNAUTHENTICATED", body["code"])
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret-key-12345678901234567890123456789012")
	token, err := issuer.IssueToken(authz.Identity{UserID: 7, Username: "bob"})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/test", OptionalAuth(issuer), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"authenticated": IdentityFrom(c).IsAuthenticated()})
	})

	for name, header := range map[string]string{
		"anonymous":   "",
		"bad token":   "Bearer nope",
		"valid token": "Bearer " + token,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]bool
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, name == "valid token", body["authenticated"])
		})
	}
}

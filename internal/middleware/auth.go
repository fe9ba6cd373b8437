// Package middleware provides authentication, logging, metrics and tracing
// middleware for the HTTP transport.
package middleware

import (
	"context"
	"strings"

	"socialgraph/internal/authz"
	"socialgraph/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentityLocal is the Fiber locals key holding the caller's authz.Identity.
const IdentityLocal = "identity"

// TokenParser turns a bearer token into an identity.
type TokenParser interface {
	Parse(token string) (authz.Identity, error)
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Authorization header required"))
		}

		id, err := parser.Parse(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("Invalid or expired token"))
		}

		setIdentity(c, id)
		return c.Next()
	}
}

// OptionalAuth attaches an identity when a valid token is present and
// continues anonymously otherwise.
func OptionalAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if id, err := parser.Parse(tokenString); err == nil {
				setIdentity(c, id)
			}
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity attached by the auth middleware, or an
// anonymous identity.
func IdentityFrom(c *fiber.Ctx) authz.Identity {
	if id, ok := c.Locals(IdentityLocal).(authz.Identity); ok {
		return id
	}
	return authz.Anonymous()
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *fiber.Ctx, id authz.Identity) {
	c.Locals(IdentityLocal, id)
	c.Locals("userID", id.UserID)
	// Sync to UserContext for logging and downstream services
	ctx := context.WithValue(c.UserContext(), UserIDKey, id.UserID)
	c.SetUserContext(ctx)
}

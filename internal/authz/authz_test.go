package authz

import (
	"errors"
	"testing"

	"socialgraph/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codeOf(t *testing.T, err error) models.ErrorCode {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	return appErr.Code
}

func TestRequire(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.CodeUnauthenticated, codeOf(t, Require(Anonymous())))
	assert.NoError(t, Require(Identity{UserID: 4, Username: "alice"}))
}

func TestRequireOwner(t *testing.T) {
	t.Parallel()

	alice := Identity{UserID: 1, Username: "alice"}

	t.Run("owner passes", func(t *testing.T) {
		assert.NoError(t, RequireOwner(alice, "Post", 10, 1))
	})

	t.Run("anonymous is unauthenticated", func(t *testing.T) {
		assert.Equal(t, models.CodeUnauthenticated, codeOf(t, RequireOwner(Anonymous(), "Post", 10, 1)))
	})

	t.Run("missing and foreign look the same", func(t *testing.T) {
		foreign := RequireOwner(alice, "Post", 10, 2)
		missing := RequireOwner(alice, "Post", 10, 0)

		assert.Equal(t, models.CodeNotFoundOrForbidden, codeOf(t, foreign))
		assert.Equal(t, models.CodeNotFoundOrForbidden, codeOf(t, missing))
		assert.Equal(t, foreign.Error(), missing.Error())
	})
}

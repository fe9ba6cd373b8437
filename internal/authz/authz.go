// Package authz holds the caller identity and the ownership checks every
// mutating operation runs before it touches the store.
package authz

import "socialgraph/internal/models"

// Identity is the caller of an operation. The zero value is anonymous.
type Identity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

// Anonymous returns an identity with no authenticated user.
func Anonymous() Identity {
	return Identity{}
}

// IsAuthenticated reports whether the identity carries a user.
func (id Identity) IsAuthenticated() bool {
	return id.UserID != 0
}

// Require rejects anonymous callers.
func Require(id Identity) error {
	if !id.IsAuthenticated() {
		return models.NewUnauthenticatedError("Authentication required")
	}
	return nil
}

// RequireOwner checks that id owns the resource. Pass ownerID 0 for a
// resource that does not exist; the caller gets the same error either way.
func RequireOwner(id Identity, resource string, resourceID, ownerID uint) error {
	if err := Require(id); err != nil {
		return err
	}
	if ownerID == 0 || ownerID != id.UserID {
		return models.NewNotFoundOrForbiddenError(resource, resourceID)
	}
	return nil
}

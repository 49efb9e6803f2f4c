// Package session carries the logged-in identity through a request.
package session

import (
	"context"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
)

// Identity is resolved once at login and threaded into every workflow call.
type Identity struct {
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func FromUser(u *models.User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Require fails with a forbidden error unless the identity holds role.
func (id Identity) Require(role models.Role) error {
	if id.UserID == 0 {
		return apperr.Unauthenticated("please log in")
	}
	if id.Role != role {
		return apperr.Forbidden("only a " + string(role) + " can do that")
	}
	return nil
}

// Authenticated fails unless the identity belongs to a logged-in user.
func (id Identity) Authenticated() error {
	if id.UserID == 0 {
		return apperr.Unauthenticated("please log in")
	}
	return nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

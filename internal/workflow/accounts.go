package workflow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/auth"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

var errBadCredentials = apperr.Unauthenticated("invalid username or password")

func (e *Engine) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := e.check(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Storage("register", err)
	}

	u, err := e.store.Repos().Users.Create(ctx, models.User{
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         models.Role(in.Role),
	})
	if err != nil {
		e.logFailure("register", err)
		return nil, err
	}

	e.logger.Info("user registered", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// Login resolves the identity for a username and password.
func (e *Engine) Login(ctx context.Context, in LoginInput) (session.Identity, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := e.check(in); err != nil {
		return session.Identity{}, err
	}

	u, err := e.store.Repos().Users.GetByUsername(ctx, in.Username)
	if err != nil {
		return read(e, "login", session.Identity{}, err)
	}
	if u == nil {
		return session.Identity{}, errBadCredentials
	}

	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		return read(e, "login", session.Identity{}, apperr.Storage("login", err))
	}
	if !ok {
		return session.Identity{}, errBadCredentials
	}
	return session.FromUser(u), nil
}

func (e *Engine) Me(ctx context.Context, id session.Identity) (*models.User, error) {
	if err := id.Authenticated(); err != nil {
		return nil, err
	}
	u, err := e.store.Repos().Users.GetByID(ctx, id.UserID)
	if err != nil {
		return read[*models.User](e, "me", nil, err)
	}
	if u == nil {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

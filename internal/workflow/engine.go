// Package workflow implements every user action of the housing system.
//
// Each method validates its input, checks the caller's role and then runs
// its mutation, the availability recompute and the notification writes in
// one transaction. Notifications reach live subscribers only after that
// transaction commits.
package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/notify"
	"github.com/lalith-99/dormlink/internal/repository"
	"github.com/lalith-99/dormlink/internal/validate"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Engine struct {
	store    repository.Store
	hub      *notify.Hub
	validate *validate.Validator
	now      func() time.Time
	logger   *zap.Logger
}

type Option func(*Engine)

// WithClock overrides the clock used for "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store repository.Store, hub *notify.Hub, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		hub:      hub,
		validate: validate.New(),
		now:      time.Now,
		logger:   logger.Named("workflow"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the current date in DateLayout.
func (e *Engine) Today() string {
	return e.now().Format(DateLayout)
}

// unit is one transaction: the repositories bound to it and the
// notifications it has written so far.
type unit struct {
	repository.Repos
	ctx    context.Context
	outbox []models.Notification
}

func (u *unit) notify(userID int64, message string) error {
	n, err := u.Notifications.Create(u.ctx, userID, message)
	if err != nil {
		return err
	}
	u.outbox = append(u.outbox, *n)
	return nil
}

func (u *unit) notifyAll(userIDs []int64, message string) error {
	for _, id := range userIDs {
		if err := u.notify(id, message); err != nil {
			return err
		}
	}
	return nil
}

// transact runs fn in a transaction and dispatches the notifications it
// wrote once the transaction has committed.
//
// Why collect an outbox instead of calling hub.Notify inside fn?
//   - Notify invokes live handlers (websockets, the Redis relay) right away.
//     Inside the transaction a later step can still fail and roll back, and
//     the subscriber would have seen a message that no longer exists.
//   - The rows are still written inside the transaction, so a committed
//     state change always has its notification persisted with it.
//   - If the process dies between commit and Dispatch, the rows remain
//     readable through ListNotifications; only the live push is lost.
func (e *Engine) transact(ctx context.Context, op string, fn func(u *unit) error) error {
	var outbox []models.Notification
	err := e.store.WithinTx(ctx, func(r repository.Repos) error {
		u := &unit{Repos: r, ctx: ctx}
		if err := fn(u); err != nil {
			return err
		}
		outbox = u.outbox
		return nil
	})
	if err != nil {
		e.logFailure(op, err)
		return err
	}

	e.hub.Dispatch(ctx, outbox...)
	return nil
}

// read wraps a plain read so storage failures get logged the same way.
func read[T any](e *Engine, op string, v T, err error) (T, error) {
	if err != nil {
		e.logFailure(op, err)
	}
	return v, err
}

func (e *Engine) logFailure(op string, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindStorage, apperr.KindUnknown:
		e.logger.Error("operation failed", zap.String("op", op), zap.Error(err))
	default:
		e.logger.Debug("operation rejected", zap.String("op", op), zap.String("reason", apperr.Reason(err)))
	}
}

func (e *Engine) check(in any) error {
	return e.validate.Struct(in)
}

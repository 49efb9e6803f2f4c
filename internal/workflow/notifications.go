package workflow

import (
	"context"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

// ListNotifications is the pull side of the hub: everything ever sent to
// the user, newest first.
func (e *Engine) ListNotifications(ctx context.Context, id session.Identity) ([]models.Notification, error) {
	if err := id.Authenticated(); err != nil {
		return nil, err
	}
	ns, err := e.store.Repos().Notifications.ListByUser(ctx, id.UserID)
	return read(e, "list notifications", ns, err)
}

// MarkNotificationRead sets the read flag on one of the user's notifications.
// Nothing else reads the flag yet.
func (e *Engine) MarkNotificationRead(ctx context.Context, id session.Identity, notificationID int64) error {
	if err := id.Authenticated(); err != nil {
		return err
	}
	ok, err := e.store.Repos().Notifications.SetStatus(ctx, notificationID, id.UserID, models.NotificationRead)
	if err != nil {
		e.logFailure("mark notification read", err)
		return err
	}
	if !ok {
		return apperr.NotFound("notification")
	}
	return nil
}

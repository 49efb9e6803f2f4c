package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

// NotificationStore persists the messages the hub fans out.
type NotificationStore struct {
	db DBTX
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Status,
		&n.CreatedAt,
	)
	return n, err
}

func (s *NotificationStore) Create(ctx context.Context, userID int64, message string) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, message, status, created_at)
		VALUES ($1, $2, 'unread', now())
		RETURNING id, user_id, message, status, created_at`

	n, err := scanNotification(s.db.QueryRow(ctx, query, userID, message))
	if err != nil {
		return nil, wrap("insert notification", err)
	}
	return &n, nil
}

// ListByUser orders by id rather than created_at: ids are monotonic and
// every notification in one transaction shares the same now().
func (s *NotificationStore) ListByUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, message, status, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY id DESC`
	return getAll(ctx, s.db, "list notifications", scanNotification, query, userID)
}

func (s *NotificationStore) SetStatus(ctx context.Context, id, userID int64, status models.NotificationStatus) (bool, error) {
	query := `UPDATE notifications SET status = $3 WHERE id = $1 AND user_id = $2`
	n, err := exec(ctx, s.db, "set notification status", query, id, userID, status)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

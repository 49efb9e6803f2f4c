package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const eventColumns = `id, organizer_id, name, location, event_date, event_time, max_participants, description, event_type`

type EventStore struct {
	db DBTX
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID,
		&e.OrganizerID,
		&e.Name,
		&e.Location,
		&e.Date,
		&e.Time,
		&e.MaxParticipants,
		&e.Description,
		&e.Type,
	)
	return e, err
}

func scanEventView(row pgx.Row) (models.EventView, error) {
	var v models.EventView
	err := row.Scan(
		&v.ID,
		&v.OrganizerID,
		&v.Name,
		&v.Location,
		&v.Date,
		&v.Time,
		&v.MaxParticipants,
		&v.Description,
		&v.Type,
		&v.AcceptedCount,
		&v.OrganizerUsername,
		&v.MyStatus,
	)
	return v, err
}

func (s *EventStore) Create(ctx context.Context, e models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (organizer_id, name, location, event_date, event_time, max_participants, description, event_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + eventColumns

	created, err := scanEvent(s.db.QueryRow(ctx, query,
		e.OrganizerID, e.Name, e.Location, e.Date, e.Time, e.MaxParticipants, e.Description, e.Type,
	))
	if err != nil {
		return nil, wrap("insert event", err)
	}
	return &created, nil
}

func (s *EventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return getOne(ctx, s.db, "get event", scanEvent, query, id)
}

func (s *EventStore) GetForUpdate(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return getOne(ctx, s.db, "lock event", scanEvent, query, id)
}

func (s *EventStore) Update(ctx context.Context, e models.Event) error {
	query := `
		UPDATE events
		SET name = $2, location = $3, event_date = $4, event_time = $5, max_participants = $6,
			description = $7, event_type = $8
		WHERE id = $1`

	_, err := exec(ctx, s.db, "update event", query,
		e.ID, e.Name, e.Location, e.Date, e.Time, e.MaxParticipants, e.Description, e.Type,
	)
	return err
}

// Delete cascades to event_participants.
func (s *EventStore) Delete(ctx context.Context, id int64) error {
	_, err := exec(ctx, s.db, "delete event", `DELETE FROM events WHERE id = $1`, id)
	return err
}

// viewQuery selects EventView rows. viewerID fills my_status; zero leaves it NULL.
func viewQuery(viewerID int64) sq.SelectBuilder {
	return psql.Select(
		prefixed("e", eventColumns),
		"(SELECT count(*) FROM event_participants a WHERE a.event_id = e.id AND a.status = 'accepted')",
		"u.username",
	).
		Column("(SELECT m.status FROM event_participants m WHERE m.event_id = e.id AND m.student_id = ?)", viewerID).
		From("events e").
		Join("users u ON u.id = e.organizer_id").
		OrderBy("e.id")
}

func (s *EventStore) ListByOrganizer(ctx context.Context, organizerID int64) ([]models.EventView, error) {
	b := viewQuery(0).Where(sq.Eq{"e.organizer_id": organizerID})
	return getAllBuilt(ctx, s.db, "list events by organizer", scanEventView, b)
}

func (s *EventStore) ListAvailable(ctx context.Context, viewerID int64) ([]models.EventView, error) {
	b := viewQuery(viewerID).
		Where(sq.NotEq{"e.organizer_id": viewerID}).
		Where("(SELECT count(*) FROM event_participants a WHERE a.event_id = e.id AND a.status = 'accepted') < e.max_participants")
	return getAllBuilt(ctx, s.db, "list available events", scanEventView, b)
}

func (s *EventStore) ListUpcoming(ctx context.Context, userID int64) ([]models.EventView, error) {
	b := viewQuery(0).Where(sq.Or{
		sq.Eq{"e.organizer_id": userID},
		sq.Expr("EXISTS (SELECT 1 FROM event_participants p WHERE p.event_id = e.id AND p.student_id = ? AND p.status = 'accepted')", userID),
	})
	return getAllBuilt(ctx, s.db, "list upcoming events", scanEventView, b)
}

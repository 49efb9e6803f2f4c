package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

// Join requests for events and carpools share one shape: a (parent,
// student) pair that is unique, with a pending/accepted/rejected status.

type ParticipantStore struct {
	db DBTX
}

func scanParticipant(row pgx.Row) (models.EventParticipant, error) {
	var p models.EventParticipant
	err := row.Scan(&p.ID, &p.EventID, &p.StudentID, &p.Status)
	return p, err
}

// Create returns repository.ErrDuplicateEventJoin when the student already
// asked to join.
func (s *ParticipantStore) Create(ctx context.Context, p models.EventParticipant) (*models.EventParticipant, error) {
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	query := `
		INSERT INTO event_participants (event_id, student_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, event_id, student_id, status`

	created, err := scanParticipant(s.db.QueryRow(ctx, query, p.EventID, p.StudentID, p.Status))
	if err != nil {
		return nil, wrap("insert event participant", err)
	}
	return &created, nil
}

func (s *ParticipantStore) GetByID(ctx context.Context, id int64) (*models.EventParticipant, error) {
	query := `SELECT id, event_id, student_id, status FROM event_participants WHERE id = $1`
	return getOne(ctx, s.db, "get event participant", scanParticipant, query, id)
}

func (s *ParticipantStore) Find(ctx context.Context, eventID, studentID int64) (*models.EventParticipant, error) {
	query := `
		SELECT id, event_id, student_id, status
		FROM event_participants
		WHERE event_id = $1 AND student_id = $2`
	return getOne(ctx, s.db, "find event participant", scanParticipant, query, eventID, studentID)
}

func (s *ParticipantStore) SetStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	_, err := exec(ctx, s.db, "set participant status", `UPDATE event_participants SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (s *ParticipantStore) CountAccepted(ctx context.Context, eventID int64) (int, error) {
	query := `SELECT count(*) FROM event_participants WHERE event_id = $1 AND status = 'accepted'`

	var n int
	if err := s.db.QueryRow(ctx, query, eventID).Scan(&n); err != nil {
		return 0, wrap("count accepted participants", err)
	}
	return n, nil
}

func (s *ParticipantStore) ListAcceptedStudents(ctx context.Context, eventID int64) ([]int64, error) {
	query := `SELECT student_id FROM event_participants WHERE event_id = $1 AND status = 'accepted' ORDER BY id`
	return getAll(ctx, s.db, "list accepted participants", scanInt64, query, eventID)
}

func (s *ParticipantStore) ListForOrganizer(ctx context.Context, organizerID int64) ([]models.EventRequestView, error) {
	query := `
		SELECT p.id, p.event_id, p.student_id, p.status, e.name, u.username
		FROM event_participants p
		JOIN events e ON e.id = p.event_id
		JOIN users u ON u.id = p.student_id
		WHERE e.organizer_id = $1
		ORDER BY p.id`

	return getAll(ctx, s.db, "list event requests", func(row pgx.Row) (models.EventRequestView, error) {
		var v models.EventRequestView
		err := row.Scan(&v.ID, &v.EventID, &v.StudentID, &v.Status, &v.EventName, &v.StudentUsername)
		return v, err
	}, query, organizerID)
}

type CarpoolRequestStore struct {
	db DBTX
}

func scanCarpoolRequest(row pgx.Row) (models.CarpoolRequest, error) {
	var r models.CarpoolRequest
	err := row.Scan(&r.ID, &r.CarpoolID, &r.StudentID, &r.Status)
	return r, err
}

// Create returns repository.ErrDuplicateRideJoin when the student already
// asked for a seat.
func (s *CarpoolRequestStore) Create(ctx context.Context, r models.CarpoolRequest) (*models.CarpoolRequest, error) {
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	query := `
		INSERT INTO carpool_requests (carpool_id, student_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, carpool_id, student_id, status`

	created, err := scanCarpoolRequest(s.db.QueryRow(ctx, query, r.CarpoolID, r.StudentID, r.Status))
	if err != nil {
		return nil, wrap("insert carpool request", err)
	}
	return &created, nil
}

func (s *CarpoolRequestStore) GetByID(ctx context.Context, id int64) (*models.CarpoolRequest, error) {
	query := `SELECT id, carpool_id, student_id, status FROM carpool_requests WHERE id = $1`
	return getOne(ctx, s.db, "get carpool request", scanCarpoolRequest, query, id)
}

func (s *CarpoolRequestStore) Find(ctx context.Context, carpoolID, studentID int64) (*models.CarpoolRequest, error) {
	query := `
		SELECT id, carpool_id, student_id, status
		FROM carpool_requests
		WHERE carpool_id = $1 AND student_id = $2`
	return getOne(ctx, s.db, "find carpool request", scanCarpoolRequest, query, carpoolID, studentID)
}

func (s *CarpoolRequestStore) SetStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	_, err := exec(ctx, s.db, "set carpool request status", `UPDATE carpool_requests SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (s *CarpoolRequestStore) ListAcceptedStudents(ctx context.Context, carpoolID int64) ([]int64, error) {
	query := `SELECT student_id FROM carpool_requests WHERE carpool_id = $1 AND status = 'accepted' ORDER BY id`
	return getAll(ctx, s.db, "list accepted passengers", scanInt64, query, carpoolID)
}

func (s *CarpoolRequestStore) ListForDriver(ctx context.Context, driverID int64) ([]models.CarpoolRequestView, error) {
	query := `
		SELECT r.id, r.carpool_id, r.student_id, r.status, c.start_point, c.destination, u.username
		FROM carpool_requests r
		JOIN carpools c ON c.id = r.carpool_id
		JOIN users u ON u.id = r.student_id
		WHERE c.driver_id = $1
		ORDER BY r.id`

	return getAll(ctx, s.db, "list carpool requests", func(row pgx.Row) (models.CarpoolRequestView, error) {
		var v models.CarpoolRequestView
		err := row.Scan(&v.ID, &v.CarpoolID, &v.StudentID, &v.Status, &v.StartPoint, &v.Destination, &v.StudentUsername)
		return v, err
	}, query, driverID)
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const visitColumns = `id, property_id, student_id, homeowner_id, visit_type, visit_date, visit_time, note, status`

type VisitStore struct {
	db DBTX
}

func scanVisit(row pgx.Row) (models.Visit, error) {
	var v models.Visit
	err := row.Scan(
		&v.ID,
		&v.PropertyID,
		&v.StudentID,
		&v.HomeownerID,
		&v.Type,
		&v.Date,
		&v.Time,
		&v.Note,
		&v.Status,
	)
	return v, err
}

func scanVisitView(row pgx.Row) (models.VisitView, error) {
	var v models.VisitView
	err := row.Scan(
		&v.ID,
		&v.PropertyID,
		&v.StudentID,
		&v.HomeownerID,
		&v.Type,
		&v.Date,
		&v.Time,
		&v.Note,
		&v.Status,
		&v.Address,
		&v.StudentUsername,
	)
	return v, err
}

func (s *VisitStore) Create(ctx context.Context, v models.Visit) (*models.Visit, error) {
	if v.Status == "" {
		v.Status = models.StatusPending
	}
	query := `
		INSERT INTO property_visits (property_id, student_id, homeowner_id, visit_type, visit_date, visit_time, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + visitColumns

	created, err := scanVisit(s.db.QueryRow(ctx, query,
		v.PropertyID, v.StudentID, v.HomeownerID, v.Type, v.Date, v.Time, v.Note, v.Status,
	))
	if err != nil {
		return nil, wrap("insert visit", err)
	}
	return &created, nil
}

func (s *VisitStore) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM property_visits WHERE id = $1`
	return getOne(ctx, s.db, "get visit", scanVisit, query, id)
}

func (s *VisitStore) SetStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	_, err := exec(ctx, s.db, "set visit status", `UPDATE property_visits SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (s *VisitStore) HasAccepted(ctx context.Context, studentID, propertyID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM property_visits
			WHERE student_id = $1 AND property_id = $2 AND status = 'accepted'
		)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, studentID, propertyID).Scan(&exists); err != nil {
		return false, wrap("check accepted visit", err)
	}
	return exists, nil
}

const visitViewSelect = `
	SELECT v.id, v.property_id, v.student_id, v.homeowner_id, v.visit_type, v.visit_date, v.visit_time,
		v.note, v.status, p.address, u.username
	FROM property_visits v
	JOIN properties p ON p.id = v.property_id
	JOIN users u ON u.id = v.student_id`

func (s *VisitStore) ListForHomeowner(ctx context.Context, homeownerID int64) ([]models.VisitView, error) {
	query := visitViewSelect + `
	WHERE v.homeowner_id = $1
	ORDER BY v.id`
	return getAll(ctx, s.db, "list visits for homeowner", scanVisitView, query, homeownerID)
}

func (s *VisitStore) ListAccepted(ctx context.Context, userID int64) ([]models.VisitView, error) {
	query := visitViewSelect + `
	WHERE v.status = 'accepted' AND (v.student_id = $1 OR v.homeowner_id = $1)
	ORDER BY v.visit_date, v.visit_time, v.id`
	return getAll(ctx, s.db, "list accepted visits", scanVisitView, query, userID)
}

func (s *VisitStore) ListAcceptedStudents(ctx context.Context, propertyID int64) ([]models.User, error) {
	query := `
		SELECT ` + prefixed("u", userColumns) + `
		FROM users u
		WHERE EXISTS (
			SELECT 1 FROM property_visits v
			WHERE v.student_id = u.id AND v.property_id = $1 AND v.status = 'accepted'
		)
		ORDER BY u.id`
	return getAll(ctx, s.db, "list accepted visitors", scanUser, query, propertyID)
}

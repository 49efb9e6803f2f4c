package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const carpoolColumns = `id, driver_id, start_point, destination, seats, price, ride_date, ride_time, stops`

type CarpoolStore struct {
	db DBTX
}

func scanCarpool(row pgx.Row) (models.Carpool, error) {
	var c models.Carpool
	err := row.Scan(
		&c.ID,
		&c.DriverID,
		&c.StartPoint,
		&c.Destination,
		&c.Seats,
		&c.Price,
		&c.Date,
		&c.Time,
		&c.Stops,
	)
	if c.Stops == nil {
		c.Stops = []models.Stop{}
	}
	return c, err
}

func scanCarpoolView(row pgx.Row) (models.CarpoolView, error) {
	var v models.CarpoolView
	err := row.Scan(
		&v.ID,
		&v.DriverID,
		&v.StartPoint,
		&v.Destination,
		&v.Seats,
		&v.Price,
		&v.Date,
		&v.Time,
		&v.Stops,
		&v.DriverUsername,
	)
	if v.Stops == nil {
		v.Stops = []models.Stop{}
	}
	return v, err
}

// stops is stored as a JSONB array; a nil slice would encode as NULL.
func stopsOf(c models.Carpool) []models.Stop {
	if c.Stops == nil {
		return []models.Stop{}
	}
	return c.Stops
}

func (s *CarpoolStore) Create(ctx context.Context, c models.Carpool) (*models.Carpool, error) {
	query := `
		INSERT INTO carpools (driver_id, start_point, destination, seats, price, ride_date, ride_time, stops)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + carpoolColumns

	created, err := scanCarpool(s.db.QueryRow(ctx, query,
		c.DriverID, c.StartPoint, c.Destination, c.Seats, c.Price, c.Date, c.Time, stopsOf(c),
	))
	if err != nil {
		return nil, wrap("insert carpool", err)
	}
	return &created, nil
}

func (s *CarpoolStore) GetByID(ctx context.Context, id int64) (*models.Carpool, error) {
	query := `SELECT ` + carpoolColumns + ` FROM carpools WHERE id = $1`
	return getOne(ctx, s.db, "get carpool", scanCarpool, query, id)
}

// GetForUpdate locks the row until the surrounding transaction ends. Outside
// WithinTx the lock is released as soon as the statement commits.
func (s *CarpoolStore) GetForUpdate(ctx context.Context, id int64) (*models.Carpool, error) {
	query := `SELECT ` + carpoolColumns + ` FROM carpools WHERE id = $1 FOR UPDATE`
	return getOne(ctx, s.db, "lock carpool", scanCarpool, query, id)
}

func (s *CarpoolStore) Update(ctx context.Context, c models.Carpool) error {
	query := `
		UPDATE carpools
		SET start_point = $2, destination = $3, seats = $4, price = $5, ride_date = $6, ride_time = $7, stops = $8
		WHERE id = $1`

	_, err := exec(ctx, s.db, "update carpool", query,
		c.ID, c.StartPoint, c.Destination, c.Seats, c.Price, c.Date, c.Time, stopsOf(c),
	)
	return err
}

// Delete cascades to carpool_requests.
func (s *CarpoolStore) Delete(ctx context.Context, id int64) error {
	_, err := exec(ctx, s.db, "delete carpool", `DELETE FROM carpools WHERE id = $1`, id)
	return err
}

// DecrementSeat never drives seats below zero: the WHERE clause makes the
// check and the write one statement.
//
// Why both this and GetForUpdate?
//   - RespondToCarpoolRequest locks the carpool row first, so two drivers'
//     accepts for the last seat queue up instead of both reading seats = 1.
//   - The conditional UPDATE still holds if a caller skipped the lock: the
//     second decrement matches zero rows and reports false, which the
//     availability engine turns into "no seats left".
func (s *CarpoolStore) DecrementSeat(ctx context.Context, id int64) (bool, error) {
	n, err := exec(ctx, s.db, "decrement carpool seat",
		`UPDATE carpools SET seats = seats - 1 WHERE id = $1 AND seats > 0`, id)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *CarpoolStore) ListByDriver(ctx context.Context, driverID int64) ([]models.Carpool, error) {
	query := `SELECT ` + carpoolColumns + ` FROM carpools WHERE driver_id = $1 ORDER BY id`
	return getAll(ctx, s.db, "list carpools by driver", scanCarpool, query, driverID)
}

func carpoolViewQuery() sq.SelectBuilder {
	return psql.Select(prefixed("c", carpoolColumns), "u.username").
		From("carpools c").
		Join("users u ON u.id = c.driver_id").
		OrderBy("c.id")
}

func (s *CarpoolStore) Search(ctx context.Context, start, destination string) ([]models.CarpoolView, error) {
	startLike := "%" + start + "%"
	b := carpoolViewQuery().
		Where(sq.Gt{"c.seats": 0}).
		Where(sq.ILike{"c.destination": "%" + destination + "%"}).
		Where(sq.Or{
			sq.ILike{"c.start_point": startLike},
			sq.Expr("EXISTS (SELECT 1 FROM jsonb_array_elements(c.stops) s WHERE s->>'name' ILIKE ?)", startLike),
		})
	return getAllBuilt(ctx, s.db, "search carpools", scanCarpoolView, b)
}

func (s *CarpoolStore) ListUpcoming(ctx context.Context, userID int64) ([]models.CarpoolView, error) {
	b := carpoolViewQuery().Where(sq.Or{
		sq.Eq{"c.driver_id": userID},
		sq.Expr("EXISTS (SELECT 1 FROM carpool_requests r WHERE r.carpool_id = c.id AND r.student_id = ? AND r.status = 'accepted')", userID),
	})
	return getAllBuilt(ctx, s.db, "list upcoming carpools", scanCarpoolView, b)
}

package postgres

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/repository"
)

// DBTX is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is a DBTX that can open transactions.
type Conn interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// uniqueViolations maps unique constraint names from the schema to the
// errors callers branch on.
var uniqueViolations = map[string]error{
	"users_username_key":                        repository.ErrUsernameTaken,
	"users_email_key":                           repository.ErrEmailTaken,
	"event_participants_event_id_student_id_key": repository.ErrDuplicateEventJoin,
	"carpool_requests_carpool_id_student_id_key": repository.ErrDuplicateRideJoin,
}

// Store implements repository.Store on top of a pgx pool.
type Store struct {
	conn Conn
}

func New(conn Conn) *Store {
	return &Store{conn: conn}
}

func (s *Store) Repos() repository.Repos {
	return reposOn(s.conn)
}

// WithinTx runs fn inside a single transaction. A panic in fn rolls back
// and is re-raised.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Repos) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return wrap("begin tx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(reposOn(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, wrap("rollback tx", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrap("commit tx", err)
	}
	return nil
}

func reposOn(db DBTX) repository.Repos {
	return repository.Repos{
		Users:           &UserStore{db: db},
		Properties:      &PropertyStore{db: db},
		Visits:          &VisitStore{db: db},
		Leases:          &LeaseStore{db: db},
		Maintenance:     &MaintenanceStore{db: db},
		Events:          &EventStore{db: db},
		Participants:    &ParticipantStore{db: db},
		Carpools:        &CarpoolStore{db: db},
		CarpoolRequests: &CarpoolRequestStore{db: db},
		Notifications:   &NotificationStore{db: db},
		Bookmarks:       &BookmarkStore{db: db},
	}
}

// wrap turns a driver error into an apperr value. Unique violations on a
// known constraint become the matching repository error.
func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if mapped, ok := uniqueViolations[pgErr.ConstraintName]; ok {
			return mapped
		}
	}
	return apperr.Storage(op, err)
}

// getOne scans a single row. A missing row is nil, nil.
func getOne[T any](ctx context.Context, db DBTX, op string, scan func(pgx.Row) (T, error), query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return &v, nil
}

// getAll scans every row. An empty result is an empty slice.
func getAll[T any](ctx context.Context, db DBTX, op string, scan func(pgx.Row) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}

// getAllBuilt runs a squirrel SELECT through getAll.
func getAllBuilt[T any](ctx context.Context, db DBTX, op string, scan func(pgx.Row) (T, error), b sq.SelectBuilder) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	return getAll(ctx, db, op, scan, query, args...)
}

func exec(ctx context.Context, db DBTX, op string, query string, args ...any) (int64, error) {
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrap(op, err)
	}
	return tag.RowsAffected(), nil
}

func scanInt64(row pgx.Row) (int64, error) {
	var v int64
	err := row.Scan(&v)
	return v, err
}

// prefixed qualifies a comma separated column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/lalith-99/dormlink/internal/models"
)

const userColumns = `id, username, password_hash, email, phone, role`

type UserStore struct {
	db DBTX
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.Phone,
		&u.Role,
	)
	return u, err
}

// Create inserts a new user row. Duplicate usernames and emails come back as
// repository.ErrUsernameTaken and repository.ErrEmailTaken.
func (s *UserStore) Create(ctx context.Context, u models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, email, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	created, err := scanUser(s.db.QueryRow(ctx, query, u.Username, u.PasswordHash, u.Email, u.Phone, u.Role))
	if err != nil {
		return nil, wrap("insert user", err)
	}
	return &created, nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return getOne(ctx, s.db, "get user", scanUser, query, id)
}

// GetByUsername is the login lookup.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return getOne(ctx, s.db, "get user by username", scanUser, query, username)
}

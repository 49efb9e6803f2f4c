package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationsAreEmbeddedInOrder(t *testing.T) {
	ms, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, "0001_init", ms[0].Version)
	assert.Contains(t, ms[0].SQL, "CONSTRAINT users_username_key UNIQUE (username)")
	assert.Contains(t, ms[0].SQL, "CONSTRAINT event_participants_event_id_student_id_key")
	assert.Contains(t, ms[0].SQL, "CONSTRAINT carpool_requests_carpool_id_student_id_key")
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("applies pending migrations", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mock.ExpectQuery(`SELECT version FROM schema_migrations`).
			WillReturnRows(pgxmock.NewRows([]string{"version"}))
		mock.ExpectBegin()
		mock.ExpectExec(`CREATE TABLE users`).
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).
			WithArgs("0001_init").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		applied, err := Migrate(ctx, mock, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, []string{"0001_init"}, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips recorded versions", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mock.ExpectQuery(`SELECT version FROM schema_migrations`).
			WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("0001_init"))

		applied, err := Migrate(ctx, mock, zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, applied)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

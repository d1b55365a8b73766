package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"courseconnect/internal/apperr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgresRepository(conn), mock
}

func TestPostgresRepository_CreateUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	u := &User{ID: uuid.New(), FullName: "Ada", Email: "ada@example.com", Password: "hash"}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.ID, "Ada", "ada@example.com", "hash", "").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	require.NoError(t, repo.CreateUser(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)

	err := repo.CreateUser(context.Background(), &User{ID: uuid.New(), Email: "ada@example.com"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	cols := []string{"id", "full_name", "email", "password", "profile_pic", "created_at"}

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(id.String(), "Ada", "ada@example.com", "hash", "", time.Now()))
	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.GetUserByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FullName)

	_, err = repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListUsersExcept(t *testing.T) {
	repo, mock := newMockRepo(t)
	me := uuid.New()

	mock.ExpectQuery("FROM users WHERE id <>").
		WithArgs(me).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "profile_pic"}))

	users, err := repo.ListUsersExcept(context.Background(), me)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

package user

import (
	"context"
	"database/sql"
	"errors"

	"courseconnect/internal/apperr"
	"courseconnect/internal/db"

	"github.com/google/uuid"
)

// Repository persists users. Missing rows are reported as apperr.ErrNotFound
// and a duplicate email as apperr.ErrConflict.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsersExcept(ctx context.Context, id uuid.UUID) ([]Summary, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*User, error)
}

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) CreateUser(ctx context.Context, u *User) error {
	query := `INSERT INTO users (id, full_name, email, password, profile_pic)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, u.ID, u.FullName, u.Email, u.Password, u.ProfilePic).Scan(&u.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, full_name, email, password, profile_pic, created_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, full_name, email, password, profile_pic, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.ProfilePic, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) ListUsersExcept(ctx context.Context, id uuid.UUID) ([]Summary, error) {
	q := `SELECT id, full_name, email, profile_pic FROM users WHERE id <> $1 ORDER BY full_name, id`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.FullName, &s.Email, &s.ProfilePic); err != nil {
			return nil, err
		}
		users = append(users, s)
	}
	return users, rows.Err()
}

// ListUsers returns every user in signup order.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]User, error) {
	q := `SELECT id, full_name, email, password, profile_pic, created_at FROM users ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.ProfilePic, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*User, error) {
	query := `UPDATE users SET profile_pic = $2 WHERE id = $1
		RETURNING id, full_name, email, password, profile_pic, created_at`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id, url))
}

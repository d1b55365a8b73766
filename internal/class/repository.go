package class

import (
	"context"
	"database/sql"
	"errors"

	"courseconnect/internal/apperr"
	"courseconnect/internal/db"
	"courseconnect/internal/user"

	"github.com/google/uuid"
)

// Repository persists classes and their member sets.
//
// CreateClass stores the class together with the creator's membership and
// returns apperr.ErrConflict when the code is taken. AddMember is an atomic
// add-to-set: it reports false when the user was already a member.
type Repository interface {
	CreateClass(ctx context.Context, c *Class) error
	GetClassByCode(ctx context.Context, code string) (*Class, error)
	GetClassByID(ctx context.Context, id uuid.UUID) (*Class, error)
	AddMember(ctx context.Context, classID, userID uuid.UUID) (bool, error)
	ResetMembers(ctx context.Context, classID uuid.UUID) error
	ListMembers(ctx context.Context, classID uuid.UUID) ([]user.Summary, error)
	ListClassesForUser(ctx context.Context, userID uuid.UUID) ([]Class, error)
}

type PostgresRepository struct {
	conn *sql.DB
}

func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

const classColumns = `c.id, c.name, c.code, c.description, c.instructor, c.created_by, c.created_at`

func (r *PostgresRepository) CreateClass(ctx context.Context, c *Class) error {
	err := db.WithTx(ctx, r.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		q := `INSERT INTO classes (id, name, code, description, instructor, created_by)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
		if err := tx.QueryRowContext(ctx, q, c.ID, c.Name, c.Code, c.Description, c.Instructor, c.CreatedBy).Scan(&c.CreatedAt); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `INSERT INTO class_members (class_id, user_id) VALUES ($1, $2)`, c.ID, c.CreatedBy)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) GetClassByCode(ctx context.Context, code string) (*Class, error) {
	q := `SELECT ` + classColumns + ` FROM classes c WHERE c.code = $1`
	return scanClass(r.conn.QueryRowContext(ctx, q, code))
}

func (r *PostgresRepository) GetClassByID(ctx context.Context, id uuid.UUID) (*Class, error) {
	q := `SELECT ` + classColumns + ` FROM classes c WHERE c.id = $1`
	return scanClass(r.conn.QueryRowContext(ctx, q, id))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClass(row scanner) (*Class, error) {
	c := &Class{}
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Description, &c.Instructor, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, classID, userID uuid.UUID) (bool, error) {
	q := `INSERT INTO class_members (class_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	res, err := r.conn.ExecContext(ctx, q, classID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ResetMembers empties the class roster, creator included.
func (r *PostgresRepository) ResetMembers(ctx context.Context, classID uuid.UUID) error {
	_, err := r.conn.ExecContext(ctx, `DELETE FROM class_members WHERE class_id = $1`, classID)
	return err
}

// ListMembers returns members in join order.
func (r *PostgresRepository) ListMembers(ctx context.Context, classID uuid.UUID) ([]user.Summary, error) {
	q := `SELECT u.id, u.full_name, u.email, u.profile_pic
		FROM class_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.class_id = $1
		ORDER BY m.seq`
	rows, err := r.conn.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []user.Summary{}
	for rows.Next() {
		var s user.Summary
		if err := rows.Scan(&s.ID, &s.FullName, &s.Email, &s.ProfilePic); err != nil {
			return nil, err
		}
		members = append(members, s)
	}
	return members, rows.Err()
}

func (r *PostgresRepository) ListClassesForUser(ctx context.Context, userID uuid.UUID) ([]Class, error) {
	q := `SELECT ` + classColumns + `
		FROM classes c
		JOIN class_members m ON m.class_id = c.id
		WHERE m.user_id = $1
		ORDER BY m.seq`
	rows, err := r.conn.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

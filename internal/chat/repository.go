package chat

import (
	"context"

	"courseconnect/internal/db"

	"github.com/google/uuid"
)

// Repository persists messages.
type Repository interface {
	SaveMessage(ctx context.Context, m *Message) error
	GetConversation(ctx context.Context, a, b uuid.UUID) ([]Message, error)
}

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) SaveMessage(ctx context.Context, m *Message) error {
	query := `INSERT INTO messages (id, sender_id, receiver_id, text, image)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, m.ID, m.SenderID, m.ReceiverID, m.Text, m.Image).Scan(&m.CreatedAt)
}

// GetConversation returns the messages exchanged between a and b in storage order.
func (r *PostgresRepository) GetConversation(ctx context.Context, a, b uuid.UUID) ([]Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, query, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

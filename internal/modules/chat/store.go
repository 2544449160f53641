// README: Chat message persistence in PostgreSQL.
package chat

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"campool/internal/types"
)

type Store interface {
	AppendMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, rideID types.ID, limit int) ([]Message, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) AppendMessage(ctx context.Context, m *Message) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO ride_messages (ride_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		string(m.RideID), string(m.UserID), m.Text, m.CreatedAt,
	).Scan(&m.ID)
}

// ListMessages returns the most recent messages in chronological order.
func (s *PGStore) ListMessages(ctx context.Context, rideID types.ID, limit int) ([]Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, ride_id, user_id, body, created_at FROM (
			SELECT id, ride_id, user_id, body, created_at
			FROM ride_messages WHERE ride_id = $1
			ORDER BY id DESC LIMIT $2
		) recent ORDER BY id`,
		string(rideID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.RideID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

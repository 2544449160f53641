// README: Matcher storage reading candidate rides from PostgreSQL.
package match

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campool/internal/modules/ride"
	"campool/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// ListOpenRides returns joinable rides on the query date with at least one
// free seat, excluding rides the requester created. Seat availability is
// computed from the live participant rows, not the cached seat count, so a
// stale counter cannot surface an unjoinable ride.
func (s *PGStore) ListOpenRides(ctx context.Context, q Query) ([]*ride.Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, creator_id, destination, pickup_location, date,
		       window_start, window_end, max_seats, seat_count, status, notes,
		       completed_by, completed_at, created_at
		FROM rides r
		WHERE status IN ('waiting','active')
		  AND date = $1
		  AND creator_id <> $2
		  AND (SELECT COUNT(*) FROM ride_participants p WHERE p.ride_id = r.id) < r.max_seats
		ORDER BY window_start, id`,
		ride.DateOf(q.Date), string(q.RequesterID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ride.Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRide(rows pgx.Rows) (*ride.Ride, error) {
	var r ride.Ride
	var pickup, notes, completedBy *string
	var completedAt *time.Time
	if err := rows.Scan(
		&r.ID, &r.CreatorID, &r.Destination, &pickup, &r.Date,
		&r.WindowStart, &r.WindowEnd, &r.MaxSeats, &r.SeatCount, &r.Status, &notes,
		&completedBy, &completedAt, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Date = ride.DateOf(r.Date)
	r.PickupLocation = pickup
	r.Notes = notes
	if completedBy != nil {
		id := types.ID(*completedBy)
		r.CompletedBy = &id
	}
	r.CompletedAt = completedAt
	return &r, nil
}

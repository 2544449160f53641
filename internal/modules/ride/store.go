// README: Ride store backed by PostgreSQL; lifecycle mutations run inside row-locked transactions.
package ride

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campool/internal/types"
)

// Store is the persistence contract the lifecycle service depends on.
// InRideTx serializes all mutations of a single ride: the implementation must
// lock the ride row for the duration of fn, so concurrent operations on the
// same ride are applied one at a time.
type Store interface {
	CreateRide(ctx context.Context, r *Ride) error
	GetRide(ctx context.Context, id types.ID) (*Ride, error)
	GetParticipants(ctx context.Context, id types.ID) ([]Participant, error)
	ListByUser(ctx context.Context, userID types.ID) ([]*Ride, error)
	// ListExpired returns ids of open rides whose window elapsed before the
	// given civil date/minute.
	ListExpired(ctx context.Context, date time.Time, minute int) ([]types.ID, error)
	InRideTx(ctx context.Context, id types.ID, fn func(tx Tx) error) error
}

// Tx is the per-ride transactional view handed to lifecycle logic. Ride()
// returns the locked snapshot; mutations are applied within the same
// transaction and become visible atomically on commit.
type Tx interface {
	Ride() *Ride
	Participants(ctx context.Context) ([]Participant, error)
	InsertParticipant(ctx context.Context, userID types.ID, at time.Time) error
	DeleteParticipant(ctx context.Context, userID types.ID) error
	DeleteAllParticipants(ctx context.Context) error
	UpdateRide(ctx context.Context, r *Ride) error
	DeleteRide(ctx context.Context) error
	AppendEvent(ctx context.Context, e *Event) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const rideColumns = `id, creator_id, destination, pickup_location, date,
	window_start, window_end, max_seats, seat_count, status, notes,
	completed_by, completed_at, created_at`

func (s *PGStore) CreateRide(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (`+rideColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		string(r.ID), string(r.CreatorID), r.Destination, r.PickupLocation, r.Date,
		r.WindowStart, r.WindowEnd, r.MaxSeats, r.SeatCount, string(r.Status), r.Notes,
		idPtr(r.CompletedBy), r.CompletedAt, r.CreatedAt,
	)
	return err
}

func (s *PGStore) GetRide(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	return scanRide(row)
}

func (s *PGStore) GetParticipants(ctx context.Context, id types.ID) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ride_id, user_id, joined_at FROM ride_participants
		WHERE ride_id = $1 ORDER BY joined_at, user_id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParticipants(rows)
}

func (s *PGStore) ListByUser(ctx context.Context, userID types.ID) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE creator_id = $1
		   OR id IN (SELECT ride_id FROM ride_participants WHERE user_id = $1)
		ORDER BY date, window_start`, string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) ListExpired(ctx context.Context, date time.Time, minute int) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM rides
		WHERE status IN ('waiting','active','full')
		  AND (date < $1 OR (date = $1 AND window_end <= $2))`,
		date, minute)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}

// InRideTx runs fn inside a transaction holding a FOR UPDATE lock on the ride
// row, so check-then-act sequences against the same ride are serialized by the
// database.
func (s *PGStore) InRideTx(ctx context.Context, id types.ID, fn func(tx Tx) error) error {
	dbtx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx)

	row := dbtx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 FOR UPDATE`, string(id))
	r, err := scanRide(row)
	if err != nil {
		return err
	}
	if err := fn(&pgTx{tx: dbtx, ride: r}); err != nil {
		return err
	}
	return dbtx.Commit(ctx)
}

type pgTx struct {
	tx   pgx.Tx
	ride *Ride
}

func (t *pgTx) Ride() *Ride { return t.ride }

func (t *pgTx) Participants(ctx context.Context) ([]Participant, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT ride_id, user_id, joined_at FROM ride_participants
		WHERE ride_id = $1 ORDER BY joined_at, user_id`, string(t.ride.ID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParticipants(rows)
}

func (t *pgTx) InsertParticipant(ctx context.Context, userID types.ID, at time.Time) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO ride_participants (ride_id, user_id, joined_at)
		VALUES ($1, $2, $3)`, string(t.ride.ID), string(userID), at)
	return err
}

func (t *pgTx) DeleteParticipant(ctx context.Context, userID types.ID) error {
	_, err := t.tx.Exec(ctx, `
		DELETE FROM ride_participants WHERE ride_id = $1 AND user_id = $2`,
		string(t.ride.ID), string(userID))
	return err
}

func (t *pgTx) DeleteAllParticipants(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM ride_participants WHERE ride_id = $1`, string(t.ride.ID))
	return err
}

func (t *pgTx) UpdateRide(ctx context.Context, r *Ride) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE rides
		SET creator_id = $1, seat_count = $2, status = $3,
		    completed_by = $4, completed_at = $5
		WHERE id = $6`,
		string(r.CreatorID), r.SeatCount, string(r.Status),
		idPtr(r.CompletedBy), r.CompletedAt, string(r.ID))
	return err
}

func (t *pgTx) DeleteRide(ctx context.Context) error {
	// participants and messages cascade
	_, err := t.tx.Exec(ctx, `DELETE FROM rides WHERE id = $1`, string(t.ride.ID))
	return err
}

func (t *pgTx) AppendEvent(ctx context.Context, e *Event) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO ride_events (ride_id, from_status, to_status, action, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID), string(e.FromStatus), string(e.ToStatus),
		e.Action, idPtr(e.ActorID), e.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRide(row rowScanner) (*Ride, error) {
	var r Ride
	var pickup, notes, completedBy *string
	var completedAt *time.Time
	err := row.Scan(
		&r.ID, &r.CreatorID, &r.Destination, &pickup, &r.Date,
		&r.WindowStart, &r.WindowEnd, &r.MaxSeats, &r.SeatCount, &r.Status, &notes,
		&completedBy, &completedAt, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Date = DateOf(r.Date)
	r.PickupLocation = pickup
	r.Notes = notes
	if completedBy != nil {
		id := types.ID(*completedBy)
		r.CompletedBy = &id
	}
	r.CompletedAt = completedAt
	return &r, nil
}

func scanParticipants(rows pgx.Rows) ([]Participant, error) {
	var out []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.RideID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

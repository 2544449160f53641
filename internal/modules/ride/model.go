// README: Ride aggregate, participant rows, and status definitions.
package ride

import (
	"time"

	"campool/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusFull      Status = "full"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Ride is the central entity. CreatorID is mutable: ownership transfers to the
// earliest-joined participant when the creator leaves. The creator is not a
// participant row until the first external join materializes them as one.
type Ride struct {
	ID             types.ID
	CreatorID      types.ID
	Destination    string
	PickupLocation *string
	// Date is the calendar date of the ride, normalized to midnight UTC.
	Date time.Time
	// WindowStart and WindowEnd are minutes since midnight, start < end.
	WindowStart int
	WindowEnd   int
	MaxSeats    int
	// SeatCount caches the live participant-row count for the ride.
	SeatCount   int
	Status      Status
	Notes       *string
	CompletedBy *types.ID
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// Participant is a join row: having a seat, distinct from being the creator.
type Participant struct {
	RideID   types.ID
	UserID   types.ID
	JoinedAt time.Time
}

// Event is one row of the ride audit trail.
type Event struct {
	ID         int64
	RideID     types.ID
	FromStatus Status
	ToStatus   Status
	Action     string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusWaiting: {StatusActive, StatusFull, StatusCompleted, StatusCancelled},
	StatusActive:  {StatusActive, StatusFull, StatusCompleted, StatusCancelled},
	StatusFull:    {StatusActive, StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Open reports whether the ride still accepts lifecycle operations.
func (s Status) Open() bool {
	return s == StatusWaiting || s == StatusActive || s == StatusFull
}

// Joinable reports whether new riders may join.
func (s Status) Joinable() bool {
	return s == StatusWaiting || s == StatusActive
}

// Elapsed reports whether the ride's time window has passed relative to now,
// where now must already be expressed in the policy time zone.
func (r *Ride) Elapsed(now time.Time) bool {
	today := DateOf(now)
	if r.Date.Before(today) {
		return true
	}
	return r.Date.Equal(today) && r.WindowEnd <= MinuteOf(now)
}

// README: Ride lifecycle service; all policy runs inside per-ride row locks.
package ride

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"campool/internal/observability"
	"campool/internal/types"
)

var (
	ErrNotFound        = errors.New("ride not found")
	ErrValidation      = errors.New("invalid ride request")
	ErrForbidden       = errors.New("operation not allowed for this user")
	ErrSelfJoin        = errors.New("creator cannot join own ride")
	ErrAlreadyJoined   = errors.New("user already joined this ride")
	ErrRideFull        = errors.New("ride has no free seats")
	ErrNotParticipant  = errors.New("user is not a participant of this ride")
	ErrCompleted       = errors.New("ride already completed")
	ErrHasParticipants = errors.New("ride still has other participants")
)

// Notifier receives lifecycle events so collaborators (chat rooms, presence)
// can react. Delivery is best effort and must never fail a lifecycle
// operation.
type Notifier interface {
	RideEvent(ctx context.Context, rideID types.ID, event string, actorID types.ID)
}

// Lifecycle event names passed to the Notifier.
const (
	EvUserJoined     = "userJoined"
	EvUserLeft       = "userLeft"
	EvCreatorChanged = "creatorChanged"
	EvRideCancelled  = "rideCancelled"
	EvRideCompleted  = "rideCompleted"
)

type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	maxSeats int
	now      func() time.Time
}

func NewService(store Store, logger *slog.Logger, maxSeats int) *Service {
	return &Service{
		store:    store,
		logger:   logger,
		maxSeats: maxSeats,
		now:      time.Now,
	}
}

// SetNotifier wires the collaborator that consumes lifecycle events. Chat
// needs the ride service for membership checks, so the notifier is attached
// after both are constructed.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateCommand struct {
	CreatorID      types.ID
	Destination    string
	PickupLocation *string
	Date           time.Time
	WindowStart    int
	WindowEnd      int
	Notes          *string
}

type JoinCommand struct {
	RideID types.ID
	UserID types.ID
}

type LeaveCommand struct {
	RideID types.ID
	UserID types.ID
}

type CompleteCommand struct {
	RideID types.ID
	UserID types.ID
}

type DeleteCommand struct {
	RideID types.ID
	UserID types.ID
}

// Create opens a new ride in waiting state. The creator holds implicit
// membership and is not written as a participant row yet.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	r := &Ride{
		ID:             types.ID(newID()),
		CreatorID:      cmd.CreatorID,
		Destination:    strings.TrimSpace(cmd.Destination),
		PickupLocation: cmd.PickupLocation,
		Date:           DateOf(cmd.Date),
		WindowStart:    cmd.WindowStart,
		WindowEnd:      cmd.WindowEnd,
		MaxSeats:       s.maxSeats,
		SeatCount:      0,
		Status:         StatusWaiting,
		Notes:          cmd.Notes,
		CreatedAt:      now,
	}
	if err := s.store.CreateRide(ctx, r); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	observability.RidesCreatedTotal.Inc()
	s.logger.Info("ride created",
		"ride_id", r.ID, "creator_id", r.CreatorID, "destination", r.Destination)
	return r, nil
}

func validateCreate(cmd CreateCommand) error {
	if cmd.CreatorID == "" {
		return fmt.Errorf("%w: missing creator", ErrValidation)
	}
	if strings.TrimSpace(cmd.Destination) == "" {
		return fmt.Errorf("%w: missing destination", ErrValidation)
	}
	if cmd.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrValidation)
	}
	if cmd.WindowStart < 0 || cmd.WindowEnd > 24*60 {
		return fmt.Errorf("%w: window out of range", ErrValidation)
	}
	if cmd.WindowStart >= cmd.WindowEnd {
		return fmt.Errorf("%w: window start must precede end", ErrValidation)
	}
	return nil
}

// Join adds a rider to an open ride. The first external join also materializes
// the creator as a participant row, so one join can consume two seats.
func (s *Service) Join(ctx context.Context, cmd JoinCommand) (*Ride, error) {
	var out *Ride
	err := s.store.InRideTx(ctx, cmd.RideID, func(tx Tx) error {
		r := tx.Ride()
		if r.Status == StatusFull {
			return ErrRideFull
		}
		if !r.Status.Joinable() {
			// completed and cancelled rides are invisible to joiners
			return ErrNotFound
		}
		if cmd.UserID == r.CreatorID {
			return ErrSelfJoin
		}
		parts, err := tx.Participants(ctx)
		if err != nil {
			return err
		}
		for _, p := range parts {
			if p.UserID == cmd.UserID {
				return ErrAlreadyJoined
			}
		}
		add := 1
		if !hasUser(parts, r.CreatorID) {
			// the creator takes their seat alongside the rider: on the very
			// first join, and again after an ownership transfer removed the
			// promoted creator's row
			add = 2
		}
		if len(parts)+add > r.MaxSeats {
			return ErrRideFull
		}
		now := s.now().UTC()
		if add == 2 {
			if err := tx.InsertParticipant(ctx, r.CreatorID, now); err != nil {
				return err
			}
		}
		if err := tx.InsertParticipant(ctx, cmd.UserID, now.Add(time.Microsecond)); err != nil {
			return err
		}
		from := r.Status
		r.SeatCount = len(parts) + add
		if r.SeatCount == r.MaxSeats {
			r.Status = StatusFull
		} else {
			r.Status = StatusActive
		}
		if err := tx.UpdateRide(ctx, r); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &Event{
			RideID: r.ID, FromStatus: from, ToStatus: r.Status,
			Action: "join", ActorID: &cmd.UserID, CreatedAt: now,
		}); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RideJoinsTotal.Inc()
	s.notify(ctx, out.ID, EvUserJoined, cmd.UserID)
	s.logger.Info("ride joined", "ride_id", out.ID, "user_id", cmd.UserID, "seats", out.SeatCount)
	return out, nil
}

// Leave removes a rider. A departing creator hands ownership to the
// earliest-joined remaining rider, or cancels the ride when nobody else holds
// a seat.
func (s *Service) Leave(ctx context.Context, cmd LeaveCommand) (*Ride, error) {
	var out *Ride
	var event string
	err := s.store.InRideTx(ctx, cmd.RideID, func(tx Tx) error {
		r := tx.Ride()
		if !r.Status.Open() {
			return ErrNotFound
		}
		parts, err := tx.Participants(ctx)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if cmd.UserID == r.CreatorID {
			others := withoutUser(parts, r.CreatorID)
			if len(others) == 0 {
				// nobody left to hand over to
				if err := tx.DeleteAllParticipants(ctx); err != nil {
					return err
				}
				from := r.Status
				r.SeatCount = 0
				r.Status = StatusCancelled
				if err := tx.UpdateRide(ctx, r); err != nil {
					return err
				}
				if err := tx.AppendEvent(ctx, &Event{
					RideID: r.ID, FromStatus: from, ToStatus: r.Status,
					Action: "cancel", ActorID: &cmd.UserID, CreatedAt: now,
				}); err != nil {
					return err
				}
				event = EvRideCancelled
				out = r
				return nil
			}
			heir := earliestJoined(others)
			if err := tx.DeleteParticipant(ctx, r.CreatorID); err != nil {
				return err
			}
			// the heir's seat is now implicit in the creator role, so the
			// remaining riders still count them as an occupant
			if err := tx.DeleteParticipant(ctx, heir); err != nil {
				return err
			}
			from := r.Status
			r.CreatorID = heir
			r.SeatCount = len(others)
			if r.Status == StatusFull {
				r.Status = StatusActive
			}
			if err := tx.UpdateRide(ctx, r); err != nil {
				return err
			}
			if err := tx.AppendEvent(ctx, &Event{
				RideID: r.ID, FromStatus: from, ToStatus: r.Status,
				Action: "transfer", ActorID: &cmd.UserID, CreatedAt: now,
			}); err != nil {
				return err
			}
			event = EvCreatorChanged
			out = r
			return nil
		}
		if !hasUser(parts, cmd.UserID) {
			return ErrNotParticipant
		}
		if err := tx.DeleteParticipant(ctx, cmd.UserID); err != nil {
			return err
		}
		occupants := len(parts)
		if !hasUser(parts, r.CreatorID) {
			// a promoted creator holds a seat without a participant row
			occupants++
		}
		from := r.Status
		r.SeatCount = occupants - 1
		r.Status = StatusActive
		if err := tx.UpdateRide(ctx, r); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &Event{
			RideID: r.ID, FromStatus: from, ToStatus: r.Status,
			Action: "leave", ActorID: &cmd.UserID, CreatedAt: now,
		}); err != nil {
			return err
		}
		event = EvUserLeft
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RideLeavesTotal.Inc()
	if event == EvRideCancelled {
		observability.RidesCancelledTotal.Inc()
	}
	s.notify(ctx, out.ID, event, cmd.UserID)
	s.logger.Info("ride left",
		"ride_id", out.ID, "user_id", cmd.UserID, "status", out.Status, "creator_id", out.CreatorID)
	return out, nil
}

// Complete finishes a ride. Any member may complete; a second attempt is a
// conflict rather than a silent success.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Ride, error) {
	var out *Ride
	err := s.store.InRideTx(ctx, cmd.RideID, func(tx Tx) error {
		r := tx.Ride()
		switch r.Status {
		case StatusCompleted:
			return ErrCompleted
		case StatusCancelled:
			return ErrNotFound
		}
		if cmd.UserID != r.CreatorID {
			parts, err := tx.Participants(ctx)
			if err != nil {
				return err
			}
			if !hasUser(parts, cmd.UserID) {
				return ErrForbidden
			}
		}
		now := s.now().UTC()
		from := r.Status
		r.Status = StatusCompleted
		r.CompletedBy = &cmd.UserID
		r.CompletedAt = &now
		if err := tx.UpdateRide(ctx, r); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &Event{
			RideID: r.ID, FromStatus: from, ToStatus: r.Status,
			Action: "complete", ActorID: &cmd.UserID, CreatedAt: now,
		}); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RidesCompletedTotal.Inc()
	s.notify(ctx, out.ID, EvRideCompleted, cmd.UserID)
	s.logger.Info("ride completed", "ride_id", out.ID, "completed_by", cmd.UserID)
	return out, nil
}

// Delete removes a ride entirely. Only the creator may delete, only while the
// ride is not completed, and only while no other rider holds a seat.
func (s *Service) Delete(ctx context.Context, cmd DeleteCommand) error {
	err := s.store.InRideTx(ctx, cmd.RideID, func(tx Tx) error {
		r := tx.Ride()
		if cmd.UserID != r.CreatorID {
			return ErrForbidden
		}
		if r.Status == StatusCompleted {
			return ErrCompleted
		}
		parts, err := tx.Participants(ctx)
		if err != nil {
			return err
		}
		if len(withoutUser(parts, r.CreatorID)) > 0 {
			return ErrHasParticipants
		}
		return tx.DeleteRide(ctx)
	})
	if err != nil {
		return err
	}
	s.logger.Info("ride deleted", "ride_id", cmd.RideID, "user_id", cmd.UserID)
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, []Participant, error) {
	r, err := s.store.GetRide(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	parts, err := s.store.GetParticipants(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return r, parts, nil
}

func (s *Service) ListMine(ctx context.Context, userID types.ID) ([]*Ride, error) {
	return s.store.ListByUser(ctx, userID)
}

// IsMember reports whether the user is the creator or holds a participant row.
// Chat uses this as its access check.
func (s *Service) IsMember(ctx context.Context, rideID, userID types.ID) (bool, error) {
	r, err := s.store.GetRide(ctx, rideID)
	if err != nil {
		return false, err
	}
	if r.CreatorID == userID {
		return true, nil
	}
	parts, err := s.store.GetParticipants(ctx, rideID)
	if err != nil {
		return false, err
	}
	return hasUser(parts, userID), nil
}

func (s *Service) notify(ctx context.Context, rideID types.ID, event string, actorID types.ID) {
	if s.notifier == nil {
		return
	}
	s.notifier.RideEvent(ctx, rideID, event, actorID)
}

func withoutUser(parts []Participant, userID types.ID) []Participant {
	out := make([]Participant, 0, len(parts))
	for _, p := range parts {
		if p.UserID != userID {
			out = append(out, p)
		}
	}
	return out
}

func hasUser(parts []Participant, userID types.ID) bool {
	for _, p := range parts {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// earliestJoined picks the successor creator: oldest join wins, user id breaks
// ties so the choice is deterministic.
func earliestJoined(parts []Participant) types.ID {
	sorted := make([]Participant, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].JoinedAt.Equal(sorted[j].JoinedAt) {
			return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	return sorted[0].UserID
}

func newID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

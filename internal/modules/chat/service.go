// README: Chat service; membership-gated messaging plus lifecycle relay.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"campool/internal/modules/ride"
	"campool/internal/types"
)

var (
	ErrNotMember  = errors.New("user is not a member of this ride")
	ErrEmptyText  = errors.New("message text is empty")
	ErrTooLong    = errors.New("message text exceeds limit")
	ErrRideClosed = errors.New("ride chat is closed")
)

const (
	maxMessageLen  = 2000
	defaultHistory = 50
)

// Membership answers whether a user may read and write a ride's chat. The
// ride service implements this.
type Membership interface {
	IsMember(ctx context.Context, rideID, userID types.ID) (bool, error)
}

type Service struct {
	store      Store
	hub        *Hub
	presence   *Presence
	membership Membership
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(store Store, hub *Hub, presence *Presence, membership Membership, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		hub:        hub,
		presence:   presence,
		membership: membership,
		logger:     logger,
		now:        time.Now,
	}
}

// Post persists a message and fans it out to the live room.
func (s *Service) Post(ctx context.Context, rideID, userID types.ID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(text) > maxMessageLen {
		return nil, ErrTooLong
	}
	if err := s.requireMember(ctx, rideID, userID); err != nil {
		return nil, err
	}
	m := &Message{
		RideID:    rideID,
		UserID:    userID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	s.hub.Broadcast(rideID, RoomEvent{
		Type:    EventMessage,
		RideID:  rideID,
		ActorID: userID,
		Message: m,
		At:      m.CreatedAt,
	})
	return m, nil
}

func (s *Service) History(ctx context.Context, rideID, userID types.ID, limit int) ([]Message, error) {
	if err := s.requireMember(ctx, rideID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = defaultHistory
	}
	return s.store.ListMessages(ctx, rideID, limit)
}

// Connect registers a live websocket session after re-checking membership.
func (s *Service) Connect(ctx context.Context, rideID, userID types.ID) error {
	if err := s.requireMember(ctx, rideID, userID); err != nil {
		return err
	}
	if err := s.presence.Connected(ctx, rideID, userID); err != nil {
		s.logger.Warn("presence add failed", "ride_id", rideID, "user_id", userID, "error", err)
	}
	return nil
}

func (s *Service) Disconnect(ctx context.Context, rideID, userID types.ID) {
	s.hub.Leave(rideID, userID)
	if err := s.presence.Disconnected(ctx, rideID, userID); err != nil {
		s.logger.Warn("presence remove failed", "ride_id", rideID, "user_id", userID, "error", err)
	}
}

func (s *Service) Online(ctx context.Context, rideID types.ID) ([]types.ID, error) {
	return s.presence.Online(ctx, rideID)
}

// RideEvent implements the ride module's Notifier: lifecycle changes are
// relayed into the room so open clients see joins, handovers and closure
// without polling.
func (s *Service) RideEvent(ctx context.Context, rideID types.ID, event string, actorID types.ID) {
	s.hub.Broadcast(rideID, RoomEvent{
		Type:    event,
		RideID:  rideID,
		ActorID: actorID,
		At:      s.now().UTC(),
	})
	if event == ride.EvRideCancelled {
		if err := s.presence.Clear(ctx, rideID); err != nil {
			s.logger.Warn("presence clear failed", "ride_id", rideID, "error", err)
		}
	}
}

func (s *Service) requireMember(ctx context.Context, rideID, userID types.ID) error {
	ok, err := s.membership.IsMember(ctx, rideID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

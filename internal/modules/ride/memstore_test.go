// README: In-memory Store used by the lifecycle and sweeper tests.
package ride

import (
	"context"
	"sync"
	"time"

	"campool/internal/types"
)

// memStore is a mutex-serialized Store. InRideTx holds the store lock for the
// whole callback, which mirrors the row-lock serialization of the real store.
type memStore struct {
	mu     sync.Mutex
	rides  map[types.ID]*Ride
	parts  map[types.ID][]Participant
	events map[types.ID][]Event

	// failParticipantsFor makes participant reads for one ride fail, to
	// exercise per-ride error isolation.
	failParticipantsFor types.ID
}

func newMemStore() *memStore {
	return &memStore{
		rides:  make(map[types.ID]*Ride),
		parts:  make(map[types.ID][]Participant),
		events: make(map[types.ID][]Event),
	}
}

func (s *memStore) CreateRide(_ context.Context, r *Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rides[r.ID] = &cp
	return nil
}

func (s *memStore) GetRide(_ context.Context, id types.ID) (*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) GetParticipants(_ context.Context, id types.ID) ([]Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Participant(nil), s.parts[id]...), nil
}

func (s *memStore) ListByUser(_ context.Context, userID types.ID) ([]*Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Ride
	for id, r := range s.rides {
		if r.CreatorID == userID {
			cp := *r
			out = append(out, &cp)
			continue
		}
		for _, p := range s.parts[id] {
			if p.UserID == userID {
				cp := *r
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (s *memStore) ListExpired(_ context.Context, date time.Time, minute int) ([]types.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []types.ID
	for id, r := range s.rides {
		if !r.Status.Open() {
			continue
		}
		if r.Date.Before(date) || (r.Date.Equal(date) && r.WindowEnd <= minute) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memStore) InRideTx(_ context.Context, id types.ID, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[id]
	if !ok {
		return ErrNotFound
	}
	cp := *r
	tx := &memTx{store: s, ride: &cp}
	if err := fn(tx); err != nil {
		return err
	}
	for _, apply := range tx.pending {
		apply()
	}
	return nil
}

// memTx buffers mutations and applies them on commit, so a failed callback
// leaves the store untouched.
type memTx struct {
	store   *memStore
	ride    *Ride
	pending []func()
}

func (t *memTx) Ride() *Ride { return t.ride }

func (t *memTx) Participants(_ context.Context) ([]Participant, error) {
	if t.store.failParticipantsFor == t.ride.ID {
		return nil, errBoom
	}
	return append([]Participant(nil), t.store.parts[t.ride.ID]...), nil
}

func (t *memTx) InsertParticipant(_ context.Context, userID types.ID, at time.Time) error {
	id := t.ride.ID
	t.pending = append(t.pending, func() {
		t.store.parts[id] = append(t.store.parts[id], Participant{RideID: id, UserID: userID, JoinedAt: at})
	})
	return nil
}

func (t *memTx) DeleteParticipant(_ context.Context, userID types.ID) error {
	id := t.ride.ID
	t.pending = append(t.pending, func() {
		kept := t.store.parts[id][:0]
		for _, p := range t.store.parts[id] {
			if p.UserID != userID {
				kept = append(kept, p)
			}
		}
		t.store.parts[id] = kept
	})
	return nil
}

func (t *memTx) DeleteAllParticipants(_ context.Context) error {
	id := t.ride.ID
	t.pending = append(t.pending, func() { delete(t.store.parts, id) })
	return nil
}

func (t *memTx) UpdateRide(_ context.Context, r *Ride) error {
	cp := *r
	t.pending = append(t.pending, func() { t.store.rides[cp.ID] = &cp })
	return nil
}

func (t *memTx) DeleteRide(_ context.Context) error {
	id := t.ride.ID
	t.pending = append(t.pending, func() {
		delete(t.store.rides, id)
		delete(t.store.parts, id)
		delete(t.store.events, id)
	})
	return nil
}

func (t *memTx) AppendEvent(_ context.Context, e *Event) error {
	cp := *e
	id := t.ride.ID
	t.pending = append(t.pending, func() {
		t.store.events[id] = append(t.store.events[id], cp)
	})
	return nil
}

// README: In-process websocket hub; one room per ride, one session per member.
package chat

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"campool/internal/types"
)

// session wraps a websocket connection with a write lock, since gorilla
// connections allow only one concurrent writer.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub fans room events out to the live websocket sessions of each ride. A
// second connection for the same member replaces the first.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[types.ID]map[types.ID]*session
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[types.ID]map[types.ID]*session),
		logger: logger,
	}
}

func (h *Hub) Join(rideID, userID types.ID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[rideID]
	if !ok {
		room = make(map[types.ID]*session)
		h.rooms[rideID] = room
	}
	if old, ok := room[userID]; ok {
		old.conn.Close()
	}
	room[userID] = &session{conn: conn}
}

func (h *Hub) Leave(rideID, userID types.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[rideID]
	if !ok {
		return
	}
	if s, ok := room[userID]; ok {
		s.conn.Close()
		delete(room, userID)
	}
	if len(room) == 0 {
		delete(h.rooms, rideID)
	}
}

// Broadcast pushes ev to every session in the ride's room. Sessions whose
// write fails are dropped; the client is expected to reconnect.
func (h *Hub) Broadcast(rideID types.ID, ev RoomEvent) {
	h.mu.RLock()
	room := h.rooms[rideID]
	sessions := make(map[types.ID]*session, len(room))
	for uid, s := range room {
		sessions[uid] = s
	}
	h.mu.RUnlock()

	var failed []types.ID
	for uid, s := range sessions {
		if err := s.send(ev); err != nil {
			h.logger.Warn("chat push failed, dropping session",
				"ride_id", rideID, "user_id", uid, "error", err)
			failed = append(failed, uid)
		}
	}
	for _, uid := range failed {
		h.Leave(rideID, uid)
	}
}

// RoomSize reports the live session count, mostly for tests and diagnostics.
func (h *Hub) RoomSize(rideID types.ID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[rideID])
}

// README: Chat message and room event types.
package chat

import (
	"time"

	"campool/internal/types"
)

type Message struct {
	ID        int64     `json:"id"`
	RideID    types.ID  `json:"ride_id"`
	UserID    types.ID  `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomEvent is the frame pushed to websocket sessions. Type is either
// "message" or one of the lifecycle event names relayed from the ride module.
type RoomEvent struct {
	Type    string    `json:"type"`
	RideID  types.ID  `json:"ride_id"`
	ActorID types.ID  `json:"actor_id,omitempty"`
	Message *Message  `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

const EventMessage = "message"

// README: Ride chat handlers; message history, posting, websocket sessions.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campool/internal/http/middleware"
	"campool/internal/modules/chat"
	"campool/internal/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// browser clients connect from the campus web app on another origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatHandler struct {
	chat *chat.Service
	hub  *chat.Hub
}

func NewChatHandler(svc *chat.Service, hub *chat.Hub) *ChatHandler {
	return &ChatHandler{chat: svc, hub: hub}
}

func (h *ChatHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.chat.History(c.Request.Context(),
		types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)), limit)
	if err != nil {
		writeChatError(c, err)
		return
	}
	online, err := h.chat.Online(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		online = nil
	}
	writeJSON(c, http.StatusOK, gin.H{"messages": msgs, "online": online})
}

type postMessageReq struct {
	Text string `json:"text"`
}

func (h *ChatHandler) Post(c *gin.Context) {
	var req postMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := h.chat.Post(c.Request.Context(),
		types.ID(c.Param("id")), types.ID(middleware.CallerUID(c)), req.Text)
	if err != nil {
		writeChatError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, m)
}

// Connect upgrades to a websocket session and pumps inbound frames into the
// chat service until the peer disconnects.
func (h *ChatHandler) Connect(c *gin.Context) {
	rideID := types.ID(c.Param("id"))
	userID := types.ID(middleware.CallerUID(c))
	if err := h.chat.Connect(c.Request.Context(), rideID, userID); err != nil {
		writeChatError(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		return
	}
	h.hub.Join(rideID, userID, conn)

	go func() {
		// the request context dies with the handler; the session outlives it
		ctx := context.Background()
		defer h.chat.Disconnect(ctx, rideID, userID)
		for {
			var req postMessageReq
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			// errors surface through the room stream; a bad frame is dropped
			_, _ = h.chat.Post(ctx, rideID, userID, req.Text)
		}
	}()
}

// README: User registration and profile handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campool/internal/http/middleware"
	"campool/internal/infra"
	"campool/internal/modules/user"
	"campool/internal/types"
)

const tokenTTL = 30 * 24 * time.Hour

type UserHandler struct {
	users  *user.Service
	tokens *infra.JWTManager
}

func NewUserHandler(users *user.Service, tokens *infra.JWTManager) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

type registerReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.users.Register(c.Request.Context(), user.RegisterCommand{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeUserError(c, err)
		return
	}
	token, err := h.tokens.Issue(string(u.ID), u.Role, tokenTTL)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"user": u, "token": token})
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeUserError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, u)
}

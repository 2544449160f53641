// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campool/internal/http/handlers"
	"campool/internal/http/middleware"
	"campool/internal/infra"
)

// Handlers bundles the constructed handler set for router wiring.
type Handlers struct {
	Users        *handlers.UserHandler
	Rides        *handlers.RideHandler
	Chat         *handlers.ChatHandler
	Destinations *handlers.DestinationHandler
}

func NewRouter(h Handlers, verifier infra.TokenVerifier, logger *slog.Logger) http.Handler {
	r := gin.New()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/users/register", h.Users.Register)

	api := r.Group("/api", middleware.Auth(verifier))
	{
		api.GET("/users/me", h.Users.Me)

		api.POST("/rides", h.Rides.Create)
		api.GET("/rides/mine", h.Rides.ListMine)
		api.POST("/rides/match", h.Rides.Match)
		api.GET("/rides/:id", h.Rides.Get)
		api.POST("/rides/:id/join", h.Rides.Join)
		api.POST("/rides/:id/leave", h.Rides.Leave)
		api.POST("/rides/:id/complete", h.Rides.Complete)
		api.DELETE("/rides/:id", h.Rides.Delete)

		api.GET("/rides/:id/messages", h.Chat.History)
		api.POST("/rides/:id/messages", h.Chat.Post)
		api.GET("/rides/:id/chat/ws", h.Chat.Connect)

		api.GET("/destinations/suggest", h.Destinations.Suggest)
	}

	return r
}

// README: Ride lifecycle and matching handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campool/internal/http/middleware"
	"campool/internal/modules/match"
	"campool/internal/modules/ride"
	"campool/internal/types"
)

type RideHandler struct {
	rides   *ride.Service
	matcher *match.Service
}

func NewRideHandler(rides *ride.Service, matcher *match.Service) *RideHandler {
	return &RideHandler{rides: rides, matcher: matcher}
}

type createRideReq struct {
	Destination    string  `json:"destination"`
	PickupLocation *string `json:"pickup_location"`
	Date           string  `json:"date"`
	WindowStart    string  `json:"window_start"`
	WindowEnd      string  `json:"window_end"`
	Notes          *string `json:"notes"`
}

type rideView struct {
	ID             types.ID  `json:"id"`
	CreatorID      types.ID  `json:"creator_id"`
	Destination    string    `json:"destination"`
	PickupLocation *string   `json:"pickup_location,omitempty"`
	Date           string    `json:"date"`
	WindowStart    string    `json:"window_start"`
	WindowEnd      string    `json:"window_end"`
	MaxSeats       int       `json:"max_seats"`
	SeatCount      int       `json:"seat_count"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes,omitempty"`
	CompletedBy    *types.ID `json:"completed_by,omitempty"`
}

func viewOf(r *ride.Ride) rideView {
	return rideView{
		ID:             r.ID,
		CreatorID:      r.CreatorID,
		Destination:    r.Destination,
		PickupLocation: r.PickupLocation,
		Date:           r.Date.Format("2006-01-02"),
		WindowStart:    formatClock(r.WindowStart),
		WindowEnd:      formatClock(r.WindowEnd),
		MaxSeats:       r.MaxSeats,
		SeatCount:      r.SeatCount,
		Status:         string(r.Status),
		Notes:          r.Notes,
		CompletedBy:    r.CompletedBy,
	}
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseClock(req.WindowStart)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseClock(req.WindowEnd)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		CreatorID:      types.ID(middleware.CallerUID(c)),
		Destination:    req.Destination,
		PickupLocation: req.PickupLocation,
		Date:           date,
		WindowStart:    start,
		WindowEnd:      end,
		Notes:          req.Notes,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, viewOf(r))
}

func (h *RideHandler) Get(c *gin.Context) {
	r, parts, err := h.rides.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	members := make([]types.ID, 0, len(parts))
	for _, p := range parts {
		members = append(members, p.UserID)
	}
	writeJSON(c, http.StatusOK, gin.H{"ride": viewOf(r), "participants": members})
}

func (h *RideHandler) ListMine(c *gin.Context) {
	rides, err := h.rides.ListMine(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	views := make([]rideView, 0, len(rides))
	for _, r := range rides {
		views = append(views, viewOf(r))
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": views})
}

func (h *RideHandler) Join(c *gin.Context) {
	r, err := h.rides.Join(c.Request.Context(), ride.JoinCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, viewOf(r))
}

func (h *RideHandler) Leave(c *gin.Context) {
	r, err := h.rides.Leave(c.Request.Context(), ride.LeaveCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, viewOf(r))
}

func (h *RideHandler) Complete(c *gin.Context) {
	r, err := h.rides.Complete(c.Request.Context(), ride.CompleteCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, viewOf(r))
}

func (h *RideHandler) Delete(c *gin.Context) {
	err := h.rides.Delete(c.Request.Context(), ride.DeleteCommand{
		RideID: types.ID(c.Param("id")),
		UserID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type matchReq struct {
	Destination string `json:"destination"`
	Date        string `json:"date"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

type matchView struct {
	Ride             rideView `json:"ride"`
	ExactDestination bool     `json:"exact_destination"`
	StartDeltaMin    int      `json:"start_delta_min"`
}

func (h *RideHandler) Match(c *gin.Context) {
	var req matchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Destination == "" {
		writeError(c, http.StatusBadRequest, "missing destination")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	start, err := parseClock(req.WindowStart)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseClock(req.WindowEnd)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if start >= end {
		writeError(c, http.StatusBadRequest, "window start must precede end")
		return
	}
	candidates := h.matcher.FindMatches(c.Request.Context(), match.Query{
		RequesterID: types.ID(middleware.CallerUID(c)),
		Destination: req.Destination,
		Date:        date,
		WindowStart: start,
		WindowEnd:   end,
	})
	views := make([]matchView, 0, len(candidates))
	for _, cand := range candidates {
		views = append(views, matchView{
			Ride:             viewOf(cand.Ride),
			ExactDestination: cand.ExactDestination,
			StartDeltaMin:    cand.StartDelta,
		})
	}
	writeJSON(c, http.StatusOK, gin.H{"matches": views})
}

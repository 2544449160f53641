// README: Handler tests for auth, validation, and error mapping.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"campool/internal/destgroup"
	"campool/internal/http/handlers"
	httpmiddleware "campool/internal/http/middleware"
	"campool/internal/infra"
	"campool/internal/modules/match"
	"campool/internal/modules/ride"
	"campool/internal/types"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.AuthToken
	err   error
}

func (s *stubTokenVerifier) Verify(_ context.Context, _ string) (*infra.AuthToken, error) {
	return s.token, s.err
}

// stubRideStore backs the handler tests with a single canned ride.
type stubRideStore struct {
	ride    *ride.Ride
	parts   []ride.Participant
	created *ride.Ride
}

func (s *stubRideStore) CreateRide(_ context.Context, r *ride.Ride) error {
	s.created = r
	return nil
}

func (s *stubRideStore) GetRide(_ context.Context, id types.ID) (*ride.Ride, error) {
	if s.ride == nil || s.ride.ID != id {
		return nil, ride.ErrNotFound
	}
	cp := *s.ride
	return &cp, nil
}

func (s *stubRideStore) GetParticipants(_ context.Context, _ types.ID) ([]ride.Participant, error) {
	return s.parts, nil
}

func (s *stubRideStore) ListByUser(_ context.Context, _ types.ID) ([]*ride.Ride, error) {
	if s.ride == nil {
		return nil, nil
	}
	cp := *s.ride
	return []*ride.Ride{&cp}, nil
}

func (s *stubRideStore) ListExpired(_ context.Context, _ time.Time, _ int) ([]types.ID, error) {
	return nil, nil
}

func (s *stubRideStore) InRideTx(_ context.Context, id types.ID, fn func(tx ride.Tx) error) error {
	if s.ride == nil || s.ride.ID != id {
		return ride.ErrNotFound
	}
	cp := *s.ride
	return fn(&stubRideTx{store: s, ride: &cp})
}

type stubRideTx struct {
	store *stubRideStore
	ride  *ride.Ride
}

func (t *stubRideTx) Ride() *ride.Ride { return t.ride }
func (t *stubRideTx) Participants(_ context.Context) ([]ride.Participant, error) {
	return t.store.parts, nil
}
func (t *stubRideTx) InsertParticipant(_ context.Context, userID types.ID, at time.Time) error {
	t.store.parts = append(t.store.parts, ride.Participant{RideID: t.ride.ID, UserID: userID, JoinedAt: at})
	return nil
}
func (t *stubRideTx) DeleteParticipant(_ context.Context, userID types.ID) error {
	kept := t.store.parts[:0]
	for _, p := range t.store.parts {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	t.store.parts = kept
	return nil
}
func (t *stubRideTx) DeleteAllParticipants(_ context.Context) error {
	t.store.parts = nil
	return nil
}
func (t *stubRideTx) UpdateRide(_ context.Context, r *ride.Ride) error {
	cp := *r
	t.store.ride = &cp
	return nil
}
func (t *stubRideTx) DeleteRide(_ context.Context) error {
	t.store.ride = nil
	return nil
}
func (t *stubRideTx) AppendEvent(_ context.Context, _ *ride.Event) error { return nil }

type matchStoreFunc func(ctx context.Context, q match.Query) ([]*ride.Ride, error)

func (f matchStoreFunc) ListOpenRides(ctx context.Context, q match.Query) ([]*ride.Ride, error) {
	return f(ctx, q)
}

func buildTestRouter(store ride.Store, verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rideSvc := ride.NewService(store, logger, 6)
	matchSvc := match.NewService(
		matchStoreFunc(func(context.Context, match.Query) ([]*ride.Ride, error) { return nil, nil }),
		destgroup.Default(), logger, 5)
	h := handlers.NewRideHandler(rideSvc, matchSvc)

	r := gin.New()
	api := r.Group("/api", httpmiddleware.Auth(verifier))
	api.POST("/rides", h.Create)
	api.GET("/rides/:id", h.Get)
	api.POST("/rides/:id/join", h.Join)
	api.POST("/rides/:id/complete", h.Complete)
	api.POST("/rides/match", h.Match)
	return r
}

func makeVerifier(uid string) *stubTokenVerifier {
	return &stubTokenVerifier{token: &infra.AuthToken{UID: uid, Role: "user"}}
}

func doRequest(r *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRide_Unauthenticated(t *testing.T) {
	r := buildTestRouter(&stubRideStore{}, &stubTokenVerifier{err: errors.New("no token")})
	w := doRequest(r, http.MethodPost, "/api/rides", map[string]any{
		"destination":  "Railway Station",
		"date":         "2025-01-10",
		"window_start": "09:00",
		"window_end":   "10:00",
	}, "Bearer badtoken")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCreateRide_InvalidWindow(t *testing.T) {
	r := buildTestRouter(&stubRideStore{}, makeVerifier("alice"))
	cases := []map[string]any{
		{"destination": "Railway Station", "date": "2025-01-10", "window_start": "10:00", "window_end": "09:00"},
		{"destination": "Railway Station", "date": "2025-01-10", "window_start": "morning", "window_end": "10:00"},
		{"destination": "Railway Station", "date": "10 Jan", "window_start": "09:00", "window_end": "10:00"},
		{"destination": "", "date": "2025-01-10", "window_start": "09:00", "window_end": "10:00"},
	}
	for i, body := range cases {
		w := doRequest(r, http.MethodPost, "/api/rides", body, "Bearer ok")
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d (%s)", i, w.Code, w.Body.String())
		}
	}
}

func TestCreateRide_Success(t *testing.T) {
	store := &stubRideStore{}
	r := buildTestRouter(store, makeVerifier("alice"))
	w := doRequest(r, http.MethodPost, "/api/rides", map[string]any{
		"destination":  "Railway Station",
		"date":         "2025-01-10",
		"window_start": "09:00",
		"window_end":   "10:00",
	}, "Bearer ok")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if store.created == nil || store.created.CreatorID != "alice" {
		t.Fatalf("expected ride created for alice, got %+v", store.created)
	}
	var resp struct {
		Status      string `json:"status"`
		WindowStart string `json:"window_start"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "waiting" || resp.WindowStart != "09:00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestJoinRide_FullRideMapsToConflict(t *testing.T) {
	store := &stubRideStore{ride: &ride.Ride{
		ID: "r1", CreatorID: "alice", Destination: "Railway Station",
		Date:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Status: ride.StatusFull, MaxSeats: 6, SeatCount: 6,
	}}
	r := buildTestRouter(store, makeVerifier("bob"))
	w := doRequest(r, http.MethodPost, "/api/rides/r1/join", nil, "Bearer ok")
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for full ride, got %d", w.Code)
	}
}

func TestJoinRide_MissingRideMapsToNotFound(t *testing.T) {
	r := buildTestRouter(&stubRideStore{}, makeVerifier("bob"))
	w := doRequest(r, http.MethodPost, "/api/rides/missing/join", nil, "Bearer ok")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCompleteRide_OutsiderMapsToForbidden(t *testing.T) {
	store := &stubRideStore{
		ride: &ride.Ride{
			ID: "r1", CreatorID: "alice", Destination: "Railway Station",
			Date:   time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			Status: ride.StatusActive, MaxSeats: 6, SeatCount: 2,
		},
		parts: []ride.Participant{{RideID: "r1", UserID: "alice"}, {RideID: "r1", UserID: "bob"}},
	}
	r := buildTestRouter(store, makeVerifier("mallory"))
	w := doRequest(r, http.MethodPost, "/api/rides/r1/complete", nil, "Bearer ok")
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestMatch_InvalidWindowRejected(t *testing.T) {
	r := buildTestRouter(&stubRideStore{}, makeVerifier("dave"))
	w := doRequest(r, http.MethodPost, "/api/rides/match", map[string]any{
		"destination":  "Railway Station",
		"date":         "2025-01-10",
		"window_start": "10:00",
		"window_end":   "09:00",
	}, "Bearer ok")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMatch_EmptyResultIsOK(t *testing.T) {
	r := buildTestRouter(&stubRideStore{}, makeVerifier("dave"))
	w := doRequest(r, http.MethodPost, "/api/rides/match", map[string]any{
		"destination":  "Railway Station",
		"date":         "2025-01-10",
		"window_start": "09:00",
		"window_end":   "10:00",
	}, "Bearer ok")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Matches []any `json:"matches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Fatalf("expected no matches, got %v", resp.Matches)
	}
}

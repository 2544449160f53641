// README: User registration tests.
package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"campool/internal/types"
)

type memUserStore struct {
	byEmail map[string]*User
	byID    map[types.ID]*User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]*User{}, byID: map[types.ID]*User{}}
}

func (s *memUserStore) CreateUser(_ context.Context, u *User) error {
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
	return nil
}

func (s *memUserStore) GetUser(_ context.Context, id types.ID) (*User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func newTestUserService() *Service {
	return NewService(newMemUserStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister_NormalizesAndDefaults(t *testing.T) {
	svc := newTestUserService()
	u, err := svc.Register(context.Background(), RegisterCommand{
		Name:  "  Alice  ",
		Email: " Alice@Campus.EDU ",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Name != "Alice" || u.Email != "alice@campus.edu" {
		t.Errorf("expected trimmed/lowered fields, got %q %q", u.Name, u.Email)
	}
	if u.Role != RoleUser || u.ID == "" {
		t.Errorf("unexpected defaults: %+v", u)
	}
	if u.CreatedAt.After(time.Now().UTC()) {
		t.Error("created_at in the future")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestUserService()
	if _, err := svc.Register(context.Background(), RegisterCommand{Name: "", Email: "a@b.c"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterCommand{Name: "Alice", Email: "not-an-email"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error for bad email, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestUserService()
	if _, err := svc.Register(context.Background(), RegisterCommand{Name: "Alice", Email: "a@campus.edu"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), RegisterCommand{Name: "Alana", Email: "A@Campus.edu"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected duplicate-email rejection, got %v", err)
	}
}

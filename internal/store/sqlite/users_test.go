package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/store"
)

func TestCreateGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "u1", "Ada@Example.com")

	got, err := s.GetUser(ctx, "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != u.Email || got.DisplayName != u.DisplayName || got.PasswordHash != "hash" {
		t.Errorf("unexpected user: %+v", got)
	}

	byEmail, err := s.GetUserByEmail(ctx, "  ada@EXAMPLE.com ")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("expected u1, got %s", byEmail.ID)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createUser(t, s, "u1", "ada@example.com")

	now := time.Now()
	err := s.CreateUser(context.Background(), &domain.User{
		ID: "u2", Email: "ADA@example.com", DisplayName: "Other", PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
	})
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUser(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

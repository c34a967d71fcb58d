package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s *Store, id, email string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:           id,
		Email:        email,
		DisplayName:  "User " + id,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return u
}

func createList(t *testing.T, s *Store, id, ownerID string, v domain.Visibility, tags ...string) *domain.SharedList {
	t.Helper()
	now := time.Now()
	l := &domain.SharedList{
		ID:             id,
		ShareToken:     "tok-" + id,
		OwnerID:        ownerID,
		Title:          "List " + id,
		TagFilter:      tags,
		Visibility:     v,
		EditPermission: domain.EditOwnerOnly,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateSharedList(context.Background(), l); err != nil {
		t.Fatalf("create list %s: %v", id, err)
	}
	return l
}

func orgContent(name string, tags ...string) domain.ItemContent {
	return domain.ItemContent{
		ItemType: domain.ItemTypeOrganization,
		Data:     &domain.OrganizationData{ItemCommon: domain.ItemCommon{Name: name}, Founded: "2010"},
		Tags:     tags,
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	for _, table := range []string{
		"users", "saved_items", "shared_lists", "shared_list_roster", "shared_list_items", "edit_history",
	} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	createUser(t, s, "u1", "a@example.com")
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent) and keep data.
	s2, err := Open(dbPath, nil)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetUser(context.Background(), "u1"); err != nil {
		t.Fatalf("get user after reopen: %v", err)
	}
}

func TestFormatTimeSortsLexically(t *testing.T) {
	base := time.Date(2026, 10, 17, 9, 0, 5, 0, time.UTC)
	a := formatTime(base)
	b := formatTime(base.Add(500 * time.Millisecond))
	if !(a < b) {
		t.Errorf("expected %q < %q", a, b)
	}

	parsed, err := parseTime(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(base.Add(500 * time.Millisecond)) {
		t.Errorf("round trip mismatch: %v", parsed)
	}
}

func TestMapErrKeepsDriverCause(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "u1", "a@example.com")

	err := s.CreateUser(ctx, u)
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	var serr *store.Error
	if !errors.As(err, &serr) || serr.Unwrap() == nil {
		t.Fatalf("expected driver cause on %v", err)
	}
	if serr == store.ErrAlreadyExists {
		t.Fatal("sentinel must not be mutated")
	}

	err = mapErr(sql.ErrNoRows)
	if !errors.Is(err, store.ErrNotFound) || !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNotFound wrapping sql.ErrNoRows, got %v", err)
	}
	if store.ErrNotFound.Unwrap() != nil {
		t.Fatal("sentinel must not carry a cause")
	}
}

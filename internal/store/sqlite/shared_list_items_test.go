package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/store"
)

func createItem(t *testing.T, s *Store, id, listID, addedBy, name string) *domain.SharedListItem {
	t.Helper()
	now := time.Now()
	item := &domain.SharedListItem{
		ID:           id,
		SharedListID: listID,
		ItemContent:  orgContent(name, "fintech"),
		AddedBy:      domain.IdentityRef{ID: addedBy},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateSharedListItem(context.Background(), item); err != nil {
		t.Fatalf("create item %s: %v", id, err)
	}
	return item
}

func TestSharedListItem_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createUser(t, s, "owner", "owner@example.com")
	createUser(t, s, "editor", "editor@example.com")
	createList(t, s, "l1", "owner", domain.VisibilityPublic, "fintech")
	createList(t, s, "l2", "owner", domain.VisibilityPublic, "fintech")

	createItem(t, s, "i1", "l1", "editor", "Plaid")
	createItem(t, s, "i2", "l1", "owner", "Brex")

	got, err := s.GetSharedListItem(ctx, "l1", "i1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AddedBy.ID != "editor" || got.AddedBy.DisplayName != "User editor" {
		t.Errorf("unexpected added_by: %+v", got.AddedBy)
	}

	if _, err := s.GetSharedListItem(ctx, "l2", "i1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("items are scoped to their list, got %v", err)
	}

	items, err := s.ListSharedListItems(ctx, "l1")
	if err != nil || len(items) != 2 || items[0].ID != "i1" {
		t.Fatalf("list: %v %v", items, err)
	}

	updated, err := s.UpdateSharedListItem(ctx, "l1", "i1", func(it *domain.SharedListItem) error {
		it.Notes = "warm intro via Sam"
		return nil
	})
	if err != nil || updated.Notes != "warm intro via Sam" {
		t.Fatalf("update: %+v %v", updated, err)
	}

	if err := s.DeleteSharedListItem(ctx, "l1", "i1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteSharedListItem(ctx, "l1", "i1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

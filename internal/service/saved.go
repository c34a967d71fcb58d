package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/id"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/util"
	"github.com/listkeep/listkeep-server/internal/validation"
)

// SavedService manages a user's personal collection. Other identities only
// ever reach these items through a shared list.
type SavedService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSavedService creates a new personal collection service.
func NewSavedService(store store.Store, logger *slog.Logger) *SavedService {
	return &SavedService{store: store, validator: validation.New(), logger: logger}
}

// Create bookmarks a new item for ownerID.
func (s *SavedService) Create(ctx context.Context, ownerID string, in ItemInput) (*domain.SavedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	content, err := in.Content()
	if err != nil {
		return nil, err
	}

	itemID, err := id.Generate("saved")
	if err != nil {
		return nil, fmt.Errorf("generate saved item ID: %w", err)
	}

	now := time.Now().UTC()
	item := &domain.SavedItem{
		ItemContent: content,
		ID:          itemID,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSavedItem(ctx, item); err != nil {
		return nil, storeErr(err, "saved item")
	}

	s.logger.Info("item saved", "item_id", item.ID, "owner_id", ownerID, "item_type", item.ItemType)
	return item, nil
}

// List returns ownerID's collection, optionally narrowed to one tag.
func (s *SavedService) List(ctx context.Context, ownerID, tag string) ([]*domain.SavedItem, error) {
	var (
		items []*domain.SavedItem
		err   error
	)
	if tag == "" {
		items, err = s.store.ListSavedItems(ctx, ownerID)
	} else {
		slug := util.NormalizeTagSlug(tag)
		if slug == "" {
			return []*domain.SavedItem{}, nil
		}
		items, err = s.store.ListSavedItemsByTags(ctx, ownerID, []string{slug})
	}
	if err != nil {
		return nil, storeErr(err, "saved items")
	}
	return items, nil
}

// Update changes one item-level field. Items owned by someone else look
// missing rather than forbidden.
func (s *SavedService) Update(ctx context.Context, ownerID, itemID, field, value string) (*domain.SavedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, err := s.store.UpdateSavedItem(ctx, itemID, func(item *domain.SavedItem) error {
		if item.OwnerID != ownerID {
			return domainerrors.NotFound("saved item not found")
		}
		if _, err := item.SetField(domain.ItemField(field), value); err != nil {
			return err
		}
		item.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "saved item")
	}

	s.logger.Info("saved item updated", "item_id", itemID, "field", field)
	return item, nil
}

// Delete removes an item from ownerID's collection.
func (s *SavedService) Delete(ctx context.Context, ownerID, itemID string) error {
	item, err := s.store.GetSavedItem(ctx, itemID)
	if err != nil {
		return storeErr(err, "saved item")
	}
	if item.OwnerID != ownerID {
		return domainerrors.NotFound("saved item not found")
	}
	if err := s.store.DeleteSavedItem(ctx, itemID); err != nil {
		return storeErr(err, "saved item")
	}

	s.logger.Info("saved item deleted", "item_id", itemID)
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listkeep/listkeep-server/internal/access"
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/id"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/validation"
)

// EntityLookup resolves catalog entities for the search-to-attach flow.
type EntityLookup interface {
	Lookup(ctx context.Context, t domain.ItemType, slugOrName string) (*domain.CatalogEntity, error)
}

// MutationService applies collaborative edits to a shared list and records
// exactly one history entry for every accepted mutation.
//
// Concurrent edits to the same field are last-write-wins: each edit reads
// and writes its field inside one store transaction, and both writers
// succeed. The audit trail is the only record that a collision happened.
type MutationService struct {
	store     store.Store
	catalog   EntityLookup
	invites   *InvitationService
	audit     *auditor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewMutationService creates a new mutation service.
func NewMutationService(
	store store.Store,
	catalog EntityLookup,
	invites *InvitationService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MutationService {
	return &MutationService{
		store:     store,
		catalog:   catalog,
		invites:   invites,
		audit:     newAuditor(store, m, logger),
		validator: validation.New(),
		logger:    logger,
	}
}

// EditItemRequest changes one item-level field of a displayed item.
// Provenance selects the store the edit lands in.
type EditItemRequest struct {
	Provenance string `json:"provenance" validate:"required,oneof=saved shared"`
	Field      string `json:"field" validate:"required"`
	Value      string `json:"value"`
}

// editable reads list by token and requires EDIT for actor.
func (s *MutationService) editable(ctx context.Context, actor *domain.IdentityRef, token string) (*domain.SharedList, error) {
	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return nil, err
	}
	if decision, err := access.RequireEdit(actor, list); err != nil {
		return nil, s.audit.denied(decision, err)
	}
	return list, nil
}

// ApplyEdit writes one item-level field and appends the matching history
// record carrying the field's value before and after the write.
func (s *MutationService) ApplyEdit(ctx context.Context, actor *domain.IdentityRef, token, itemID string, req EditItemRequest) (*domain.DisplayItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := s.editable(ctx, actor, token)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	provenance, _ := domain.ParseProvenance(req.Provenance)
	field := domain.ItemField(req.Field)

	var (
		oldValue, newValue string
		display            domain.DisplayItem
	)
	apply := func(c *domain.ItemContent) error {
		before, err := c.Field(field)
		if err != nil {
			return err
		}
		after, err := c.SetField(field, req.Value)
		if err != nil {
			return err
		}
		oldValue, newValue = before, after
		return nil
	}

	switch provenance {
	case domain.ProvenanceShared:
		item, err := s.store.UpdateSharedListItem(ctx, list.ID, itemID, func(item *domain.SharedListItem) error {
			if err := apply(&item.ItemContent); err != nil {
				return err
			}
			item.UpdatedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			return nil, storeErr(err, "item")
		}
		addedBy := item.AddedBy
		display = domain.DisplayItem{
			ItemContent: item.ItemContent,
			Provenance:  domain.ProvenanceShared,
			ID:          item.ID,
			AddedBy:     &addedBy,
			CreatedAt:   item.CreatedAt,
		}

	case domain.ProvenanceSaved:
		// Only items the list currently exposes are reachable through it.
		item, err := s.store.UpdateSavedItem(ctx, itemID, func(item *domain.SavedItem) error {
			if item.OwnerID != list.OwnerID || !list.MatchesTags(item.Tags) {
				return domainerrors.NotFound("item not found")
			}
			if err := apply(&item.ItemContent); err != nil {
				return err
			}
			item.UpdatedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			return nil, storeErr(err, "item")
		}
		display = domain.DisplayItem{
			ItemContent: item.ItemContent,
			Provenance:  domain.ProvenanceSaved,
			ID:          item.ID,
			CreatedAt:   item.CreatedAt,
		}
	}

	action := domain.ActionForItemField(field)
	s.audit.record(ctx, &domain.EditHistoryRecord{
		SharedListID: list.ID,
		ActorID:      actor.ID,
		Action:       action,
		ItemID:       display.ID,
		ItemName:     display.Name(),
		Field:        string(field),
		OldValue:     oldValue,
		NewValue:     newValue,
	})

	s.logger.Info("item edited",
		"list_id", list.ID,
		"actor_id", actor.ID,
		"item_id", display.ID,
		"provenance", provenance,
		"field", field,
	)
	return &display, nil
}

// EntityRef selects a catalog entity to attach.
type EntityRef struct {
	Type string `json:"type" validate:"required,oneof=organization person offering"`
	Slug string `json:"slug" validate:"required"`
}

// AddItemRequest attaches an item to a list, either typed in by hand or
// picked from the catalog.
type AddItemRequest struct {
	ItemType string          `json:"item_type,omitempty" validate:"omitempty,oneof=organization person offering search_result"`
	ItemData json.RawMessage `json:"item_data,omitempty"`
	Entity   *EntityRef      `json:"entity,omitempty"`
	Tags     []string        `json:"tags,omitempty" validate:"omitempty,max=50,tags"`
	Notes    string          `json:"notes,omitempty" validate:"max=5000"`
}

// AddItem attaches a new shared item attributed to actor.
func (s *MutationService) AddItem(ctx context.Context, actor *domain.IdentityRef, token string, req AddItemRequest) (*domain.SharedListItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := s.editable(ctx, actor, token)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	content, err := s.itemContent(ctx, req)
	if err != nil {
		return nil, err
	}

	itemID, err := id.Generate("item")
	if err != nil {
		return nil, fmt.Errorf("generate item ID: %w", err)
	}
	now := time.Now().UTC()
	item := &domain.SharedListItem{
		ItemContent:  content,
		ID:           itemID,
		SharedListID: list.ID,
		AddedBy:      *actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSharedListItem(ctx, item); err != nil {
		return nil, storeErr(err, "item")
	}

	s.audit.record(ctx, &domain.EditHistoryRecord{
		SharedListID: list.ID,
		ActorID:      actor.ID,
		Action:       domain.ActionAddItem,
		ItemID:       item.ID,
		ItemName:     item.Name(),
		NewValue:     item.Name(),
	})

	s.logger.Info("item added", "list_id", list.ID, "actor_id", actor.ID, "item_id", item.ID, "item_type", item.ItemType)
	return item, nil
}

func (s *MutationService) itemContent(ctx context.Context, req AddItemRequest) (domain.ItemContent, error) {
	if req.Entity == nil {
		if req.ItemType == "" || len(req.ItemData) == 0 {
			return domain.ItemContent{}, domainerrors.ValidationWithDetails("item data or a catalog entity is required",
				map[string]string{"item_data": "is required when no entity is given"})
		}
		return ItemInput{ItemType: req.ItemType, ItemData: req.ItemData, Tags: req.Tags, Notes: req.Notes}.Content()
	}

	if s.catalog == nil {
		return domain.ItemContent{}, domainerrors.NotFound("catalog is not available")
	}
	t, _ := domain.ParseItemType(req.Entity.Type)
	entity, err := s.catalog.Lookup(ctx, t, req.Entity.Slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ItemContent{}, domainerrors.NotFoundf("no %s matches %q", t, req.Entity.Slug)
		}
		return domain.ItemContent{}, storeErr(err, "entity")
	}

	content := domain.ItemContent{ItemType: entity.Type, Data: entity.ItemData(), Tags: req.Tags, Notes: req.Notes}
	if err := normalizeContent(&content); err != nil {
		return domain.ItemContent{}, err
	}
	return content, nil
}

// RemoveItem deletes a shared item. Items contributed from the owner's
// personal collection can never be removed through the list.
func (s *MutationService) RemoveItem(ctx context.Context, actor *domain.IdentityRef, token, itemID, provenance string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list, err := s.editable(ctx, actor, token)
	if err != nil {
		return err
	}
	if provenance == string(domain.ProvenanceSaved) {
		return domainerrors.Forbidden("items from the owner's collection cannot be removed from a list")
	}

	item, err := s.store.GetSharedListItem(ctx, list.ID, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) && s.isExposedSavedItem(ctx, list, itemID) {
			return domainerrors.Forbidden("items from the owner's collection cannot be removed from a list")
		}
		return storeErr(err, "item")
	}
	if err := s.store.DeleteSharedListItem(ctx, list.ID, itemID); err != nil {
		return storeErr(err, "item")
	}

	s.audit.record(ctx, &domain.EditHistoryRecord{
		SharedListID: list.ID,
		ActorID:      actor.ID,
		Action:       domain.ActionRemoveItem,
		ItemID:       item.ID,
		ItemName:     item.Name(),
		OldValue:     item.Name(),
	})

	s.logger.Info("item removed", "list_id", list.ID, "actor_id", actor.ID, "item_id", item.ID)
	return nil
}

func (s *MutationService) isExposedSavedItem(ctx context.Context, list *domain.SharedList, itemID string) bool {
	saved, err := s.store.GetSavedItem(ctx, itemID)
	return err == nil && saved.OwnerID == list.OwnerID && list.MatchesTags(saved.Tags)
}

// SettingsRequest is a partial update of list governance fields. Nil
// fields are left unchanged.
type SettingsRequest struct {
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	TagFilter      []string `json:"tag_filter,omitempty" validate:"omitempty,min=1,max=50,tags"`
	Visibility     *string  `json:"visibility,omitempty"`
	EditPermission *string  `json:"edit_permission,omitempty"`
	AddUserID      *string  `json:"add_user_id,omitempty"`
	RemoveUserID   *string  `json:"remove_user_id,omitempty"`
}

type settingChange struct {
	field domain.ListField
	value string
}

func (r SettingsRequest) changes() []settingChange {
	var out []settingChange
	if r.Title != nil {
		out = append(out, settingChange{domain.ListFieldTitle, *r.Title})
	}
	if r.Description != nil {
		out = append(out, settingChange{domain.ListFieldDescription, *r.Description})
	}
	if r.TagFilter != nil {
		out = append(out, settingChange{domain.ListFieldTags, strings.Join(r.TagFilter, ",")})
	}
	if r.Visibility != nil {
		out = append(out, settingChange{domain.ListFieldVisibility, *r.Visibility})
	}
	if r.EditPermission != nil {
		out = append(out, settingChange{domain.ListFieldEditPermission, *r.EditPermission})
	}
	return out
}

// UpdateSettings changes governance fields. Only the owner may do this,
// whatever the list's edit permission. Each supplied field produces one
// update_settings record; roster changes are recorded when they change
// membership.
func (s *MutationService) UpdateSettings(ctx context.Context, actor *domain.IdentityRef, token string, req SettingsRequest) (*domain.SharedList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(actor, list); err != nil {
		return nil, s.audit.denied(access.Decide(actor, list), err)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	changes := req.changes()
	if len(changes) == 0 && req.AddUserID == nil && req.RemoveUserID == nil {
		return nil, domainerrors.Validation("no settings supplied")
	}

	// Roster targets are resolved before anything is written so a bad
	// invitee leaves the list untouched.
	var invitee *domain.User
	if req.AddUserID != nil {
		if invitee, err = s.invites.resolve(ctx, InviteTarget{UserID: *req.AddUserID}); err != nil {
			return nil, err
		}
	}
	if req.RemoveUserID != nil && strings.TrimSpace(*req.RemoveUserID) == "" {
		return nil, domainerrors.ValidationWithDetails("user id is required", map[string]string{"remove_user_id": "is required"})
	}

	if len(changes) > 0 {
		records := make([]*domain.EditHistoryRecord, 0, len(changes))
		updated, err := s.store.UpdateSharedList(ctx, list.ID, func(l *domain.SharedList) error {
			records = records[:0]
			for _, c := range changes {
				before, err := l.Field(c.field)
				if err != nil {
					return err
				}
				after, err := l.SetField(c.field, c.value)
				if err != nil {
					return err
				}
				records = append(records, &domain.EditHistoryRecord{
					SharedListID: l.ID,
					ActorID:      actor.ID,
					Action:       domain.ActionUpdateSettings,
					Field:        string(c.field),
					OldValue:     before,
					NewValue:     after,
				})
			}
			l.UpdatedAt = time.Now().UTC()
			return nil
		})
		if err != nil {
			return nil, storeErr(err, "list")
		}
		for _, rec := range records {
			s.audit.record(ctx, rec)
		}
		list = updated

		s.logger.Info("list settings updated", "list_id", list.ID, "actor_id", actor.ID, "fields", len(records))
	}

	if invitee != nil {
		if _, err := s.invites.addMember(ctx, actor, list, invitee); err != nil {
			return nil, err
		}
	}
	if req.RemoveUserID != nil {
		if err := s.invites.revoke(ctx, actor, list, *req.RemoveUserID); err != nil {
			return nil, err
		}
	}
	if req.AddUserID != nil || req.RemoveUserID != nil {
		if list, err = s.store.GetSharedList(ctx, list.ID); err != nil {
			return nil, storeErr(err, "list")
		}
	}
	return list, nil
}

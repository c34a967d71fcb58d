package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addListItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists/{token}/items",
		Summary:       "Add list item",
		Description:   "Attaches an item typed in by hand or picked from the catalog (edit access)",
		Tags:          []string{"List items"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleAddListItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "editListItem",
		Method:      http.MethodPut,
		Path:        "/api/v1/lists/{token}/items/{itemId}",
		Summary:     "Edit list item",
		Description: "Writes one field of a displayed item to the store it came from (edit access)",
		Tags:        []string{"List items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleEditListItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeListItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{token}/items/{itemId}",
		Summary:     "Remove list item",
		Description: "Removes an item attached to the list; bookmarks cannot be removed this way (edit access)",
		Tags:        []string{"List items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveListItem)
}

// === DTOs ===

// EntityRefBody picks a catalog entity.
type EntityRefBody struct {
	Type string `json:"type" enum:"organization,person,offering" doc:"Entity type"`
	Slug string `json:"slug" minLength:"1" doc:"Entity slug or exact name"`
}

// AddListItemRequest attaches an item. Supply either item_type with
// item_data, or entity.
type AddListItemRequest struct {
	ItemType string         `json:"item_type,omitempty" enum:"organization,person,offering,search_result" doc:"Item variant for manual entry"`
	ItemData map[string]any `json:"item_data,omitempty" doc:"Variant payload for manual entry"`
	Entity   *EntityRefBody `json:"entity,omitempty" doc:"Catalog entity to copy"`
	Tags     []string       `json:"tags,omitempty" maxItems:"50" doc:"Tags"`
	Notes    string         `json:"notes,omitempty" maxLength:"5000" doc:"Free-form notes"`
}

// AddListItemInput wraps the add request for Huma.
type AddListItemInput struct {
	Token string `path:"token" doc:"Share token"`
	Body  AddListItemRequest
}

// EditListItemRequest is a single-field edit of a displayed item.
type EditListItemRequest struct {
	Provenance string `json:"provenance" enum:"saved,shared" doc:"Provenance reported by the list view"`
	Field      string `json:"field" doc:"Field to edit (description, logo, notes, tags, ...)"`
	Value      string `json:"value" doc:"New value; tags are comma-separated"`
}

// EditListItemInput wraps the edit request for Huma.
type EditListItemInput struct {
	Token  string `path:"token" doc:"Share token"`
	ItemID string `path:"itemId" doc:"Item ID from the list view"`
	Body   EditListItemRequest
}

// DisplayItemOutput wraps an edited item for Huma.
type DisplayItemOutput struct {
	Body *domain.DisplayItem
}

// RemoveListItemInput identifies an item to remove.
type RemoveListItemInput struct {
	Token      string `path:"token" doc:"Share token"`
	ItemID     string `path:"itemId" doc:"Item ID from the list view"`
	Provenance string `query:"provenance" enum:"saved,shared" doc:"Provenance reported by the list view"`
}

// === Handlers ===

func (s *Server) handleAddListItem(ctx context.Context, input *AddListItemInput) (*DisplayItemOutput, error) {
	raw, err := encodeItemData(input.Body.ItemData)
	if err != nil {
		return nil, err
	}
	req := service.AddItemRequest{
		ItemType: input.Body.ItemType,
		ItemData: raw,
		Tags:     input.Body.Tags,
		Notes:    input.Body.Notes,
	}
	if e := input.Body.Entity; e != nil {
		req.Entity = &service.EntityRef{Type: e.Type, Slug: e.Slug}
	}

	item, err := s.services.Mutations.AddItem(ctx, Identity(ctx), input.Token, req)
	if err != nil {
		return nil, err
	}
	return &DisplayItemOutput{Body: &domain.DisplayItem{
		ItemContent: item.ItemContent,
		Provenance:  domain.ProvenanceShared,
		ID:          item.ID,
		AddedBy:     &item.AddedBy,
		CreatedAt:   item.CreatedAt,
	}}, nil
}

func (s *Server) handleEditListItem(ctx context.Context, input *EditListItemInput) (*DisplayItemOutput, error) {
	item, err := s.services.Mutations.ApplyEdit(ctx, Identity(ctx), input.Token, input.ItemID, service.EditItemRequest{
		Provenance: input.Body.Provenance,
		Field:      input.Body.Field,
		Value:      input.Body.Value,
	})
	if err != nil {
		return nil, err
	}
	return &DisplayItemOutput{Body: item}, nil
}

func (s *Server) handleRemoveListItem(ctx context.Context, input *RemoveListItemInput) (*struct{}, error) {
	if err := s.services.Mutations.RemoveItem(ctx, Identity(ctx), input.Token, input.ItemID, input.Provenance); err != nil {
		return nil, err
	}
	return nil, nil
}

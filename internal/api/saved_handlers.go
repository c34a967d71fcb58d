package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/service"
)

func (s *Server) registerSavedRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSavedItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/saved",
		Summary:       "Save item",
		Description:   "Adds a bookmark to the caller's personal collection",
		Tags:          []string{"Saved"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateSavedItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSavedItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/saved",
		Summary:     "List saved items",
		Description: "Returns the caller's bookmarks, optionally filtered by tag",
		Tags:        []string{"Saved"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSavedItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSavedItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/saved/{id}",
		Summary:     "Update saved item",
		Description: "Edits one field of a bookmark",
		Tags:        []string{"Saved"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSavedItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSavedItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/saved/{id}",
		Summary:     "Delete saved item",
		Description: "Removes a bookmark from the personal collection",
		Tags:        []string{"Saved"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSavedItem)
}

// === DTOs ===

// ItemBody is the client-supplied content of a new item.
type ItemBody struct {
	ItemType string         `json:"item_type" enum:"organization,person,offering,search_result" doc:"Item variant"`
	ItemData map[string]any `json:"item_data" doc:"Variant payload; name is required"`
	Tags     []string       `json:"tags,omitempty" maxItems:"50" doc:"Tags"`
	Notes    string         `json:"notes,omitempty" maxLength:"5000" doc:"Free-form notes"`
}

func (b ItemBody) input() (service.ItemInput, error) {
	raw, err := encodeItemData(b.ItemData)
	if err != nil {
		return service.ItemInput{}, err
	}
	return service.ItemInput{ItemType: b.ItemType, ItemData: raw, Tags: b.Tags, Notes: b.Notes}, nil
}

func encodeItemData(data map[string]any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, domainerrors.Validation("item_data is not valid JSON")
	}
	return raw, nil
}

// CreateSavedItemInput wraps the create request for Huma.
type CreateSavedItemInput struct {
	Body ItemBody
}

// ListSavedItemsInput contains the saved item filter.
type ListSavedItemsInput struct {
	Tag string `query:"tag" doc:"Only items carrying this tag"`
}

// FieldEdit sets one field to a new value.
type FieldEdit struct {
	Field string `json:"field" doc:"Field to edit (description, logo, notes, tags, ...)"`
	Value string `json:"value" doc:"New value; tags are comma-separated"`
}

// UpdateSavedItemInput wraps the update request for Huma.
type UpdateSavedItemInput struct {
	ID   string `path:"id" doc:"Saved item ID"`
	Body FieldEdit
}

// SavedItemPath identifies a saved item.
type SavedItemPath struct {
	ID string `path:"id" doc:"Saved item ID"`
}

// SavedItemOutput wraps a saved item for Huma.
type SavedItemOutput struct {
	Body *domain.SavedItem
}

// SavedItemsResponse lists saved items.
type SavedItemsResponse struct {
	Items []*domain.SavedItem `json:"items" doc:"Saved items"`
}

// SavedItemsOutput wraps the saved items list for Huma.
type SavedItemsOutput struct {
	Body SavedItemsResponse
}

// === Handlers ===

func (s *Server) handleCreateSavedItem(ctx context.Context, input *CreateSavedItemInput) (*SavedItemOutput, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	in, err := input.Body.input()
	if err != nil {
		return nil, err
	}
	item, err := s.services.Saved.Create(ctx, ref.ID, in)
	if err != nil {
		return nil, err
	}
	return &SavedItemOutput{Body: item}, nil
}

func (s *Server) handleListSavedItems(ctx context.Context, input *ListSavedItemsInput) (*SavedItemsOutput, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.services.Saved.List(ctx, ref.ID, input.Tag)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.SavedItem{}
	}
	return &SavedItemsOutput{Body: SavedItemsResponse{Items: items}}, nil
}

func (s *Server) handleUpdateSavedItem(ctx context.Context, input *UpdateSavedItemInput) (*SavedItemOutput, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.services.Saved.Update(ctx, ref.ID, input.ID, input.Body.Field, input.Body.Value)
	if err != nil {
		return nil, err
	}
	return &SavedItemOutput{Body: item}, nil
}

func (s *Server) handleDeleteSavedItem(ctx context.Context, input *SavedItemPath) (*struct{}, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Saved.Delete(ctx, ref.ID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/service"
	"github.com/listkeep/listkeep-server/internal/store"
)

func (s *Server) registerListRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createList",
		Method:        http.MethodPost,
		Path:          "/api/v1/lists",
		Summary:       "Create list",
		Description:   "Publishes a shared list over the caller's bookmarks matching a tag filter",
		Tags:          []string{"Lists"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateList)

	huma.Register(s.api, huma.Operation{
		OperationID: "listMyLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists",
		Summary:     "List my lists",
		Description: "Returns lists the caller owns followed by lists they were invited to",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "listPublicLists",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/public",
		Summary:     "Discover public lists",
		Description: "Pages through lists with public visibility",
		Tags:        []string{"Lists"},
	}, s.handleListPublicLists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getList",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{token}",
		Summary:     "Get list",
		Description: "Returns the merged view of a list as the caller may see it",
		Tags:        []string{"Lists"},
		Middlewares: huma.Middlewares{s.limitAnonymousViews, s.withViewerKey},
	}, s.handleGetList)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateListSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/lists/{token}",
		Summary:     "Update list settings",
		Description: "Changes governance fields and the invite roster (owner only)",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateListSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteList",
		Method:      http.MethodDelete,
		Path:        "/api/v1/lists/{token}",
		Summary:     "Delete list",
		Description: "Deletes a list with its items and history (owner only)",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getListHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/lists/{token}/history",
		Summary:     "Get list history",
		Description: "Pages through the list's edit history, newest first",
		Tags:        []string{"Lists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetListHistory)
}

// === DTOs ===

// ListResponse is a shared list as a caller may see it. The internal id is
// only returned to the owner.
type ListResponse struct {
	ID             string               `json:"id,omitempty" doc:"Internal list ID (owner only)"`
	ShareToken     string               `json:"share_token" doc:"Token used in share links"`
	Owner          domain.IdentityRef   `json:"owner" doc:"List owner"`
	Title          string               `json:"title" doc:"List title"`
	Description    string               `json:"description,omitempty" doc:"List description"`
	TagFilter      []string             `json:"tag_filter" doc:"Tags selecting the owner's bookmarks"`
	Visibility     domain.Visibility    `json:"visibility" doc:"public, link_only or invited_only"`
	EditPermission domain.EditPermission `json:"edit_permission" doc:"owner_only or anyone"`
	InviteRoster   []domain.IdentityRef `json:"invite_roster,omitempty" doc:"Invited identities (owner and members only)"`
	ViewCount      int64                `json:"view_count" doc:"Number of counted views"`
	CreatedAt      time.Time            `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time            `json:"updated_at" doc:"Last settings change"`
}

// listResponse shapes list for viewer. The roster is included only for the
// owner and members.
func listResponse(list *domain.SharedList, viewer *domain.IdentityRef) ListResponse {
	resp := ListResponse{
		ShareToken:     list.ShareToken,
		Owner:          list.Owner,
		Title:          list.Title,
		Description:    list.Description,
		TagFilter:      list.TagFilter,
		Visibility:     list.Visibility,
		EditPermission: list.EditPermission,
		ViewCount:      list.ViewCount,
		CreatedAt:      list.CreatedAt,
		UpdatedAt:      list.UpdatedAt,
	}
	if viewer == nil {
		return resp
	}
	if list.IsOwner(viewer.ID) {
		resp.ID = list.ID
	}
	if list.IsOwner(viewer.ID) || list.HasMember(viewer.ID) {
		resp.InviteRoster = rosterOrEmpty(list.InviteRoster)
	}
	return resp
}

func rosterOrEmpty(roster []domain.IdentityRef) []domain.IdentityRef {
	if roster == nil {
		return []domain.IdentityRef{}
	}
	return roster
}

// ListOutput wraps a list for Huma.
type ListOutput struct {
	Body ListResponse
}

// ListsResponse contains a page of lists.
type ListsResponse struct {
	Lists      []ListResponse `json:"lists" doc:"Lists"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages exist"`
}

// ListsOutput wraps a page of lists for Huma.
type ListsOutput struct {
	Body ListsResponse
}

// CreateListRequest is the request body for creating a list.
type CreateListRequest struct {
	Title          string   `json:"title" minLength:"1" maxLength:"200" doc:"List title"`
	Description    string   `json:"description,omitempty" maxLength:"2000" doc:"List description"`
	TagFilter      []string `json:"tag_filter" minItems:"1" maxItems:"50" doc:"Tags selecting the owner's bookmarks"`
	Visibility     string   `json:"visibility,omitempty" enum:"public,link_only,invited_only" doc:"Defaults to link_only"`
	EditPermission string   `json:"edit_permission,omitempty" enum:"owner_only,anyone" doc:"Defaults to owner_only"`
}

// CreateListInput wraps the create request for Huma.
type CreateListInput struct {
	Body CreateListRequest
}

// PageParams are cursor pagination query parameters.
type PageParams struct {
	Limit  int    `query:"limit" minimum:"1" maximum:"1000" default:"50" doc:"Page size"`
	Cursor string `query:"cursor" doc:"Cursor from a previous page"`
}

func (p PageParams) params() store.PaginationParams {
	return store.PaginationParams{Limit: p.Limit, Cursor: p.Cursor}
}

// ListPublicInput contains pagination for public lists.
type ListPublicInput struct {
	PageParams
}

// ListTokenPath identifies a list by share token.
type ListTokenPath struct {
	Token string `path:"token" doc:"Share token"`
}

// GetListInput contains parameters for fetching a list.
type GetListInput struct {
	Token  string `path:"token" doc:"Share token"`
	Sort   string `query:"sort" enum:"score,name,founded" doc:"Item order; defaults to the server setting"`
	Locale string `query:"locale" doc:"BCP 47 locale for name ordering"`
}

// ListViewResponse is the merged view of a list.
type ListViewResponse struct {
	List         ListResponse         `json:"list" doc:"List metadata"`
	AccessTier   string               `json:"access_tier" doc:"view or edit"`
	Items        []domain.DisplayItem `json:"items" doc:"Bookmarks and list items, de-duplicated and sorted"`
	InviteRoster []domain.IdentityRef `json:"invite_roster,omitempty" doc:"Invited identities (owner and members only)"`
}

// ListViewOutput wraps the list view for Huma.
type ListViewOutput struct {
	Body ListViewResponse
}

// UpdateListSettingsRequest is a partial settings update. Omitted fields
// stay unchanged.
type UpdateListSettingsRequest struct {
	Title          *string  `json:"title,omitempty" maxLength:"200" doc:"New title"`
	Description    *string  `json:"description,omitempty" maxLength:"2000" doc:"New description"`
	TagFilter      []string `json:"tag_filter,omitempty" maxItems:"50" doc:"New tag filter"`
	Visibility     *string  `json:"visibility,omitempty" enum:"public,link_only,invited_only" doc:"New visibility"`
	EditPermission *string  `json:"edit_permission,omitempty" enum:"owner_only,anyone" doc:"New edit permission"`
	AddUserID      *string  `json:"add_user_id,omitempty" doc:"Identity to invite"`
	RemoveUserID   *string  `json:"remove_user_id,omitempty" doc:"Identity to remove from the roster"`
}

// UpdateListSettingsInput wraps the settings request for Huma.
type UpdateListSettingsInput struct {
	Token string `path:"token" doc:"Share token"`
	Body  UpdateListSettingsRequest
}

// HistoryInput contains parameters for the history feed.
type HistoryInput struct {
	Token string `path:"token" doc:"Share token"`
	PageParams
}

// HistoryRecordResponse is one audit entry. The internal list id is left out.
type HistoryRecordResponse struct {
	ID        string               `json:"id" doc:"Record ID, sortable by time"`
	ActorID   string               `json:"actor_id" doc:"Identity that made the change"`
	Action    domain.HistoryAction `json:"action" doc:"Kind of change"`
	ItemID    string               `json:"item_id,omitempty" doc:"Affected item"`
	ItemName  string               `json:"item_name,omitempty" doc:"Item name at the time of the change"`
	Field     string               `json:"field,omitempty" doc:"Changed field"`
	OldValue  string               `json:"old_value,omitempty" doc:"Value before the change"`
	NewValue  string               `json:"new_value,omitempty" doc:"Value after the change"`
	CreatedAt time.Time            `json:"created_at" doc:"Time of the change"`
}

// HistoryResponse contains a page of history records.
type HistoryResponse struct {
	Records    []HistoryRecordResponse `json:"records" doc:"History records, newest first"`
	NextCursor string                  `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool                    `json:"has_more" doc:"Whether more pages exist"`
	Total      int                     `json:"total" doc:"Total records for the list"`
}

// HistoryOutput wraps the history page for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

// === Handlers ===

func (s *Server) handleCreateList(ctx context.Context, input *CreateListInput) (*ListOutput, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.services.Lists.Create(ctx, ref, service.CreateListRequest{
		Title:          input.Body.Title,
		Description:    input.Body.Description,
		TagFilter:      input.Body.TagFilter,
		Visibility:     input.Body.Visibility,
		EditPermission: input.Body.EditPermission,
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: listResponse(list, ref)}, nil
}

func (s *Server) handleListMyLists(ctx context.Context, _ *struct{}) (*ListsOutput, error) {
	ref, err := RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	lists, err := s.services.Lists.ListMine(ctx, ref)
	if err != nil {
		return nil, err
	}

	resp := ListsResponse{Lists: make([]ListResponse, 0, len(lists))}
	for _, l := range lists {
		resp.Lists = append(resp.Lists, listResponse(l, ref))
	}
	return &ListsOutput{Body: resp}, nil
}

func (s *Server) handleListPublicLists(ctx context.Context, input *ListPublicInput) (*ListsOutput, error) {
	page, err := s.services.Lists.ListPublic(ctx, input.params())
	if err != nil {
		return nil, err
	}

	viewer := Identity(ctx)
	resp := ListsResponse{
		Lists:      make([]ListResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for _, l := range page.Items {
		resp.Lists = append(resp.Lists, listResponse(l, viewer))
	}
	return &ListsOutput{Body: resp}, nil
}

func (s *Server) handleGetList(ctx context.Context, input *GetListInput) (*ListViewOutput, error) {
	viewer := Identity(ctx)
	view, err := s.services.Lists.View(ctx, viewer, viewerFromContext(ctx), input.Token, service.ViewOptions{
		Sort:   input.Sort,
		Locale: input.Locale,
	})
	if err != nil {
		return nil, err
	}

	list := listResponse(view.List, viewer)
	list.InviteRoster = nil
	resp := ListViewResponse{
		List:       list,
		AccessTier: view.AccessTier.String(),
		Items:      view.Items,
	}
	if resp.Items == nil {
		resp.Items = []domain.DisplayItem{}
	}
	if view.ShowRoster {
		resp.InviteRoster = rosterOrEmpty(view.List.InviteRoster)
	}
	return &ListViewOutput{Body: resp}, nil
}

func (s *Server) handleUpdateListSettings(ctx context.Context, input *UpdateListSettingsInput) (*ListOutput, error) {
	actor := Identity(ctx)
	list, err := s.services.Mutations.UpdateSettings(ctx, actor, input.Token, service.SettingsRequest{
		Title:          input.Body.Title,
		Description:    input.Body.Description,
		TagFilter:      input.Body.TagFilter,
		Visibility:     input.Body.Visibility,
		EditPermission: input.Body.EditPermission,
		AddUserID:      input.Body.AddUserID,
		RemoveUserID:   input.Body.RemoveUserID,
	})
	if err != nil {
		return nil, err
	}
	return &ListOutput{Body: listResponse(list, actor)}, nil
}

func (s *Server) handleDeleteList(ctx context.Context, input *ListTokenPath) (*struct{}, error) {
	if err := s.services.Lists.Delete(ctx, Identity(ctx), input.Token); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetListHistory(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	page, err := s.services.Lists.History(ctx, Identity(ctx), input.Token, input.params())
	if err != nil {
		return nil, err
	}

	resp := HistoryResponse{
		Records:    make([]HistoryRecordResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		Total:      page.Total,
	}
	for _, r := range page.Items {
		resp.Records = append(resp.Records, HistoryRecordResponse{
			ID:        r.ID,
			ActorID:   r.ActorID,
			Action:    r.Action,
			ItemID:    r.ItemID,
			ItemName:  r.ItemName,
			Field:     r.Field,
			OldValue:  r.OldValue,
			NewValue:  r.NewValue,
			CreatedAt: r.CreatedAt,
		})
	}
	return &HistoryOutput{Body: resp}, nil
}

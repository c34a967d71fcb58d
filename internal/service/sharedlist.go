package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/listkeep/listkeep-server/internal/access"
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/id"
	"github.com/listkeep/listkeep-server/internal/merge"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/validation"
)

// shareTokenAttempts bounds retries on the (unlikely) share token collision.
const shareTokenAttempts = 3

// SharedListService handles list lifecycle and the merged read path.
type SharedListService struct {
	store     store.Store
	views     *store.ViewTracker
	defaults  merge.Options
	audit     *auditor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSharedListService creates a new shared list service. views may be nil,
// in which case every fetch counts.
func NewSharedListService(
	store store.Store,
	views *store.ViewTracker,
	defaults merge.Options,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SharedListService {
	if defaults.Order == "" {
		defaults.Order = domain.SortByScore
	}
	return &SharedListService{
		store:     store,
		views:     views,
		defaults:  defaults,
		audit:     newAuditor(store, m, logger),
		validator: validation.New(),
		logger:    logger,
	}
}

// CreateListRequest contains the settings of a new list.
type CreateListRequest struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"max=2000"`
	TagFilter      []string `json:"tag_filter" validate:"required,min=1,max=50,tags"`
	Visibility     string   `json:"visibility" validate:"omitempty,oneof=public link_only invited_only"`
	EditPermission string   `json:"edit_permission" validate:"omitempty,oneof=owner_only anyone"`
}

// Create publishes a new list owned by owner.
func (s *SharedListService) Create(ctx context.Context, owner *domain.IdentityRef, req CreateListRequest) (*domain.SharedList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, domainerrors.RequiresLogin("log in to create a list")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Visibility == "" {
		req.Visibility = string(domain.VisibilityLinkOnly)
	}
	if req.EditPermission == "" {
		req.EditPermission = string(domain.EditOwnerOnly)
	}

	list := &domain.SharedList{OwnerID: owner.ID, Owner: *owner}
	for _, set := range []struct {
		field domain.ListField
		value string
	}{
		{domain.ListFieldTitle, req.Title},
		{domain.ListFieldDescription, req.Description},
		{domain.ListFieldTags, strings.Join(req.TagFilter, ",")},
		{domain.ListFieldVisibility, req.Visibility},
		{domain.ListFieldEditPermission, req.EditPermission},
	} {
		if _, err := list.SetField(set.field, set.value); err != nil {
			return nil, err
		}
	}

	listID, err := id.Generate("list")
	if err != nil {
		return nil, fmt.Errorf("generate list ID: %w", err)
	}
	now := time.Now().UTC()
	list.ID = listID
	list.CreatedAt = now
	list.UpdatedAt = now

	for attempt := 1; ; attempt++ {
		if list.ShareToken, err = id.ShareToken(); err != nil {
			return nil, err
		}
		err = s.store.CreateSharedList(ctx, list)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == shareTokenAttempts {
			return nil, storeErr(err, "list")
		}
		s.logger.Warn("share token collision, retrying", "attempt", attempt)
	}

	s.logger.Info("list created",
		"list_id", list.ID,
		"share_token", list.ShareToken,
		"owner_id", owner.ID,
		"visibility", list.Visibility,
	)
	return list, nil
}

// ViewOptions selects the ordering of a fetched list. Zero values fall back
// to the configured defaults.
type ViewOptions struct {
	Sort   string
	Locale string
}

// ListView is a fetched list as the viewer is allowed to see it.
type ListView struct {
	List       *domain.SharedList
	AccessTier access.Tier
	Items      []domain.DisplayItem
	IsOwner    bool
	// ShowRoster is set for the owner and roster members.
	ShowRoster bool
}

// View fetches a list by share token for viewer (nil when anonymous).
// viewerKey identifies the viewer for view de-duplication.
func (s *SharedListService) View(ctx context.Context, viewer *domain.IdentityRef, viewerKey, token string, opts ViewOptions) (*ListView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mergeOpts := s.defaults
	if opts.Sort != "" {
		order, ok := domain.ParseSortOrder(opts.Sort)
		if !ok {
			return nil, domainerrors.ValidationWithDetails("invalid sort order",
				map[string]string{"sort": "must be one of: score name founded"})
		}
		mergeOpts.Order = order
	}
	if opts.Locale != "" {
		mergeOpts.Locale = opts.Locale
	}

	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return nil, err
	}
	decision, err := access.RequireView(viewer, list)
	if err != nil {
		return nil, s.audit.denied(decision, err)
	}

	saved, err := s.store.ListSavedItemsByTags(ctx, list.OwnerID, list.TagFilter)
	if err != nil {
		return nil, storeErr(err, "saved items")
	}
	shared, err := s.store.ListSharedListItems(ctx, list.ID)
	if err != nil {
		return nil, storeErr(err, "list items")
	}

	view := &ListView{
		List:       list,
		AccessTier: decision.Tier,
		Items:      merge.Assemble(list, saved, shared, mergeOpts),
	}
	// Only a view that is actually served counts.
	s.countView(ctx, list, viewer, viewerKey)
	if viewer != nil {
		view.IsOwner = list.IsOwner(viewer.ID)
		view.ShowRoster = view.IsOwner || list.HasMember(viewer.ID)
	}
	return view, nil
}

// countView increments the view counter unless the same viewer was counted
// inside the de-duplication window. Failures only cost accuracy.
func (s *SharedListService) countView(ctx context.Context, list *domain.SharedList, viewer *domain.IdentityRef, viewerKey string) {
	if viewer != nil {
		viewerKey = "user:" + viewer.ID
	}
	seen, err := s.views.Seen(ctx, list.ID, viewerKey)
	if err != nil {
		s.logger.Warn("view de-duplication failed", "list_id", list.ID, "error", err)
	}
	if seen {
		s.audit.metrics.ListViewDedupes.Inc()
		return
	}

	count, err := s.store.IncrementViewCount(ctx, list.ID)
	if err != nil {
		s.logger.Warn("view count increment failed", "list_id", list.ID, "error", err)
		return
	}
	list.ViewCount = count
	s.audit.metrics.ListViews.Inc()
}

// ListMine returns the lists viewer owns followed by those they were invited to.
func (s *SharedListService) ListMine(ctx context.Context, viewer *domain.IdentityRef) ([]*domain.SharedList, error) {
	if viewer == nil {
		return nil, domainerrors.RequiresLogin("log in to see your lists")
	}
	owned, err := s.store.ListSharedListsByOwner(ctx, viewer.ID)
	if err != nil {
		return nil, storeErr(err, "lists")
	}
	invited, err := s.store.ListSharedListsForMember(ctx, viewer.ID)
	if err != nil {
		return nil, storeErr(err, "lists")
	}

	out := make([]*domain.SharedList, 0, len(owned)+len(invited))
	seen := make(map[string]bool, len(owned))
	for _, l := range owned {
		seen[l.ID] = true
		out = append(out, l)
	}
	for _, l := range invited {
		if !seen[l.ID] {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListPublic pages through discoverable public lists.
func (s *SharedListService) ListPublic(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.SharedList], error) {
	result, err := s.store.ListPublicSharedLists(ctx, params)
	if err != nil {
		return nil, storeErr(err, "lists")
	}
	return result, nil
}

// Delete removes a list with its items and history. Owner only.
func (s *SharedListService) Delete(ctx context.Context, actor *domain.IdentityRef, token string) error {
	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(actor, list); err != nil {
		return s.audit.denied(access.Decide(actor, list), err)
	}
	if err := s.store.DeleteSharedList(ctx, list.ID); err != nil {
		return storeErr(err, "list")
	}

	s.logger.Info("list deleted", "list_id", list.ID, "actor_id", actor.ID)
	return nil
}

// History pages through a list's edit history, newest first. Reading the
// audit trail needs a known identity with view access.
func (s *SharedListService) History(ctx context.Context, viewer *domain.IdentityRef, token string, params store.PaginationParams) (*store.PaginatedResult[*domain.EditHistoryRecord], error) {
	if viewer == nil {
		s.audit.metrics.AccessDenials.WithLabelValues(string(access.ReasonRequiresLogin)).Inc()
		return nil, domainerrors.RequiresLogin("log in to see list history")
	}
	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return nil, err
	}
	if decision, err := access.RequireView(viewer, list); err != nil {
		return nil, s.audit.denied(decision, err)
	}

	if _, err := store.DecodeCursor(params.Cursor); err != nil {
		return nil, domainerrors.ValidationWithDetails("invalid cursor", map[string]string{"cursor": "is malformed"})
	}
	page, err := s.store.ListHistory(ctx, list.ID, params)
	if err != nil {
		return nil, storeErr(err, "history")
	}
	return page, nil
}

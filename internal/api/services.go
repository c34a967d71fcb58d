package api

import (
	"context"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/search"
	"github.com/listkeep/listkeep-server/internal/service"
)

// CatalogService is the read side of the entity catalog.
type CatalogService interface {
	Lookup(ctx context.Context, t domain.ItemType, slugOrName string) (*domain.CatalogEntity, error)
	Search(ctx context.Context, q string, types []domain.ItemType, limit int) (*search.SearchResult, error)
}

// Services groups the services the handlers call.
type Services struct {
	Auth        *service.AuthService
	Saved       *service.SavedService
	Lists       *service.SharedListService
	Invitations *service.InvitationService
	Mutations   *service.MutationService
	Catalog     CatalogService
}

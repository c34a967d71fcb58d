package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/search"
	"github.com/listkeep/listkeep-server/internal/store"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search catalog",
		Description: "Full-text search over organizations, people and offerings",
		Tags:        []string{"Catalog"},
	}, s.handleSearchCatalog)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCatalogEntity",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/{type}/{slug}",
		Summary:     "Get catalog entity",
		Description: "Looks up an entity by slug, or by exact name",
		Tags:        []string{"Catalog"},
	}, s.handleGetCatalogEntity)
}

// SearchCatalogInput contains catalog search parameters.
type SearchCatalogInput struct {
	Query string   `query:"q" doc:"Search text; empty matches everything"`
	Types []string `query:"type" enum:"organization,person,offering" doc:"Restrict to these entity types"`
	Limit int      `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Maximum hits"`
}

// SearchCatalogOutput wraps search results for Huma.
type SearchCatalogOutput struct {
	Body *search.SearchResult
}

// GetCatalogEntityInput identifies a catalog entity.
type GetCatalogEntityInput struct {
	Type string `path:"type" enum:"organization,person,offering" doc:"Entity type"`
	Slug string `path:"slug" doc:"Entity slug or exact name"`
}

// CatalogEntityOutput wraps a catalog entity for Huma.
type CatalogEntityOutput struct {
	Body *domain.CatalogEntity
}

func (s *Server) handleSearchCatalog(ctx context.Context, input *SearchCatalogInput) (*SearchCatalogOutput, error) {
	types := make([]domain.ItemType, 0, len(input.Types))
	for _, t := range input.Types {
		types = append(types, domain.ItemType(t))
	}

	result, err := s.services.Catalog.Search(ctx, input.Query, types, input.Limit)
	if err != nil {
		return nil, domainerrors.Unavailable(err)
	}
	if result.Hits == nil {
		result.Hits = []search.SearchHit{}
	}
	return &SearchCatalogOutput{Body: result}, nil
}

func (s *Server) handleGetCatalogEntity(ctx context.Context, input *GetCatalogEntityInput) (*CatalogEntityOutput, error) {
	entity, err := s.services.Catalog.Lookup(ctx, domain.ItemType(input.Type), input.Slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFoundf("no %s %q in the catalog", input.Type, input.Slug)
	}
	if err != nil {
		return nil, domainerrors.Unavailable(err)
	}
	return &CatalogEntityOutput{Body: entity}, nil
}

// Package catalog is the read-mostly reference store of organizations,
// people and offerings that list items can be attached from. Entities live
// in Badger, are full-text indexed in Bleve and cached with Ristretto.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/search"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/util"
)

const (
	indexSlug = "slug"
	indexName = "name"

	maxSearchLimit = 50
)

// Catalog looks up and searches reference entities.
type Catalog struct {
	entities *store.Entity[domain.CatalogEntity]
	index    *search.SearchIndex
	cache    *ristretto.Cache[string, *domain.CatalogEntity]
	logger   *slog.Logger
}

// New creates a catalog over kv and index. cacheSize bounds the number of
// cached lookups.
func New(kv *store.KV, index *search.SearchIndex, cacheSize int64, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cacheSize <= 0 {
		cacheSize = 1000
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, *domain.CatalogEntity]{
		NumCounters: cacheSize * 10,
		MaxCost:     cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create catalog cache: %w", err)
	}

	entities := store.NewEntity[domain.CatalogEntity](kv, "catalog:").
		WithIndex(indexSlug, func(e *domain.CatalogEntity) []string {
			return []string{lookupKey(e.Type, e.Slug)}
		}).
		WithIndexTransform(indexName, func(e *domain.CatalogEntity) []string {
			return []string{lookupKey(e.Type, e.Name)}
		}, strings.ToLower)

	return &Catalog{
		entities: entities,
		index:    index,
		cache:    cache,
		logger:   logger,
	}, nil
}

// Close releases the cache.
func (c *Catalog) Close() {
	c.cache.Close()
}

func lookupKey(t domain.ItemType, s string) string {
	return string(t) + "/" + strings.ToLower(strings.TrimSpace(s))
}

// Get returns the entity with the given ID.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.CatalogEntity, error) {
	return c.entities.Get(ctx, id)
}

// Lookup resolves an entity of type t by slug, falling back to an exact
// case-insensitive name match. Returns store.ErrNotFound when neither matches.
func (c *Catalog) Lookup(ctx context.Context, t domain.ItemType, slugOrName string) (*domain.CatalogEntity, error) {
	slugOrName = strings.TrimSpace(slugOrName)
	if slugOrName == "" {
		return nil, store.ErrNotFound
	}

	cacheKey := lookupKey(t, slugOrName)
	if e, ok := c.cache.Get(cacheKey); ok {
		return e, nil
	}

	e, err := c.entities.GetByIndex(ctx, indexSlug, lookupKey(t, util.Slugify(slugOrName)))
	if errors.Is(err, store.ErrNotFound) {
		e, err = c.entities.GetByIndex(ctx, indexName, cacheKey)
	}
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, e, 1)
	return e, nil
}

// Put creates or replaces an entity and reindexes it.
func (c *Catalog) Put(ctx context.Context, e *domain.CatalogEntity) error {
	if err := normalize(e); err != nil {
		return err
	}
	if err := c.entities.Put(ctx, e.ID, e); err != nil {
		return fmt.Errorf("store catalog entity %s: %w", e.ID, err)
	}
	if err := c.index.IndexDocument(search.EntityToDocument(e)); err != nil {
		return fmt.Errorf("index catalog entity %s: %w", e.ID, err)
	}
	c.cache.Clear()
	return nil
}

// Delete removes an entity from the store and index.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if err := c.entities.Delete(ctx, id); err != nil {
		return err
	}
	if err := c.index.DeleteDocument(id); err != nil {
		return fmt.Errorf("unindex catalog entity %s: %w", id, err)
	}
	c.cache.Clear()
	return nil
}

// Search runs a full-text query over the catalog.
func (c *Catalog) Search(ctx context.Context, q string, types []domain.ItemType, limit int) (*search.SearchResult, error) {
	params := search.DefaultSearchParams()
	params.Query = q
	params.Limit = max(1, min(limit, maxSearchLimit))
	if limit <= 0 {
		params.Limit = 20
	}
	for _, t := range types {
		params.Types = append(params.Types, string(t))
	}
	return c.index.Search(ctx, params)
}

// EnsureIndexed rebuilds the search index from the store when the index is
// empty, which happens after a mapping version bump. Returns the number of
// entities indexed.
func (c *Catalog) EnsureIndexed(ctx context.Context) (int, error) {
	count, err := c.index.DocumentCount()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	var docs []*search.EntityDocument
	for e, err := range c.entities.List(ctx) {
		if err != nil {
			return 0, err
		}
		docs = append(docs, search.EntityToDocument(e))
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := c.index.IndexDocuments(docs); err != nil {
		return 0, err
	}
	c.logger.Info("catalog search index rebuilt", "entities", len(docs))
	return len(docs), nil
}

// normalize validates e and fills derived fields.
func normalize(e *domain.CatalogEntity) error {
	switch e.Type {
	case domain.ItemTypeOrganization, domain.ItemTypePerson, domain.ItemTypeOffering:
	default:
		return fmt.Errorf("catalog entity %q: unsupported type %q", e.Name, e.Type)
	}

	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return errors.New("catalog entity: name is required")
	}

	if e.Slug = util.Slugify(e.Slug); e.Slug == "" {
		e.Slug = util.Slugify(e.Name)
	}
	if e.Slug == "" {
		return fmt.Errorf("catalog entity %q: cannot derive slug", e.Name)
	}
	if e.ID == "" {
		e.ID = string(e.Type) + "-" + e.Slug
	}

	e.Description = htmlToMarkdown(strings.TrimSpace(e.Description))
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	return nil
}

package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listkeep/listkeep-server/internal/catalog"
	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve index over the catalog.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// CatalogHandle wraps the catalog with shutdown capability.
type CatalogHandle struct {
	*catalog.Catalog
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalog provides the entity catalog. The optional seed file is
// imported on every start; imports are idempotent.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	kvHandle := do.MustInvoke[*KVHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	cat, err := catalog.New(kvHandle.KV, indexHandle.SearchIndex, cfg.Catalog.CacheSize, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if cfg.Catalog.SeedPath != "" {
		n, err := cat.ImportFile(ctx, cfg.Catalog.SeedPath)
		if err != nil {
			cat.Close()
			return nil, err
		}
		log.Info("Catalog seed imported", "path", cfg.Catalog.SeedPath, "entities", n)
	}

	if _, err := cat.EnsureIndexed(ctx); err != nil {
		log.Warn("Catalog reindex failed, search may be incomplete", "error", err)
	}

	return &CatalogHandle{Catalog: cat}, nil
}

package providers

import (
	"github.com/samber/do/v2"

	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/store/sqlite"
)

// StoreHandle wraps the SQLite store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the relational store for users, lists and history.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// KVHandle wraps the Badger key-value store with shutdown capability.
type KVHandle struct {
	*store.KV
}

// Shutdown implements do.Shutdownable.
func (h *KVHandle) Shutdown() error {
	return h.Close()
}

// ProvideKV provides the Badger store backing the catalog and view markers.
func ProvideKV(i do.Injector) (*KVHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	kv, err := store.OpenKV(cfg.Data.KVPath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Key-value store initialized", "path", cfg.Data.KVPath())

	return &KVHandle{KV: kv}, nil
}

// ProvideViewTracker provides view de-duplication over the KV store.
func ProvideViewTracker(i do.Injector) (*store.ViewTracker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	kvHandle := do.MustInvoke[*KVHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Lists.ViewDedupeWindow == 0 {
		log.Info("View de-duplication disabled")
	}
	return store.NewViewTracker(kvHandle.KV, cfg.Lists.ViewDedupeWindow), nil
}

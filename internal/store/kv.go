package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// KV wraps a Badger database holding derived and ephemeral state: the catalog
// snapshot and view de-duplication markers. Durable list data lives in SQLite.
type KV struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenKV opens (or creates) a Badger database at path.
func OpenKV(path string, logger *slog.Logger) (*KV, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	return openKV(opts, path, logger)
}

// OpenInMemoryKV opens a Badger database that lives only in memory.
func OpenInMemoryKV(logger *slog.Logger) (*KV, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openKV(opts, ":memory:", logger)
}

func openKV(opts badger.Options, path string, logger *slog.Logger) (*KV, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return &KV{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (k *KV) Close() error {
	if k.logger != nil {
		k.logger.Info("Closing badger database")
	}
	return k.db.Close()
}

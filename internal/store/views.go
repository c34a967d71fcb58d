package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const viewPrefix = "view:"

// ViewTracker remembers recent list views so repeated fetches by the same
// viewer within a window count once. Markers expire through Badger TTLs.
type ViewTracker struct {
	kv     *KV
	window time.Duration
}

// NewViewTracker creates a tracker. A zero window disables de-duplication.
func NewViewTracker(kv *KV, window time.Duration) *ViewTracker {
	return &ViewTracker{kv: kv, window: window}
}

// Window returns the de-duplication window.
func (v *ViewTracker) Window() time.Duration { return v.window }

// Seen records a view of listID by viewerKey and reports whether a view by
// the same viewer was already recorded inside the window.
func (v *ViewTracker) Seen(ctx context.Context, listID, viewerKey string) (bool, error) {
	if v == nil || v.window <= 0 || viewerKey == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := []byte(viewPrefix + listID + ":" + viewerKey)
	seen := false
	err := v.kv.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			seen = true
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.SetEntry(badger.NewEntry(key, []byte{1}).WithTTL(v.window))
	})
	// A concurrent fetch by the same viewer won the race and was counted.
	if errors.Is(err, badger.ErrConflict) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return seen, nil
}

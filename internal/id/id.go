// Package id generates identifiers: prefixed NanoIDs for rows, URL-safe share
// tokens, and time-sortable ULIDs for append-only records.
package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"
)

// shareTokenAlphabet omits look-alike characters so tokens survive being read aloud.
const (
	shareTokenAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	shareTokenLength   = 16
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "list-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// ShareToken returns a new public handle for a shared list.
func ShareToken() (string, error) {
	token, err := gonanoid.Generate(shareTokenAlphabet, shareTokenLength)
	if err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return token, nil
}

// Sortable returns a ULID whose lexical order follows creation time.
// IDs minted within the same millisecond stay strictly increasing.
func Sortable(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

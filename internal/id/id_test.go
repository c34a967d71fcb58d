package id

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{"list", "item", "saved", "user"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			// NanoID default is 21 characters.
			assert.Len(t, id, len(prefix)+1+21)
		})
	}
}

func TestShareToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		token, err := ShareToken()
		require.NoError(t, err)
		assert.Len(t, token, shareTokenLength)
		for _, c := range token {
			assert.True(t, strings.ContainsRune(shareTokenAlphabet, c), "unexpected character %q", c)
		}
		assert.False(t, seen[token])
		seen[token] = true
	}
}

func TestSortable_Monotonic(t *testing.T) {
	now := time.Now()
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = Sortable(now)
	}

	assert.True(t, sort.StringsAreSorted(ids), "ULIDs minted in order should sort in order")

	later := Sortable(now.Add(time.Second))
	assert.Greater(t, later, ids[len(ids)-1])
}

func BenchmarkGenerate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("bench")
	}
}

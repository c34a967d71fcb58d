// Package merge assembles a shared list's display sequence from the owner's
// saved items and the items attached to the list.
package merge

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/listkeep/listkeep-server/internal/domain"
)

// foundedSentinel sorts after every real year.
const foundedSentinel = 10000

// Options selects the ordering of the assembled view.
type Options struct {
	Order  domain.SortOrder
	Locale string // BCP 47 tag used for name collation; defaults to English
}

// Gather returns the saved items whose tags intersect the list's tag filter,
// labelled with saved provenance, followed by the list's own items labelled
// shared. Input order is preserved within each group.
func Gather(list *domain.SharedList, saved []*domain.SavedItem, shared []*domain.SharedListItem) []domain.DisplayItem {
	out := make([]domain.DisplayItem, 0, len(saved)+len(shared))
	for _, s := range saved {
		if s.OwnerID != list.OwnerID || !list.MatchesTags(s.Tags) {
			continue
		}
		out = append(out, domain.DisplayItem{
			ItemContent: s.ItemContent,
			Provenance:  domain.ProvenanceSaved,
			ID:          s.ID,
			CreatedAt:   s.CreatedAt,
		})
	}
	for _, s := range shared {
		if s.SharedListID != list.ID {
			continue
		}
		addedBy := s.AddedBy
		out = append(out, domain.DisplayItem{
			ItemContent: s.ItemContent,
			Provenance:  domain.ProvenanceShared,
			ID:          s.ID,
			AddedBy:     &addedBy,
			CreatedAt:   s.CreatedAt,
		})
	}
	return out
}

type dedupeKey struct {
	itemType domain.ItemType
	name     string
}

func keyOf(item *domain.DisplayItem) dedupeKey {
	return dedupeKey{itemType: item.ItemType, name: strings.TrimSpace(item.Name())}
}

// Dedupe drops saved items that share (item type, name) with a shared item.
// The shared copy wins; the saved copy stays untouched in its own store.
func Dedupe(items []domain.DisplayItem) []domain.DisplayItem {
	sharedKeys := make(map[dedupeKey]struct{})
	for i := range items {
		if items[i].Provenance == domain.ProvenanceShared {
			sharedKeys[keyOf(&items[i])] = struct{}{}
		}
	}

	out := make([]domain.DisplayItem, 0, len(items))
	for i := range items {
		if items[i].Provenance == domain.ProvenanceSaved {
			if _, dup := sharedKeys[keyOf(&items[i])]; dup {
				continue
			}
		}
		out = append(out, items[i])
	}
	return out
}

// Sort orders items in place. Every order is total and stable: ties fall
// back to the items' positions on entry.
func Sort(items []domain.DisplayItem, opts Options) {
	switch opts.Order {
	case domain.SortByName:
		sortByName(items, opts.Locale)
	case domain.SortByFounded:
		slices.SortStableFunc(items, func(a, b domain.DisplayItem) int {
			return cmp.Compare(foundedKey(&a), foundedKey(&b))
		})
	default:
		slices.SortStableFunc(items, compareScore)
	}
}

// compareScore orders by average rating descending, unrated items last.
func compareScore(a, b domain.DisplayItem) int {
	ra, rb := a.Data.Common().AverageRating, b.Data.Common().AverageRating
	switch {
	case ra == nil && rb == nil:
		return 0
	case ra == nil:
		return 1
	case rb == nil:
		return -1
	default:
		return cmp.Compare(*rb, *ra)
	}
}

func foundedKey(item *domain.DisplayItem) int {
	if year, ok := domain.FoundedYear(item.Data); ok {
		return year
	}
	return foundedSentinel
}

func sortByName(items []domain.DisplayItem, locale string) {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	// collate.Collator is not safe for concurrent use; build one per call.
	col := collate.New(tag, collate.IgnoreCase)
	slices.SortStableFunc(items, func(a, b domain.DisplayItem) int {
		an, bn := a.Name(), b.Name()
		if c := col.CompareString(an, bn); c != 0 {
			return c
		}
		return strings.Compare(an, bn)
	})
}

// Assemble runs gather, de-duplicate and sort.
func Assemble(list *domain.SharedList, saved []*domain.SavedItem, shared []*domain.SharedListItem, opts Options) []domain.DisplayItem {
	items := Dedupe(Gather(list, saved, shared))
	Sort(items, opts)
	return items
}

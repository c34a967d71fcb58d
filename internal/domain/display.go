package domain

import "time"

// Provenance says which store a displayed item came from, and therefore
// which store an edit to it targets.
type Provenance string

const (
	ProvenanceSaved  Provenance = "saved"
	ProvenanceShared Provenance = "shared"
)

// ParseProvenance converts a string to a Provenance.
func ParseProvenance(s string) (Provenance, bool) {
	switch p := Provenance(s); p {
	case ProvenanceSaved, ProvenanceShared:
		return p, true
	default:
		return "", false
	}
}

// DisplayItem is one entry of a list's merged view.
type DisplayItem struct {
	ItemContent
	Provenance Provenance   `json:"provenance"`
	ID         string       `json:"id"`
	AddedBy    *IdentityRef `json:"added_by,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// SortOrder selects the ordering of a merged view.
type SortOrder string

const (
	SortByScore   SortOrder = "score"
	SortByName    SortOrder = "name"
	SortByFounded SortOrder = "founded"
)

// ParseSortOrder converts a string to a SortOrder.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(s); o {
	case SortByScore, SortByName, SortByFounded:
		return o, true
	default:
		return "", false
	}
}

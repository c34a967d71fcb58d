package domain

import "time"

// SavedItem is a bookmark in a user's personal collection.
type SavedItem struct {
	ItemContent
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAnyTag reports whether the item carries at least one of tags.
func (s *SavedItem) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range s.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

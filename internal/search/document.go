// Package search provides full-text search over the entity catalog using
// Bleve. It backs the search-to-attach flow: find an organization, person or
// offering by name and attach it to a list.
package search

import (
	"github.com/listkeep/listkeep-server/internal/domain"
)

// EntityDocument is the document structure for the Bleve index.
// Every catalog entity is indexed as one document with type discrimination.
type EntityDocument struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`

	// Variant-specific context, denormalized so one query covers all types.
	Industry     string `json:"industry,omitempty"`
	Headline     string `json:"headline,omitempty"`
	Organization string `json:"organization,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Category     string `json:"category,omitempty"`

	AverageRating float64 `json:"average_rating,omitempty"`
	FoundedYear   int     `json:"founded_year,omitempty"`
	UpdatedAt     int64   `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map keyed by the field names used in the
// index mapping. Empty optional fields are omitted.
func (d *EntityDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"type":       d.Type,
		"name":       d.Name,
		"slug":       d.Slug,
		"updated_at": d.UpdatedAt,
	}

	optional := map[string]string{
		"description":  d.Description,
		"industry":     d.Industry,
		"headline":     d.Headline,
		"organization": d.Organization,
		"provider":     d.Provider,
		"category":     d.Category,
	}
	for k, v := range optional {
		if v != "" {
			m[k] = v
		}
	}

	if d.AverageRating > 0 {
		m["average_rating"] = d.AverageRating
	}
	if d.FoundedYear > 0 {
		m["founded_year"] = d.FoundedYear
	}

	return m
}

// EntityToDocument converts a catalog entity to an EntityDocument.
func EntityToDocument(e *domain.CatalogEntity) *EntityDocument {
	doc := &EntityDocument{
		ID:           e.ID,
		Type:         string(e.Type),
		Name:         e.Name,
		Slug:         e.Slug,
		Description:  e.Description,
		Industry:     e.Industry,
		Headline:     e.Headline,
		Organization: e.Organization,
		Provider:     e.Provider,
		Category:     e.Category,
		UpdatedAt:    e.UpdatedAt.UnixMilli(),
	}
	if e.AverageRating != nil {
		doc.AverageRating = *e.AverageRating
	}
	if data := e.ItemData(); data != nil {
		if year, ok := domain.FoundedYear(data); ok {
			doc.FoundedYear = year
		}
	}
	return doc
}

package domain

import "time"

// CatalogEntity is a read-only reference record from the entity catalog.
// Items attached from the catalog copy its data at attach time.
type CatalogEntity struct {
	ID            string            `json:"id"`
	Type          ItemType          `json:"type"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Description   string            `json:"description,omitempty"`
	LogoRef       string            `json:"logo_ref,omitempty"`
	AverageRating *float64          `json:"average_rating,omitempty"`
	Founded       string            `json:"founded,omitempty"`
	Website       string            `json:"website,omitempty"`
	Industry      string            `json:"industry,omitempty"`
	Headline      string            `json:"headline,omitempty"`
	Organization  string            `json:"organization,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	Category      string            `json:"category,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ItemData builds the item payload for e. Search results are never catalog
// entities, so that variant returns nil.
func (e *CatalogEntity) ItemData() ItemData {
	common := ItemCommon{
		Name:          e.Name,
		Slug:          e.Slug,
		Description:   e.Description,
		LogoRef:       e.LogoRef,
		AverageRating: e.AverageRating,
	}
	if len(e.Metadata) > 0 {
		common.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			common.Metadata[k] = v
		}
	}

	switch e.Type {
	case ItemTypeOrganization:
		return &OrganizationData{ItemCommon: common, Founded: e.Founded, Website: e.Website, Industry: e.Industry}
	case ItemTypePerson:
		return &PersonData{ItemCommon: common, Headline: e.Headline, Organization: e.Organization}
	case ItemTypeOffering:
		return &OfferingData{ItemCommon: common, Provider: e.Provider, Category: e.Category}
	case ItemTypeSearchResult:
		return nil
	default:
		return nil
	}
}

package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/util"
)

// ItemType identifies which ItemData variant an item carries.
type ItemType string

const (
	ItemTypeOrganization ItemType = "organization"
	ItemTypePerson       ItemType = "person"
	ItemTypeOffering     ItemType = "offering"
	ItemTypeSearchResult ItemType = "search_result"
)

// ParseItemType converts a string to an ItemType.
func ParseItemType(s string) (ItemType, bool) {
	switch t := ItemType(s); t {
	case ItemTypeOrganization, ItemTypePerson, ItemTypeOffering, ItemTypeSearchResult:
		return t, true
	default:
		return "", false
	}
}

// ItemCommon holds the fields every item variant carries.
type ItemCommon struct {
	Name          string            `json:"name"`
	Slug          string            `json:"slug,omitempty"`
	Description   string            `json:"description,omitempty"`
	LogoRef       string            `json:"logo_ref,omitempty"`
	AverageRating *float64          `json:"average_rating,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ItemData is the per-type payload of a saved or shared item. The set of
// implementations is closed; switch on Type() exhaustively.
type ItemData interface {
	Type() ItemType
	Common() *ItemCommon
	itemData()
}

// OrganizationData describes a company or other organization.
type OrganizationData struct {
	ItemCommon
	Founded  string `json:"founded,omitempty"`
	Website  string `json:"website,omitempty"`
	Industry string `json:"industry,omitempty"`
}

// PersonData describes an individual.
type PersonData struct {
	ItemCommon
	Headline     string `json:"headline,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// OfferingData describes a product or service.
type OfferingData struct {
	ItemCommon
	Provider string `json:"provider,omitempty"`
	Category string `json:"category,omitempty"`
}

// SearchResultData is a bookmarked search hit rather than a catalog entity.
type SearchResultData struct {
	ItemCommon
	Query string `json:"query,omitempty"`
	URL   string `json:"url,omitempty"`
}

func (*OrganizationData) Type() ItemType { return ItemTypeOrganization }
func (*PersonData) Type() ItemType       { return ItemTypePerson }
func (*OfferingData) Type() ItemType     { return ItemTypeOffering }
func (*SearchResultData) Type() ItemType { return ItemTypeSearchResult }

func (d *OrganizationData) Common() *ItemCommon { return &d.ItemCommon }
func (d *PersonData) Common() *ItemCommon       { return &d.ItemCommon }
func (d *OfferingData) Common() *ItemCommon     { return &d.ItemCommon }
func (d *SearchResultData) Common() *ItemCommon { return &d.ItemCommon }

func (*OrganizationData) itemData() {}
func (*PersonData) itemData()       {}
func (*OfferingData) itemData()     {}
func (*SearchResultData) itemData() {}

// NewItemData returns an empty payload for t.
func NewItemData(t ItemType) (ItemData, error) {
	switch t {
	case ItemTypeOrganization:
		return &OrganizationData{}, nil
	case ItemTypePerson:
		return &PersonData{}, nil
	case ItemTypeOffering:
		return &OfferingData{}, nil
	case ItemTypeSearchResult:
		return &SearchResultData{}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q", t)
	}
}

// DecodeItemData decodes a JSON payload into the variant for t.
func DecodeItemData(t ItemType, raw []byte) (ItemData, error) {
	data, err := NewItemData(t)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode %s item data: %w", t, err)
	}
	return data, nil
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// Founded returns the raw founded value of d, if any. Non-organization
// variants fall back to metadata["founded"].
func Founded(d ItemData) string {
	if org, ok := d.(*OrganizationData); ok && org.Founded != "" {
		return org.Founded
	}
	return d.Common().Metadata["founded"]
}

// FoundedYear extracts the first four-digit year from the founded value.
func FoundedYear(d ItemData) (int, bool) {
	m := yearRe.FindStringSubmatch(Founded(d))
	if m == nil {
		return 0, false
	}
	var year int
	for _, c := range m[1] {
		year = year*10 + int(c-'0')
	}
	return year, true
}

// ItemField names an item-level field that may be edited.
type ItemField string

const (
	ItemFieldDescription ItemField = "description"
	ItemFieldNotes       ItemField = "notes"
	ItemFieldTags        ItemField = "tags"
	ItemFieldLogo        ItemField = "logo"
)

// EditableItemFields returns the item-level fields editable for t.
// Search results have no logo.
func EditableItemFields(t ItemType) []ItemField {
	switch t {
	case ItemTypeOrganization, ItemTypePerson, ItemTypeOffering:
		return []ItemField{ItemFieldDescription, ItemFieldNotes, ItemFieldTags, ItemFieldLogo}
	case ItemTypeSearchResult:
		return []ItemField{ItemFieldDescription, ItemFieldNotes, ItemFieldTags}
	default:
		return nil
	}
}

// IsEditableItemField reports whether f may be edited on items of type t.
func IsEditableItemField(t ItemType, f ItemField) bool {
	for _, allowed := range EditableItemFields(t) {
		if allowed == f {
			return true
		}
	}
	return false
}

const (
	maxDescriptionLength = 10000
	maxNotesLength       = 5000
	maxTags              = 50
)

// ItemContent is the editable body shared by saved items and shared list items.
type ItemContent struct {
	ItemType ItemType `json:"item_type"`
	Data     ItemData `json:"item_data"`
	Tags     []string `json:"tags"`
	Notes    string   `json:"notes,omitempty"`
}

// Name returns the display name used for de-duplication and audit records.
func (c *ItemContent) Name() string {
	if c.Data == nil {
		return ""
	}
	return c.Data.Common().Name
}

// Field returns the current string form of f. Tags are comma-joined.
func (c *ItemContent) Field(f ItemField) (string, error) {
	if !IsEditableItemField(c.ItemType, f) {
		return "", domainerrors.InvalidFieldf("field %q is not editable on %s items", f, c.ItemType)
	}
	switch f {
	case ItemFieldDescription:
		return c.Data.Common().Description, nil
	case ItemFieldNotes:
		return c.Notes, nil
	case ItemFieldTags:
		return strings.Join(c.Tags, ","), nil
	case ItemFieldLogo:
		return c.Data.Common().LogoRef, nil
	}
	return "", domainerrors.InvalidFieldf("unknown field %q", f)
}

// SetField validates value and assigns it to f, returning the stored form.
func (c *ItemContent) SetField(f ItemField, value string) (string, error) {
	if !IsEditableItemField(c.ItemType, f) {
		return "", domainerrors.InvalidFieldf("field %q is not editable on %s items", f, c.ItemType)
	}
	switch f {
	case ItemFieldDescription:
		v := util.SanitizeRich(value)
		if utf8.RuneCountInString(v) > maxDescriptionLength {
			return "", fieldTooLong(string(f), maxDescriptionLength)
		}
		c.Data.Common().Description = v
		return v, nil
	case ItemFieldNotes:
		v := util.SanitizePlain(value)
		if utf8.RuneCountInString(v) > maxNotesLength {
			return "", fieldTooLong(string(f), maxNotesLength)
		}
		c.Notes = v
		return v, nil
	case ItemFieldTags:
		tags := util.NormalizeTags(SplitTags(value))
		if len(tags) > maxTags {
			return "", domainerrors.ValidationWithDetails("too many tags",
				map[string]string{"tags": fmt.Sprintf("must not exceed %d tags", maxTags)})
		}
		c.Tags = tags
		return strings.Join(tags, ","), nil
	case ItemFieldLogo:
		v := strings.TrimSpace(value)
		c.Data.Common().LogoRef = v
		return v, nil
	}
	return "", domainerrors.InvalidFieldf("unknown field %q", f)
}

// Validate checks the content is storable.
func (c *ItemContent) Validate() error {
	if _, ok := ParseItemType(string(c.ItemType)); !ok {
		return domainerrors.ValidationWithDetails("invalid item type",
			map[string]string{"item_type": "must be one of: organization person offering search_result"})
	}
	if c.Data == nil || c.Data.Type() != c.ItemType {
		return domainerrors.Validation("item data does not match item type")
	}
	if strings.TrimSpace(c.Name()) == "" {
		return domainerrors.ValidationWithDetails("item name is required",
			map[string]string{"item_data.name": "is required"})
	}
	return nil
}

// SplitTags splits a comma-separated tag value.
func SplitTags(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func fieldTooLong(field string, limit int) error {
	return domainerrors.ValidationWithDetails(field+" is too long",
		map[string]string{field: fmt.Sprintf("must not exceed %d characters", limit)})
}

package service

import (
	"encoding/json"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/util"
)

// ItemInput is the client-supplied body of a new item.
type ItemInput struct {
	ItemType string          `json:"item_type" validate:"required,oneof=organization person offering search_result"`
	ItemData json.RawMessage `json:"item_data" validate:"required"`
	Tags     []string        `json:"tags" validate:"omitempty,max=50,tags"`
	Notes    string          `json:"notes" validate:"max=5000"`
}

// Content decodes the input into normalized item content.
func (in ItemInput) Content() (domain.ItemContent, error) {
	t, ok := domain.ParseItemType(in.ItemType)
	if !ok {
		return domain.ItemContent{}, domainerrors.ValidationWithDetails("invalid item type",
			map[string]string{"item_type": "must be one of: organization person offering search_result"})
	}
	data, err := domain.DecodeItemData(t, in.ItemData)
	if err != nil {
		return domain.ItemContent{}, domainerrors.ValidationWithDetails("invalid item data",
			map[string]string{"item_data": err.Error()})
	}
	content := domain.ItemContent{ItemType: t, Data: data, Tags: in.Tags, Notes: in.Notes}
	if err := normalizeContent(&content); err != nil {
		return domain.ItemContent{}, err
	}
	return content, nil
}

// normalizeContent sanitizes user-editable text through the same setters
// edits use, derives a slug and validates the result.
func normalizeContent(c *domain.ItemContent) error {
	if c.Data == nil {
		return domainerrors.Validation("item data is required")
	}
	common := c.Data.Common()
	common.Name = util.SanitizePlain(common.Name)
	if common.Slug == "" {
		common.Slug = util.Slugify(common.Name)
	}

	if _, err := c.SetField(domain.ItemFieldDescription, common.Description); err != nil {
		return err
	}
	if _, err := c.SetField(domain.ItemFieldNotes, c.Notes); err != nil {
		return err
	}
	tags := make([]string, len(c.Tags))
	copy(tags, c.Tags)
	c.Tags = util.NormalizeTags(tags)

	return c.Validate()
}

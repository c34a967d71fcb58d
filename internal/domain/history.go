package domain

import "time"

// HistoryAction classifies an edit history record.
type HistoryAction string

const (
	ActionUpdateDescription HistoryAction = "update_description"
	ActionUpdateNotes       HistoryAction = "update_notes"
	ActionUpdateTags        HistoryAction = "update_tags"
	ActionUpdateLogo        HistoryAction = "update_logo"
	ActionAddItem           HistoryAction = "add_item"
	ActionRemoveItem        HistoryAction = "remove_item"
	ActionUpdateSettings    HistoryAction = "update_settings"
)

// ActionForItemField maps an item-level field to its history action.
func ActionForItemField(f ItemField) HistoryAction {
	switch f {
	case ItemFieldDescription:
		return ActionUpdateDescription
	case ItemFieldNotes:
		return ActionUpdateNotes
	case ItemFieldTags:
		return ActionUpdateTags
	case ItemFieldLogo:
		return ActionUpdateLogo
	default:
		return ActionUpdateSettings
	}
}

// EditHistoryRecord is one append-only audit entry. Records are never updated.
type EditHistoryRecord struct {
	ID           string        `json:"id"`
	SharedListID string        `json:"shared_list_id"`
	ActorID      string        `json:"actor_id"`
	Action       HistoryAction `json:"action"`
	ItemID       string        `json:"item_id,omitempty"`
	ItemName     string        `json:"item_name,omitempty"`
	Field        string        `json:"field,omitempty"`
	OldValue     string        `json:"old_value,omitempty"`
	NewValue     string        `json:"new_value,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

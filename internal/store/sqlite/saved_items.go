package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
)

const savedItemColumns = `id, owner_id, item_type, item_data, tags, notes, created_at, updated_at`

func scanSavedItem(row scanner) (*domain.SavedItem, error) {
	var (
		item      domain.SavedItem
		itemType  string
		itemData  string
		tags      string
		notes     sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&item.ID, &item.OwnerID, &itemType, &itemData, &tags, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	item.ItemContent, err = decodeContent(itemType, itemData, tags, notes)
	if err != nil {
		return nil, fmt.Errorf("saved item %s: %w", item.ID, err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func decodeContent(itemType, itemData, tags string, notes sql.NullString) (domain.ItemContent, error) {
	t := domain.ItemType(itemType)
	data, err := domain.DecodeItemData(t, []byte(itemData))
	if err != nil {
		return domain.ItemContent{}, err
	}
	tagList, err := decodeTags(tags)
	if err != nil {
		return domain.ItemContent{}, err
	}
	return domain.ItemContent{ItemType: t, Data: data, Tags: tagList, Notes: notes.String}, nil
}

func encodeContent(c *domain.ItemContent) (data string, tags string, err error) {
	raw, err := json.Marshal(c.Data)
	if err != nil {
		return "", "", fmt.Errorf("encode item data: %w", err)
	}
	tags, err = encodeTags(c.Tags)
	if err != nil {
		return "", "", err
	}
	return string(raw), tags, nil
}

// CreateSavedItem inserts a bookmark into the owner's collection.
func (s *Store) CreateSavedItem(ctx context.Context, item *domain.SavedItem) error {
	data, tags, err := encodeContent(&item.ItemContent)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_items (`+savedItemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, string(item.ItemType), data, tags, nullString(item.Notes),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	return mapErr(err)
}

// GetSavedItem retrieves a saved item by ID.
func (s *Store) GetSavedItem(ctx context.Context, id string) (*domain.SavedItem, error) {
	item, err := scanSavedItem(s.db.QueryRowContext(ctx,
		`SELECT `+savedItemColumns+` FROM saved_items WHERE id = ?`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return item, nil
}

// ListSavedItems returns every saved item of ownerID, oldest first.
func (s *Store) ListSavedItems(ctx context.Context, ownerID string) ([]*domain.SavedItem, error) {
	return s.querySavedItems(ctx, `
		SELECT `+savedItemColumns+` FROM saved_items
		WHERE owner_id = ?
		ORDER BY created_at, id`, ownerID)
}

// ListSavedItemsByTags returns the saved items of ownerID carrying at least
// one of tags, oldest first. No tags matches nothing.
func (s *Store) ListSavedItemsByTags(ctx context.Context, ownerID string, tags []string) ([]*domain.SavedItem, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(tags)+1)
	args = append(args, ownerID)
	for _, t := range tags {
		args = append(args, t)
	}
	return s.querySavedItems(ctx, `
		SELECT `+savedItemColumns+` FROM saved_items s
		WHERE s.owner_id = ?
		  AND EXISTS (SELECT 1 FROM json_each(s.tags) t WHERE t.value IN (`+placeholders(len(tags))+`))
		ORDER BY s.created_at, s.id`, args...)
}

func (s *Store) querySavedItems(ctx context.Context, query string, args ...any) ([]*domain.SavedItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.SavedItem
	for rows.Next() {
		item, err := scanSavedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateSavedItem applies mutate to the current row inside one transaction.
func (s *Store) UpdateSavedItem(ctx context.Context, id string, mutate func(*domain.SavedItem) error) (*domain.SavedItem, error) {
	var updated *domain.SavedItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		item, err := scanSavedItem(tx.QueryRowContext(ctx,
			`SELECT `+savedItemColumns+` FROM saved_items WHERE id = ?`, id))
		if err != nil {
			return mapErr(err)
		}
		if err := mutate(item); err != nil {
			return err
		}
		item.UpdatedAt = time.Now()

		data, tags, err := encodeContent(&item.ItemContent)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE saved_items SET item_data = ?, tags = ?, notes = ?, updated_at = ?
			WHERE id = ?`,
			data, tags, nullString(item.Notes), formatTime(item.UpdatedAt), id)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSavedItem removes a saved item.
func (s *Store) DeleteSavedItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

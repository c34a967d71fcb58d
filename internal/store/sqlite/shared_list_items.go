package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
)

// itemSelect must match the scan order in scanSharedListItem.
const itemSelect = `
	SELECT i.id, i.shared_list_id, i.item_type, i.item_data, i.tags, i.notes,
	       i.added_by_id, u.display_name, u.avatar_url, u.organization,
	       i.created_at, i.updated_at
	FROM shared_list_items i
	JOIN users u ON u.id = i.added_by_id`

func scanSharedListItem(row scanner) (*domain.SharedListItem, error) {
	var (
		item      domain.SharedListItem
		itemType  string
		itemData  string
		tags      string
		notes     sql.NullString
		avatar    sql.NullString
		org       sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&item.ID, &item.SharedListID, &itemType, &itemData, &tags, &notes,
		&item.AddedBy.ID, &item.AddedBy.DisplayName, &avatar, &org,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.AddedBy.Avatar = avatar.String
	item.AddedBy.Organization = org.String

	if item.ItemContent, err = decodeContent(itemType, itemData, tags, notes); err != nil {
		return nil, fmt.Errorf("shared list item %s: %w", item.ID, err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateSharedListItem attaches an item to a list.
func (s *Store) CreateSharedListItem(ctx context.Context, item *domain.SharedListItem) error {
	data, tags, err := encodeContent(&item.ItemContent)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shared_list_items (
			id, shared_list_id, item_type, item_data, tags, notes, added_by_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SharedListID, string(item.ItemType), data, tags, nullString(item.Notes),
		item.AddedBy.ID, formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
	)
	return mapErr(err)
}

// GetSharedListItem retrieves an item scoped to its list.
func (s *Store) GetSharedListItem(ctx context.Context, listID, itemID string) (*domain.SharedListItem, error) {
	item, err := scanSharedListItem(s.db.QueryRowContext(ctx,
		itemSelect+` WHERE i.shared_list_id = ? AND i.id = ?`, listID, itemID))
	if err != nil {
		return nil, mapErr(err)
	}
	return item, nil
}

// ListSharedListItems returns the items attached to listID in insertion order.
func (s *Store) ListSharedListItems(ctx context.Context, listID string) ([]*domain.SharedListItem, error) {
	rows, err := s.db.QueryContext(ctx,
		itemSelect+` WHERE i.shared_list_id = ? ORDER BY i.created_at, i.id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.SharedListItem
	for rows.Next() {
		item, err := scanSharedListItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateSharedListItem applies mutate to the current item inside one transaction.
func (s *Store) UpdateSharedListItem(ctx context.Context, listID, itemID string, mutate func(*domain.SharedListItem) error) (*domain.SharedListItem, error) {
	var updated *domain.SharedListItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		item, err := scanSharedListItem(tx.QueryRowContext(ctx,
			itemSelect+` WHERE i.shared_list_id = ? AND i.id = ?`, listID, itemID))
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
			UPDATE shared_list_items SET item_data = ?, tags = ?, notes = ?, updated_at = ?
			WHERE shared_list_id = ? AND id = ?`,
			data, tags, nullString(item.Notes), formatTime(item.UpdatedAt), listID, itemID)
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

// DeleteSharedListItem removes an item from a list.
func (s *Store) DeleteSharedListItem(ctx context.Context, listID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shared_list_items WHERE shared_list_id = ? AND id = ?`, listID, itemID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

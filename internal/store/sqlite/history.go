package sqlite

import (
	"context"
	"database/sql"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/store"
)

const historyColumns = `id, shared_list_id, actor_id, action, item_id, item_name, field, old_value, new_value, created_at`

func scanHistory(row scanner) (*domain.EditHistoryRecord, error) {
	var (
		rec       domain.EditHistoryRecord
		action    string
		itemID    sql.NullString
		itemName  sql.NullString
		field     sql.NullString
		oldValue  sql.NullString
		newValue  sql.NullString
		createdAt string
	)
	err := row.Scan(&rec.ID, &rec.SharedListID, &rec.ActorID, &action,
		&itemID, &itemName, &field, &oldValue, &newValue, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Action = domain.HistoryAction(action)
	rec.ItemID = itemID.String
	rec.ItemName = itemName.String
	rec.Field = field.String
	rec.OldValue = oldValue.String
	rec.NewValue = newValue.String
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendHistory inserts one audit record. Records are never updated.
func (s *Store) AppendHistory(ctx context.Context, rec *domain.EditHistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edit_history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SharedListID, rec.ActorID, string(rec.Action),
		nullString(rec.ItemID), nullString(rec.ItemName), nullString(rec.Field),
		nullString(rec.OldValue), nullString(rec.NewValue), formatTime(rec.CreatedAt),
	)
	return mapErr(err)
}

// ListHistory pages through a list's history, newest first. Record IDs are
// time-sortable, so the cursor is simply the last ID of the previous page.
func (s *Store) ListHistory(ctx context.Context, listID string, params store.PaginationParams) (*store.PaginatedResult[*domain.EditHistoryRecord], error) {
	params.Validate()

	before, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + historyColumns + ` FROM edit_history WHERE shared_list_id = ?`
	args := []any{listID}
	if before != "" {
		query += ` AND id < ?`
		args = append(args, before)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, params.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.EditHistoryRecord, 0, params.Limit+1)
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.EditHistoryRecord]{Items: records}
	if len(records) > params.Limit {
		result.Items = records[:params.Limit]
		result.HasMore = true
		result.NextCursor = store.EncodeCursor(result.Items[len(result.Items)-1].ID)
	}
	if params.Cursor == "" {
		if result.Total, err = s.CountHistory(ctx, listID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CountHistory returns the number of records for listID.
func (s *Store) CountHistory(ctx context.Context, listID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM edit_history WHERE shared_list_id = ?`, listID).Scan(&n)
	return n, err
}

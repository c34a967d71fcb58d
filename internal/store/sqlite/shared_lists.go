package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/store"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// listSelect must match the scan order in scanSharedList.
const listSelect = `
	SELECT l.id, l.share_token, l.owner_id, u.display_name, u.avatar_url, u.organization,
	       l.title, l.description, l.tag_filter, l.visibility, l.edit_permission,
	       l.view_count, l.created_at, l.updated_at
	FROM shared_lists l
	JOIN users u ON u.id = l.owner_id`

func scanSharedList(row scanner) (*domain.SharedList, error) {
	var (
		l              domain.SharedList
		ownerAvatar    sql.NullString
		ownerOrg       sql.NullString
		description    sql.NullString
		tagFilter      string
		visibility     string
		editPermission string
		createdAt      string
		updatedAt      string
	)
	err := row.Scan(
		&l.ID, &l.ShareToken, &l.OwnerID, &l.Owner.DisplayName, &ownerAvatar, &ownerOrg,
		&l.Title, &description, &tagFilter, &visibility, &editPermission,
		&l.ViewCount, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Owner.ID = l.OwnerID
	l.Owner.Avatar = ownerAvatar.String
	l.Owner.Organization = ownerOrg.String
	l.Description = description.String
	l.Visibility = domain.Visibility(visibility)
	l.EditPermission = domain.EditPermission(editPermission)
	l.InviteRoster = []domain.IdentityRef{}

	if l.TagFilter, err = decodeTags(tagFilter); err != nil {
		return nil, fmt.Errorf("shared list %s: %w", l.ID, err)
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateSharedList inserts a list. Returns store.ErrAlreadyExists when the
// ID or share token is taken.
func (s *Store) CreateSharedList(ctx context.Context, list *domain.SharedList) error {
	tagFilter, err := encodeTags(list.TagFilter)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO shared_lists (
			id, share_token, owner_id, title, description, tag_filter,
			visibility, edit_permission, view_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		list.ID, list.ShareToken, list.OwnerID, list.Title, nullString(list.Description), tagFilter,
		string(list.Visibility), string(list.EditPermission),
		formatTime(list.CreatedAt), formatTime(list.UpdatedAt),
	)
	return mapErr(err)
}

// GetSharedList retrieves a list and its roster by internal ID.
func (s *Store) GetSharedList(ctx context.Context, id string) (*domain.SharedList, error) {
	return s.getSharedList(ctx, s.db, listSelect+` WHERE l.id = ?`, id)
}

// GetSharedListByToken retrieves a list and its roster by share token.
func (s *Store) GetSharedListByToken(ctx context.Context, token string) (*domain.SharedList, error) {
	return s.getSharedList(ctx, s.db, listSelect+` WHERE l.share_token = ?`, token)
}

func (s *Store) getSharedList(ctx context.Context, q querier, query string, arg string) (*domain.SharedList, error) {
	list, err := scanSharedList(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, mapErr(err)
	}
	if err := s.loadRosters(ctx, q, []*domain.SharedList{list}); err != nil {
		return nil, err
	}
	return list, nil
}

// ListSharedListsByOwner returns the lists owned by ownerID, newest first.
func (s *Store) ListSharedListsByOwner(ctx context.Context, ownerID string) ([]*domain.SharedList, error) {
	return s.querySharedLists(ctx, listSelect+`
		WHERE l.owner_id = ?
		ORDER BY l.created_at DESC, l.id DESC`, ownerID)
}

// ListSharedListsForMember returns the lists whose roster includes userID, newest first.
func (s *Store) ListSharedListsForMember(ctx context.Context, userID string) ([]*domain.SharedList, error) {
	return s.querySharedLists(ctx, listSelect+`
		JOIN shared_list_roster r ON r.list_id = l.id
		WHERE r.user_id = ?
		ORDER BY l.created_at DESC, l.id DESC`, userID)
}

// ListPublicSharedLists pages through public lists, newest first.
// The cursor is the "created_at|id" of the last list on the previous page.
func (s *Store) ListPublicSharedLists(ctx context.Context, params store.PaginationParams) (*store.PaginatedResult[*domain.SharedList], error) {
	params.Validate()

	after, err := store.DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := listSelect + ` WHERE l.visibility = 'public'`
	args := []any{}
	if after != "" {
		createdAt, id, ok := strings.Cut(after, "|")
		if !ok {
			return nil, fmt.Errorf("invalid cursor")
		}
		query += ` AND (l.created_at < ? OR (l.created_at = ? AND l.id < ?))`
		args = append(args, createdAt, createdAt, id)
	}
	query += ` ORDER BY l.created_at DESC, l.id DESC LIMIT ?`
	args = append(args, params.Limit+1)

	lists, err := s.querySharedLists(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	result := &store.PaginatedResult[*domain.SharedList]{Items: lists}
	if len(lists) > params.Limit {
		result.Items = lists[:params.Limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = store.EncodeCursor(formatTime(last.CreatedAt) + "|" + last.ID)
	}
	return result, nil
}

func (s *Store) querySharedLists(ctx context.Context, query string, args ...any) ([]*domain.SharedList, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []*domain.SharedList
	for rows.Next() {
		l, err := scanSharedList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadRosters(ctx, s.db, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// loadRosters fills InviteRoster for every list in one query.
func (s *Store) loadRosters(ctx context.Context, q querier, lists []*domain.SharedList) error {
	if len(lists) == 0 {
		return nil
	}
	byID := make(map[string]*domain.SharedList, len(lists))
	args := make([]any, 0, len(lists))
	for _, l := range lists {
		byID[l.ID] = l
		args = append(args, l.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT r.list_id, u.id, u.display_name, u.avatar_url, u.organization
		FROM shared_list_roster r
		JOIN users u ON u.id = r.user_id
		WHERE r.list_id IN (`+placeholders(len(args))+`)
		ORDER BY r.added_at, u.id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			listID string
			ref    domain.IdentityRef
			avatar sql.NullString
			org    sql.NullString
		)
		if err := rows.Scan(&listID, &ref.ID, &ref.DisplayName, &avatar, &org); err != nil {
			return err
		}
		ref.Avatar = avatar.String
		ref.Organization = org.String
		if l := byID[listID]; l != nil {
			l.InviteRoster = append(l.InviteRoster, ref)
		}
	}
	return rows.Err()
}

// UpdateSharedList applies mutate to the current list inside one transaction.
// Only metadata columns are written; the roster and view count are untouched.
func (s *Store) UpdateSharedList(ctx context.Context, id string, mutate func(*domain.SharedList) error) (*domain.SharedList, error) {
	var updated *domain.SharedList
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		list, err := s.getSharedList(ctx, tx, listSelect+` WHERE l.id = ?`, id)
		if err != nil {
			return err
		}
		if err := mutate(list); err != nil {
			return err
		}
		list.UpdatedAt = time.Now()

		tagFilter, err := json.Marshal(list.TagFilter)
		if err != nil {
			return fmt.Errorf("encode tag filter: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE shared_lists
			SET title = ?, description = ?, tag_filter = ?, visibility = ?, edit_permission = ?, updated_at = ?
			WHERE id = ?`,
			list.Title, nullString(list.Description), string(tagFilter),
			string(list.Visibility), string(list.EditPermission), formatTime(list.UpdatedAt), id)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		updated = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddRosterMember adds userID to the list's roster. Adding an existing
// member is a no-op that reports added=false.
func (s *Store) AddRosterMember(ctx context.Context, listID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO shared_list_roster (list_id, user_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (list_id, user_id) DO NOTHING`,
		listID, userID, formatTime(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return false, store.ErrNotFound
		}
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveRosterMember removes userID from the roster. Removing a non-member
// reports removed=false.
func (s *Store) RemoveRosterMember(ctx context.Context, listID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM shared_list_roster WHERE list_id = ? AND user_id = ?`, listID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IncrementViewCount atomically bumps the view counter and returns the new value.
func (s *Store) IncrementViewCount(ctx context.Context, listID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE shared_lists SET view_count = view_count + 1 WHERE id = ? RETURNING view_count`,
		listID).Scan(&count)
	if err != nil {
		return 0, mapErr(err)
	}
	return count, nil
}

// DeleteSharedList deletes a list; items, roster and history cascade.
func (s *Store) DeleteSharedList(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM shared_lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

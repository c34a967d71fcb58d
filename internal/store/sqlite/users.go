package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/listkeep/listkeep-server/internal/domain"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, display_name, avatar_url, organization, password_hash, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u            domain.User
		avatar       sql.NullString
		organization sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &avatar, &organization, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.AvatarURL = avatar.String
	u.Organization = organization.String

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the ID or email (case-insensitive) is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		strings.TrimSpace(user.Email),
		user.DisplayName,
		nullString(user.AvatarURL),
		nullString(user.Organization),
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapErr(err)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, ignoring case and surrounding space.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, strings.TrimSpace(email)))
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

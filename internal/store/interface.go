// Package store defines the persistence interface for the listkeep server.
package store

import (
	"context"

	"github.com/listkeep/listkeep-server/internal/domain"
)

// Store defines the interface for all relational persistence operations.
//
// Update methods run mutate inside a single write transaction against the
// freshly read row, so concurrent field edits serialize as last-write-wins
// without losing sibling fields. If mutate returns an error nothing is written
// and that error is returned unchanged.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Personal collection
	CreateSavedItem(ctx context.Context, item *domain.SavedItem) error
	GetSavedItem(ctx context.Context, id string) (*domain.SavedItem, error)
	ListSavedItems(ctx context.Context, ownerID string) ([]*domain.SavedItem, error)
	ListSavedItemsByTags(ctx context.Context, ownerID string, tags []string) ([]*domain.SavedItem, error)
	UpdateSavedItem(ctx context.Context, id string, mutate func(*domain.SavedItem) error) (*domain.SavedItem, error)
	DeleteSavedItem(ctx context.Context, id string) error

	// Shared lists
	CreateSharedList(ctx context.Context, list *domain.SharedList) error
	GetSharedList(ctx context.Context, id string) (*domain.SharedList, error)
	GetSharedListByToken(ctx context.Context, token string) (*domain.SharedList, error)
	ListSharedListsByOwner(ctx context.Context, ownerID string) ([]*domain.SharedList, error)
	ListSharedListsForMember(ctx context.Context, userID string) ([]*domain.SharedList, error)
	ListPublicSharedLists(ctx context.Context, params PaginationParams) (*PaginatedResult[*domain.SharedList], error)
	UpdateSharedList(ctx context.Context, id string, mutate func(*domain.SharedList) error) (*domain.SharedList, error)
	AddRosterMember(ctx context.Context, listID, userID string) (added bool, err error)
	RemoveRosterMember(ctx context.Context, listID, userID string) (removed bool, err error)
	IncrementViewCount(ctx context.Context, listID string) (int64, error)
	DeleteSharedList(ctx context.Context, id string) error

	// Shared list items
	CreateSharedListItem(ctx context.Context, item *domain.SharedListItem) error
	GetSharedListItem(ctx context.Context, listID, itemID string) (*domain.SharedListItem, error)
	ListSharedListItems(ctx context.Context, listID string) ([]*domain.SharedListItem, error)
	UpdateSharedListItem(ctx context.Context, listID, itemID string, mutate func(*domain.SharedListItem) error) (*domain.SharedListItem, error)
	DeleteSharedListItem(ctx context.Context, listID, itemID string) error

	// Edit history (append-only)
	AppendHistory(ctx context.Context, rec *domain.EditHistoryRecord) error
	ListHistory(ctx context.Context, listID string, params PaginationParams) (*PaginatedResult[*domain.EditHistoryRecord], error)
	CountHistory(ctx context.Context, listID string) (int, error)
}

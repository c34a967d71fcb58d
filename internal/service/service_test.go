package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/auth"
	"github.com/listkeep/listkeep-server/internal/catalog"
	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/id"
	"github.com/listkeep/listkeep-server/internal/merge"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/notify"
	"github.com/listkeep/listkeep-server/internal/search"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/store/sqlite"
)

// recordingNotifier remembers invitations and optionally fails.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Invitation
	err  error
}

func (n *recordingNotifier) NotifyInvited(_ context.Context, inv notify.Invitation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, inv)
	return n.err
}

type testEnv struct {
	store     store.Store
	metrics   *metrics.Metrics
	notifier  *recordingNotifier
	catalog   *catalog.Catalog
	auth      *AuthService
	saved     *SavedService
	lists     *SharedListService
	invites   *InvitationService
	mutations *MutationService
}

// setupTest wires every service against a temp-dir database, an in-memory
// Badger view tracker and an in-memory catalog.
func setupTest(t *testing.T) *testEnv {
	t.Helper()
	return setupTestWithStore(t, nil)
}

// setupTestWithStore lets a test wrap the real store, e.g. to inject failures.
func setupTestWithStore(t *testing.T, wrap func(store.Store) store.Store) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var s store.Store = db
	if wrap != nil {
		s = wrap(db)
	}

	kv, err := store.OpenInMemoryKV(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	index, err := search.NewSearchIndex(search.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	cat, err := catalog.New(kv, index, 100, nil)
	require.NoError(t, err)
	t.Cleanup(cat.Close)

	tokens, err := auth.NewTokenService([]byte(strings.Repeat("k", 32)), time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	m := metrics.New()
	notifier := &recordingNotifier{}
	invites := NewInvitationService(s, notifier, "https://listkeep.test/", m, logger)

	return &testEnv{
		store:     s,
		metrics:   m,
		notifier:  notifier,
		catalog:   cat,
		auth:      NewAuthService(s, tokens, logger),
		saved:     NewSavedService(s, logger),
		lists:     NewSharedListService(s, store.NewViewTracker(kv, time.Minute), merge.Options{Locale: "en"}, m, logger),
		invites:   invites,
		mutations: NewMutationService(s, cat, invites, m, logger),
	}
}

// createUser inserts an identity directly and returns its reference.
func createUser(t *testing.T, env *testEnv, name string) *domain.IdentityRef {
	t.Helper()

	userID, err := id.Generate("user")
	require.NoError(t, err)

	now := time.Now().UTC()
	user := &domain.User{
		ID:           userID,
		Email:        strings.ToLower(name) + "@example.com",
		DisplayName:  name,
		PasswordHash: "unused",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, env.store.CreateUser(context.Background(), user))

	ref := user.Ref()
	return &ref
}

func orgData(name string, rating float64, founded string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"name":%q,"average_rating":%v,"founded":%q}`, name, rating, founded))
}

// saveOrg bookmarks an organization for owner.
func saveOrg(t *testing.T, env *testEnv, owner *domain.IdentityRef, name string, rating float64, tags ...string) *domain.SavedItem {
	t.Helper()

	item, err := env.saved.Create(context.Background(), owner.ID, ItemInput{
		ItemType: string(domain.ItemTypeOrganization),
		ItemData: orgData(name, rating, ""),
		Tags:     tags,
	})
	require.NoError(t, err)
	return item
}

// createList publishes a list filtered on tags.
func createList(t *testing.T, env *testEnv, owner *domain.IdentityRef, visibility domain.Visibility, perm domain.EditPermission, tags ...string) *domain.SharedList {
	t.Helper()

	list, err := env.lists.Create(context.Background(), owner, CreateListRequest{
		Title:          "Fintech picks",
		TagFilter:      tags,
		Visibility:     string(visibility),
		EditPermission: string(perm),
	})
	require.NoError(t, err)
	return list
}

// addShared attaches an organization to list as actor.
func addShared(t *testing.T, env *testEnv, actor *domain.IdentityRef, list *domain.SharedList, name string) *domain.SharedListItem {
	t.Helper()

	item, err := env.mutations.AddItem(context.Background(), actor, list.ShareToken, AddItemRequest{
		ItemType: string(domain.ItemTypeOrganization),
		ItemData: orgData(name, 4, "2015"),
	})
	require.NoError(t, err)
	return item
}

// history returns every record for list, newest first.
func history(t *testing.T, env *testEnv, list *domain.SharedList) []*domain.EditHistoryRecord {
	t.Helper()

	page, err := env.store.ListHistory(context.Background(), list.ID, store.PaginationParams{Limit: 1000})
	require.NoError(t, err)
	return page.Items
}

// failingHistory rejects every audit append.
type failingHistory struct {
	store.Store
}

var errAuditDown = errors.New("audit store down")

func (failingHistory) AppendHistory(context.Context, *domain.EditHistoryRecord) error {
	return errAuditDown
}

func ptr[T any](v T) *T { return &v }

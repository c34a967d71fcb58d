package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/auth"
	"github.com/listkeep/listkeep-server/internal/catalog"
	"github.com/listkeep/listkeep-server/internal/merge"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/notify"
	"github.com/listkeep/listkeep-server/internal/search"
	"github.com/listkeep/listkeep-server/internal/service"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/store/sqlite"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api     humatest.TestAPI
	store   store.Store
	catalog *catalog.Catalog
}

// testEnvelope mirrors Envelope with typed data for decoding responses.
type testEnvelope[T any] struct {
	V       int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWith(t, nil)
}

func setupTestServerWith(t *testing.T, configure func(*Options)) *testServer {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

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
	invitations := service.NewInvitationService(db, notify.NewLogNotifier(logger), "https://listkeep.test", m, logger)

	services := &Services{
		Auth:        service.NewAuthService(db, tokens, logger),
		Saved:       service.NewSavedService(db, logger),
		Lists:       service.NewSharedListService(db, store.NewViewTracker(kv, time.Minute), merge.Options{Locale: "en"}, m, logger),
		Invitations: invitations,
		Mutations:   service.NewMutationService(db, cat, invitations, m, logger),
		Catalog:     cat,
	}

	opts := Options{
		Metrics:      m,
		HealthChecks: map[string]Pinger{"database": db},
	}
	if configure != nil {
		configure(&opts)
	}

	server := NewServer(services, opts, logger)
	return &testServer{
		Server:  server,
		api:     humatest.Wrap(t, server.API()),
		store:   db,
		catalog: cat,
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()

	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), "body: %s", resp.Body.String())
	require.Equal(t, EnvelopeVersion, env.V)
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// registered is an identity created through the API.
type registered struct {
	ID    string
	Token string
}

func (ts *testServer) register(t *testing.T, name string) registered {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        strings.ToLower(name) + "@example.com",
		"password":     "correct horse battery",
		"display_name": name,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[service.AuthResponse](t, resp)
	return registered{ID: env.Data.User.ID, Token: env.Data.AccessToken}
}

func (ts *testServer) save(t *testing.T, who registered, name string, tags ...string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/saved", bearer(who.Token), map[string]any{
		"item_type": "organization",
		"item_data": map[string]any{"name": name, "average_rating": 4.5},
		"tags":      tags,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func (ts *testServer) createList(t *testing.T, owner registered, visibility, perm string, tags ...string) ListResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/lists", bearer(owner.Token), map[string]any{
		"title":           "Fintech picks",
		"tag_filter":      tags,
		"visibility":      visibility,
		"edit_permission": perm,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[ListResponse](t, resp).Data
}

// testItem decodes a displayed or saved item; item_data stays untyped.
type testItem struct {
	ID         string         `json:"id"`
	Provenance string         `json:"provenance"`
	ItemType   string         `json:"item_type"`
	ItemData   map[string]any `json:"item_data"`
	Tags       []string       `json:"tags"`
	Notes      string         `json:"notes"`
	AddedBy    map[string]any `json:"added_by"`
}

func (i testItem) name() string {
	name, _ := i.ItemData["name"].(string)
	return name
}

type testListView struct {
	List         map[string]any   `json:"list"`
	AccessTier   string           `json:"access_tier"`
	Items        []testItem       `json:"items"`
	InviteRoster []map[string]any `json:"invite_roster"`
}

func (v testListView) item(t *testing.T, name string) testItem {
	t.Helper()
	for _, it := range v.Items {
		if it.name() == name {
			return it
		}
	}
	t.Fatalf("item %q not in list view", name)
	return testItem{}
}

func (ts *testServer) viewList(t *testing.T, token string, args ...any) testListView {
	t.Helper()

	resp := ts.api.Get("/api/v1/lists/"+token, args...)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[testListView](t, resp).Data
}


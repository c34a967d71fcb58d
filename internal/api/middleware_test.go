package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/ratelimit"
)

func TestRateLimit_AuthEndpoints(t *testing.T) {
	limiter := ratelimit.New(0.001, 1)
	t.Cleanup(limiter.Stop)
	ts := setupTestServerWith(t, func(o *Options) { o.AuthLimiter = limiter })

	login := map[string]any{"email": "nobody@example.com", "password": "whatever it is"}
	resp := ts.api.Post("/api/v1/auth/login", login)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", login)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)
}

func TestRateLimit_AnonymousViewsOnly(t *testing.T) {
	limiter := ratelimit.New(0.001, 1)
	t.Cleanup(limiter.Stop)
	ts := setupTestServerWith(t, func(o *Options) { o.ViewLimiter = limiter })

	owner := ts.register(t, "Owner")
	list := ts.createList(t, owner, "public", "owner_only", "fintech")

	ts.viewList(t, list.ShareToken)
	resp := ts.api.Get("/api/v1/lists/" + list.ShareToken)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	for range 3 {
		ts.viewList(t, list.ShareToken, bearer(owner.Token))
	}
}

func TestViewerCookie_Attributes(t *testing.T) {
	ts := setupTestServerWith(t, func(o *Options) { o.SecureCookies = true })
	owner := ts.register(t, "Owner")
	list := ts.createList(t, owner, "public", "owner_only", "fintech")

	resp := ts.api.Get("/api/v1/lists/" + list.ShareToken)
	require.Equal(t, http.StatusOK, resp.Code)
	cookies := resp.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, viewerCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	resp = ts.api.Get("/api/v1/lists/"+list.ShareToken, "Cookie: "+viewerCookieName+"=not-a-uuid")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.Result().Cookies(), 1, "an invalid cookie is replaced")

	resp = ts.api.Get("/api/v1/lists/"+list.ShareToken, bearer(owner.Token))
	require.Equal(t, http.StatusOK, resp.Code)
}

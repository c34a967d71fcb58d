package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/samber/do/v2"

	"github.com/listkeep/listkeep-server/internal/api"
	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/ratelimit"
	"github.com/listkeep/listkeep-server/internal/service"
)

// shutdownTimeout bounds the wait for in-flight requests on shutdown.
const shutdownTimeout = 30 * time.Second

// Names of the keyed rate limiters in the container.
const (
	AuthLimiterName = "ratelimit.auth"
	ViewLimiterName = "ratelimit.views"
)

// ProvideAuthLimiter provides the per-IP limiter for credential endpoints.
func ProvideAuthLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.PerMinute(cfg.RateLimit.AuthPerMinute), nil
}

// ProvideViewLimiter provides the per-IP limiter for anonymous list fetches.
func ProvideViewLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.PerMinute(cfg.RateLimit.ViewsPerMinute), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	services := &api.Services{
		Auth:        do.MustInvoke[*service.AuthService](i),
		Saved:       do.MustInvoke[*service.SavedService](i),
		Lists:       do.MustInvoke[*service.SharedListService](i),
		Invitations: do.MustInvoke[*service.InvitationService](i),
		Mutations:   do.MustInvoke[*service.MutationService](i),
		Catalog:     catalogHandle.Catalog,
	}

	handler := api.NewServer(services, api.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		SecureCookies: strings.HasPrefix(cfg.Server.PublicURL, "https://"),
		AuthLimiter:   do.MustInvokeNamed[*ratelimit.KeyedRateLimiter](i, AuthLimiterName),
		ViewLimiter:   do.MustInvokeNamed[*ratelimit.KeyedRateLimiter](i, ViewLimiterName),
		Metrics:       m,
		HealthChecks:  map[string]api.Pinger{"database": storeHandle.Store},
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)

	return &HTTPServerHandle{Server: srv}, nil
}

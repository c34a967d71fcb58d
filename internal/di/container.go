// Package di provides dependency injection configuration for the listkeep server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listkeep/listkeep-server/internal/auth"
	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/di/providers"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/notify"
	"github.com/listkeep/listkeep-server/internal/ratelimit"
	"github.com/listkeep/listkeep-server/internal/service"
	"github.com/listkeep/listkeep-server/internal/store"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideKV)
	do.Provide(injector, providers.ProvideViewTracker)

	// Catalog
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideCatalog)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideNotifier)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideSavedService)
	do.Provide(injector, providers.ProvideSharedListService)
	do.Provide(injector, providers.ProvideInvitationService)
	do.Provide(injector, providers.ProvideMutationService)

	// Server
	do.ProvideNamed(injector, providers.AuthLimiterName, providers.ProvideAuthLimiter)
	do.ProvideNamed(injector, providers.ViewLimiterName, providers.ProvideViewLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.KVHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*store.ViewTracker](injector)
	if _, err := do.Invoke[*providers.CatalogHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[notify.Notifier](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.SavedService](injector)
	_ = do.MustInvoke[*service.SharedListService](injector)
	_ = do.MustInvoke[*service.InvitationService](injector)
	_ = do.MustInvoke[*service.MutationService](injector)

	// Server
	_ = do.MustInvokeNamed[*ratelimit.KeyedRateLimiter](injector, providers.AuthLimiterName)
	_ = do.MustInvokeNamed[*ratelimit.KeyedRateLimiter](injector, providers.ViewLimiterName)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}

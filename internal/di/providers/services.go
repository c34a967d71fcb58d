package providers

import (
	"github.com/samber/do/v2"

	"github.com/listkeep/listkeep-server/internal/auth"
	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/domain"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/merge"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/notify"
	"github.com/listkeep/listkeep-server/internal/service"
	"github.com/listkeep/listkeep-server/internal/store"
)

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideSavedService provides the personal collection service.
func ProvideSavedService(i do.Injector) (*service.SavedService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSavedService(storeHandle.Store, log.Logger), nil
}

// ProvideSharedListService provides list lifecycle and the merged read path.
func ProvideSharedListService(i do.Injector) (*service.SharedListService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	views := do.MustInvoke[*store.ViewTracker](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	order, _ := domain.ParseSortOrder(cfg.Lists.DefaultSort)
	defaults := merge.Options{Order: order, Locale: cfg.Lists.DefaultLocale}

	return service.NewSharedListService(storeHandle.Store, views, defaults, m, log.Logger), nil
}

// ProvideInvitationService provides invite roster management.
func ProvideInvitationService(i do.Injector) (*service.InvitationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifier := do.MustInvoke[notify.Notifier](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewInvitationService(storeHandle.Store, notifier, cfg.Server.PublicURL, m, log.Logger), nil
}

// ProvideMutationService provides collaborative edits and their audit trail.
func ProvideMutationService(i do.Injector) (*service.MutationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalogHandle := do.MustInvoke[*CatalogHandle](i)
	invitations := do.MustInvoke[*service.InvitationService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMutationService(storeHandle.Store, catalogHandle.Catalog, invitations, m, log.Logger), nil
}

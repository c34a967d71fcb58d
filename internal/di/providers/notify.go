package providers

import (
	"github.com/samber/do/v2"

	"github.com/listkeep/listkeep-server/internal/config"
	"github.com/listkeep/listkeep-server/internal/logger"
	"github.com/listkeep/listkeep-server/internal/notify"
)

// ProvideNotifier provides invitation delivery. Without a Resend API key
// invitations are only logged.
func ProvideNotifier(i do.Injector) (notify.Notifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Notify.ResendAPIKey == "" {
		log.Info("Invitation e-mail disabled, logging invitations instead")
		return notify.NewLogNotifier(log.Logger), nil
	}

	log.Info("Invitation e-mail enabled", "from", cfg.Notify.FromAddress)
	return notify.NewResendNotifier(cfg.Notify.ResendAPIKey, cfg.Notify.FromAddress), nil
}

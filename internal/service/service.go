// Package service provides the business logic layer for personal collections,
// shared lists, collaborative edits and invitations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/listkeep/listkeep-server/internal/access"
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/id"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/store"
)

// storeErr translates a store failure into a domain error. Domain errors
// returned from mutate closures pass through unchanged, as do cancellations.
func storeErr(err error, what string) error {
	var de *domainerrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(what + " already exists")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return domainerrors.Unavailable(err)
	}
}

// loadList resolves a share token to its list.
func loadList(ctx context.Context, s store.Store, token string) (*domain.SharedList, error) {
	if token == "" {
		return nil, domainerrors.NotFound("list not found")
	}
	list, err := s.GetSharedListByToken(ctx, token)
	if err != nil {
		return nil, storeErr(err, "list")
	}
	return list, nil
}

// auditor appends edit history records. Appends are best-effort: a failure
// is logged and counted but never undoes the write it describes.
type auditor struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newAuditor(s store.Store, m *metrics.Metrics, logger *slog.Logger) *auditor {
	return &auditor{store: s, metrics: m, logger: logger}
}

// record stamps rec and appends it. The append runs even when the request
// context has been cancelled, since the write it describes is already committed.
func (a *auditor) record(ctx context.Context, rec *domain.EditHistoryRecord) {
	now := time.Now().UTC()
	rec.ID = id.Sortable(now)
	rec.CreatedAt = now

	a.metrics.Mutations.WithLabelValues(string(rec.Action)).Inc()

	if err := a.store.AppendHistory(context.WithoutCancel(ctx), rec); err != nil {
		a.metrics.AuditFailures.Inc()
		a.logger.Error("audit append failed",
			"error", err,
			"list_id", rec.SharedListID,
			"actor_id", rec.ActorID,
			"action", rec.Action,
			"item_id", rec.ItemID,
			"field", rec.Field,
			"old_value", rec.OldValue,
			"new_value", rec.NewValue,
		)
	}
}

// denied counts an access denial and returns err.
func (a *auditor) denied(d access.Decision, err error) error {
	reason := d.Reason
	if reason == access.ReasonNone {
		reason = access.ReasonForbidden
	}
	a.metrics.AccessDenials.WithLabelValues(string(reason)).Inc()
	return err
}

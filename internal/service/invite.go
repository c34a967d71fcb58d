package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/listkeep/listkeep-server/internal/access"
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/metrics"
	"github.com/listkeep/listkeep-server/internal/notify"
	"github.com/listkeep/listkeep-server/internal/store"
	"github.com/listkeep/listkeep-server/internal/validation"
)

// InvitationService manages a list's invite roster. Invitees must already
// hold an account; there is no invite-by-email-to-unregistered flow.
type InvitationService struct {
	store     store.Store
	notifier  notify.Notifier
	publicURL string
	audit     *auditor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewInvitationService creates a new invitation service. publicURL is the
// base used to build share links in notifications.
func NewInvitationService(
	store store.Store,
	notifier notify.Notifier,
	publicURL string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *InvitationService {
	return &InvitationService{
		store:     store,
		notifier:  notifier,
		publicURL: strings.TrimRight(publicURL, "/"),
		audit:     newAuditor(store, m, logger),
		validator: validation.New(),
		logger:    logger,
	}
}

// InviteTarget names the identity to invite, by id or by e-mail address.
type InviteTarget struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
}

// Invite adds the target identity to the roster of the list behind token.
// Inviting a current member, or the owner, succeeds without change.
func (s *InvitationService) Invite(ctx context.Context, actor *domain.IdentityRef, token string, target InviteTarget) (*domain.IdentityRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(actor, list); err != nil {
		return nil, s.audit.denied(access.Decide(actor, list), err)
	}
	user, err := s.resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	return s.addMember(ctx, actor, list, user)
}

// Revoke removes userID from the roster. Removing a non-member is a no-op.
func (s *InvitationService) Revoke(ctx context.Context, actor *domain.IdentityRef, token, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list, err := loadList(ctx, s.store, token)
	if err != nil {
		return err
	}
	if err := access.RequireOwner(actor, list); err != nil {
		return s.audit.denied(access.Decide(actor, list), err)
	}
	return s.revoke(ctx, actor, list, userID)
}

// addMember adds an already resolved user to the roster. It assumes the
// owner check has passed.
func (s *InvitationService) addMember(ctx context.Context, actor *domain.IdentityRef, list *domain.SharedList, user *domain.User) (*domain.IdentityRef, error) {
	ref := user.Ref()

	if list.IsOwner(user.ID) {
		return &ref, nil
	}

	added, err := s.store.AddRosterMember(ctx, list.ID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotRegistered("no account matches the invitation")
		}
		return nil, storeErr(err, "list")
	}
	if !added {
		return &ref, nil
	}

	s.audit.record(ctx, &domain.EditHistoryRecord{
		SharedListID: list.ID,
		ActorID:      actor.ID,
		Action:       domain.ActionUpdateSettings,
		Field:        string(domain.ListFieldInviteRoster),
		NewValue:     user.ID,
	})

	s.logger.Info("identity invited", "list_id", list.ID, "actor_id", actor.ID, "invitee_id", user.ID)

	inv := notify.Invitation{
		ListTitle: list.Title,
		ShareURL:  s.publicURL + "/lists/" + list.ShareToken,
		Inviter:   *actor,
		Invitee:   user,
	}
	if err := s.notifier.NotifyInvited(context.WithoutCancel(ctx), inv); err != nil {
		s.audit.metrics.InvitationsFailed.Inc()
		s.logger.Error("invitation notification failed",
			"error", err,
			"list_id", list.ID,
			"invitee_id", user.ID,
		)
	}
	return &ref, nil
}

// revoke assumes the owner check has passed.
func (s *InvitationService) revoke(ctx context.Context, actor *domain.IdentityRef, list *domain.SharedList, userID string) error {
	if userID == "" {
		return domainerrors.ValidationWithDetails("user id is required", map[string]string{"user_id": "is required"})
	}
	removed, err := s.store.RemoveRosterMember(ctx, list.ID, userID)
	if err != nil {
		return storeErr(err, "list")
	}
	if !removed {
		return nil
	}

	s.audit.record(ctx, &domain.EditHistoryRecord{
		SharedListID: list.ID,
		ActorID:      actor.ID,
		Action:       domain.ActionUpdateSettings,
		Field:        string(domain.ListFieldInviteRoster),
		OldValue:     userID,
	})

	s.logger.Info("invitation revoked", "list_id", list.ID, "actor_id", actor.ID, "user_id", userID)
	return nil
}

func (s *InvitationService) resolve(ctx context.Context, target InviteTarget) (*domain.User, error) {
	if err := s.validator.Validate(target); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(target.UserID)
	email := normalizeEmail(target.Email)
	if (userID == "") == (email == "") {
		return nil, domainerrors.ValidationWithDetails("exactly one of user_id or email is required",
			map[string]string{"user_id": "set user_id or email, not both"})
	}

	var (
		user *domain.User
		err  error
	)
	if userID != "" {
		user, err = s.store.GetUser(ctx, userID)
	} else {
		user, err = s.store.GetUserByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotRegistered("no account matches the invitation")
		}
		return nil, storeErr(err, "user")
	}
	return user, nil
}

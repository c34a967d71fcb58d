package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

func TestInvite_ByEmailIsIdempotent(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := createUser(t, env, "Owner")
	member := createUser(t, env, "Member")
	list := createList(t, env, owner, domain.VisibilityInvitedOnly, domain.EditOwnerOnly, "fintech")

	for range 2 {
		ref, err := env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{Email: "MEMBER@example.com"})
		require.NoError(t, err)
		assert.Equal(t, member.ID, ref.ID)
	}

	stored, err := env.store.GetSharedList(ctx, list.ID)
	require.NoError(t, err)
	require.Len(t, stored.InviteRoster, 1)
	assert.Equal(t, member.ID, stored.InviteRoster[0].ID)

	records := history(t, env, list)
	require.Len(t, records, 1, "only the roster change is recorded")
	assert.Equal(t, domain.ActionUpdateSettings, records[0].Action)
	assert.Equal(t, "invite_roster", records[0].Field)

	require.Len(t, env.notifier.sent, 1)
	sent := env.notifier.sent[0]
	assert.Equal(t, "https://listkeep.test/lists/"+list.ShareToken, sent.ShareURL)
	assert.Equal(t, owner.ID, sent.Inviter.ID)
	assert.Equal(t, member.ID, sent.Invitee.ID)
}

func TestInvite_Targets(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := createUser(t, env, "Owner")
	list := createList(t, env, owner, domain.VisibilityInvitedOnly, domain.EditOwnerOnly, "fintech")

	_, err := env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, domainerrors.ErrNotRegistered)

	_, err = env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{UserID: "user-missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotRegistered)

	_, err = env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{UserID: owner.ID, Email: "owner@example.com"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{Email: "not-an-email"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	ref, err := env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{UserID: owner.ID})
	require.NoError(t, err, "inviting the owner is a no-op")
	assert.Equal(t, owner.ID, ref.ID)

	stored, err := env.store.GetSharedList(ctx, list.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.InviteRoster)
	assert.Empty(t, history(t, env, list))
	assert.Empty(t, env.notifier.sent)
}

func TestInvite_OwnerOnly(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := createUser(t, env, "Owner")
	editor := createUser(t, env, "Editor")
	other := createUser(t, env, "Other")
	list := createList(t, env, owner, domain.VisibilityPublic, domain.EditAnyone, "fintech")

	_, err := env.invites.Invite(ctx, editor, list.ShareToken, InviteTarget{UserID: other.ID})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.invites.Invite(ctx, nil, list.ShareToken, InviteTarget{UserID: other.ID})
	assert.ErrorIs(t, err, domainerrors.ErrRequiresLogin)

	assert.ErrorIs(t, env.invites.Revoke(ctx, editor, list.ShareToken, other.ID), domainerrors.ErrForbidden)
}

func TestInvite_NotificationFailureIsLogged(t *testing.T) {
	env := setupTest(t)
	env.notifier.err = errors.New("mail relay down")
	ctx := context.Background()
	owner := createUser(t, env, "Owner")
	member := createUser(t, env, "Member")
	list := createList(t, env, owner, domain.VisibilityInvitedOnly, domain.EditOwnerOnly, "fintech")

	_, err := env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{UserID: member.ID})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InvitationsFailed))

	view, err := env.lists.View(ctx, member, "", list.ShareToken, ViewOptions{})
	require.NoError(t, err)
	assert.True(t, view.ShowRoster)
}

func TestRevoke(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	owner := createUser(t, env, "Owner")
	member := createUser(t, env, "Member")
	list := createList(t, env, owner, domain.VisibilityInvitedOnly, domain.EditOwnerOnly, "fintech")

	require.NoError(t, env.invites.Revoke(ctx, owner, list.ShareToken, member.ID), "revoking a non-member is a no-op")
	assert.Empty(t, history(t, env, list))

	_, err := env.invites.Invite(ctx, owner, list.ShareToken, InviteTarget{UserID: member.ID})
	require.NoError(t, err)
	require.NoError(t, env.invites.Revoke(ctx, owner, list.ShareToken, member.ID))

	_, err = env.lists.View(ctx, member, "", list.ShareToken, ViewOptions{})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	records := history(t, env, list)
	require.Len(t, records, 2)
	assert.Equal(t, member.ID, records[0].OldValue)
}

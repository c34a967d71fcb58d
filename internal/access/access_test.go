package access

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

var (
	owner    = &domain.IdentityRef{ID: "user-owner"}
	member   = &domain.IdentityRef{ID: "user-member"}
	stranger = &domain.IdentityRef{ID: "user-stranger"}
)

func list(v domain.Visibility, p domain.EditPermission) *domain.SharedList {
	return &domain.SharedList{
		ID:             "list-1",
		OwnerID:        owner.ID,
		TagFilter:      []string{"fintech"},
		Visibility:     v,
		EditPermission: p,
		InviteRoster:   []domain.IdentityRef{*member},
	}
}

func TestDecide_Matrix(t *testing.T) {
	type viewerCase struct {
		name   string
		viewer *domain.IdentityRef
	}
	viewers := []viewerCase{{"owner", owner}, {"member", member}, {"stranger", stranger}, {"anonymous", nil}}

	want := map[string]Decision{
		// invited_only
		"invited_only/owner_only/owner":     {Tier: Edit},
		"invited_only/owner_only/member":    {Tier: View},
		"invited_only/owner_only/stranger":  {Tier: Deny, Reason: ReasonForbidden},
		"invited_only/owner_only/anonymous": {Tier: Deny, Reason: ReasonRequiresLogin},
		"invited_only/anyone/owner":         {Tier: Edit},
		"invited_only/anyone/member":        {Tier: Edit},
		"invited_only/anyone/stranger":      {Tier: Deny, Reason: ReasonForbidden},
		"invited_only/anyone/anonymous":     {Tier: Deny, Reason: ReasonRequiresLogin},
		// link_only
		"link_only/owner_only/owner":     {Tier: Edit},
		"link_only/owner_only/member":    {Tier: View},
		"link_only/owner_only/stranger":  {Tier: View},
		"link_only/owner_only/anonymous": {Tier: View},
		"link_only/anyone/owner":         {Tier: Edit},
		"link_only/anyone/member":        {Tier: Edit},
		"link_only/anyone/stranger":      {Tier: Edit},
		"link_only/anyone/anonymous":     {Tier: View},
		// public
		"public/owner_only/owner":     {Tier: Edit},
		"public/owner_only/member":    {Tier: View},
		"public/owner_only/stranger":  {Tier: View},
		"public/owner_only/anonymous": {Tier: View},
		"public/anyone/owner":         {Tier: Edit},
		"public/anyone/member":        {Tier: Edit},
		"public/anyone/stranger":      {Tier: Edit},
		"public/anyone/anonymous":     {Tier: View},
	}

	for _, v := range []domain.Visibility{domain.VisibilityInvitedOnly, domain.VisibilityLinkOnly, domain.VisibilityPublic} {
		for _, p := range []domain.EditPermission{domain.EditOwnerOnly, domain.EditAnyone} {
			for _, vc := range viewers {
				key := fmt.Sprintf("%s/%s/%s", v, p, vc.name)
				t.Run(key, func(t *testing.T) {
					expected, ok := want[key]
					require.True(t, ok)
					assert.Equal(t, expected, Decide(vc.viewer, list(v, p)))
				})
			}
		}
	}
}

func TestDecide_OwnerAlwaysEdits(t *testing.T) {
	for _, v := range []domain.Visibility{domain.VisibilityInvitedOnly, domain.VisibilityLinkOnly, domain.VisibilityPublic, "bogus"} {
		for _, p := range []domain.EditPermission{domain.EditOwnerOnly, domain.EditAnyone} {
			l := list(v, p)
			l.InviteRoster = nil
			assert.Equal(t, Edit, Decide(owner, l).Tier, "%s/%s", v, p)
		}
	}
}

func TestDecide_UnknownVisibilityDenies(t *testing.T) {
	d := Decide(member, list("bogus", domain.EditAnyone))
	assert.Equal(t, Deny, d.Tier)
	assert.Equal(t, ReasonForbidden, d.Reason)
}

func TestRequireView(t *testing.T) {
	_, err := RequireView(nil, list(domain.VisibilityInvitedOnly, domain.EditAnyone))
	assert.ErrorIs(t, err, domainerrors.ErrRequiresLogin)

	_, err = RequireView(stranger, list(domain.VisibilityInvitedOnly, domain.EditAnyone))
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	d, err := RequireView(nil, list(domain.VisibilityLinkOnly, domain.EditOwnerOnly))
	require.NoError(t, err)
	assert.Equal(t, View, d.Tier)
}

func TestRequireEdit(t *testing.T) {
	_, err := RequireEdit(nil, list(domain.VisibilityPublic, domain.EditAnyone))
	assert.ErrorIs(t, err, domainerrors.ErrRequiresLogin, "anonymous never edits, even in wiki mode")

	_, err = RequireEdit(member, list(domain.VisibilityInvitedOnly, domain.EditOwnerOnly))
	assert.ErrorIs(t, err, domainerrors.ErrForbidden, "roster membership does not grant edit under owner_only")

	_, err = RequireEdit(stranger, list(domain.VisibilityLinkOnly, domain.EditOwnerOnly))
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = RequireEdit(stranger, list(domain.VisibilityLinkOnly, domain.EditAnyone))
	assert.NoError(t, err)
}

func TestRequireOwner(t *testing.T) {
	l := list(domain.VisibilityPublic, domain.EditAnyone)
	assert.NoError(t, RequireOwner(owner, l))
	assert.ErrorIs(t, RequireOwner(member, l), domainerrors.ErrForbidden, "edit rights never extend to governance")
	assert.ErrorIs(t, RequireOwner(nil, l), domainerrors.ErrRequiresLogin)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "edit", Edit.String())
	assert.Equal(t, "view", View.String())
	assert.Equal(t, "deny", Deny.String())
}

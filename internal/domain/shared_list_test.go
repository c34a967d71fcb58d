package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

func newList() *SharedList {
	return &SharedList{
		ID:             "list-1",
		OwnerID:        "user-owner",
		Title:          "Fintech picks",
		TagFilter:      []string{"fintech"},
		Visibility:     VisibilityLinkOnly,
		EditPermission: EditOwnerOnly,
		InviteRoster:   []IdentityRef{{ID: "user-a"}},
	}
}

func TestSharedList_Membership(t *testing.T) {
	l := newList()
	assert.True(t, l.IsOwner("user-owner"))
	assert.False(t, l.IsOwner(""))
	assert.True(t, l.HasMember("user-a"))
	assert.False(t, l.HasMember("user-owner"), "owner is implicit, not on the roster")
}

func TestSharedList_MatchesTags(t *testing.T) {
	l := newList()
	assert.True(t, l.MatchesTags([]string{"ai", "fintech"}))
	assert.False(t, l.MatchesTags([]string{"ai"}))
	assert.False(t, l.MatchesTags(nil))
}

func TestSharedList_SetField(t *testing.T) {
	l := newList()

	v, err := l.SetField(ListFieldVisibility, "public")
	require.NoError(t, err)
	assert.Equal(t, "public", v)
	assert.Equal(t, VisibilityPublic, l.Visibility)

	_, err = l.SetField(ListFieldEditPermission, "anyone")
	require.NoError(t, err)
	assert.Equal(t, EditAnyone, l.EditPermission)

	_, err = l.SetField(ListFieldTitle, "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, "Fintech picks", l.Title)

	_, err = l.SetField(ListFieldTags, " , !! ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation, "tag filter must stay non-empty")

	_, err = l.SetField(ListFieldVisibility, "secret")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = l.SetField(ListFieldInviteRoster, "user-b")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidField)

	_, err = l.SetField("owner_id", "user-b")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidField)
}

func TestSharedList_RosterField(t *testing.T) {
	l := newList()
	l.InviteRoster = append(l.InviteRoster, IdentityRef{ID: "user-b"})
	got, err := l.Field(ListFieldInviteRoster)
	require.NoError(t, err)
	assert.Equal(t, "user-a,user-b", got)
}

func TestActionForItemField(t *testing.T) {
	assert.Equal(t, ActionUpdateNotes, ActionForItemField(ItemFieldNotes))
	assert.Equal(t, ActionUpdateLogo, ActionForItemField(ItemFieldLogo))
	assert.Equal(t, ActionUpdateTags, ActionForItemField(ItemFieldTags))
	assert.Equal(t, ActionUpdateDescription, ActionForItemField(ItemFieldDescription))
}

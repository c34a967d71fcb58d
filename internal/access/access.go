// Package access decides what a requesting identity may do with a shared list.
// Decide is pure: it reads only its arguments and never touches storage.
package access

import (
	"github.com/listkeep/listkeep-server/internal/domain"
	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

// Tier is the access level granted on a list.
type Tier int

const (
	// Deny grants nothing.
	Deny Tier = iota
	// View allows reading the merged list.
	View
	// Edit allows content edits in addition to viewing.
	Edit
)

// String returns the wire name of the tier.
func (t Tier) String() string {
	switch t {
	case View:
		return "view"
	case Edit:
		return "edit"
	default:
		return "deny"
	}
}

// Reason explains a denial.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonRequiresLogin Reason = "requires_login"
	ReasonForbidden     Reason = "forbidden"
)

// Decision is the outcome of Decide.
type Decision struct {
	Tier   Tier
	Reason Reason
}

// CanView reports whether the decision allows viewing.
func (d Decision) CanView() bool { return d.Tier >= View }

// CanEdit reports whether the decision allows content edits.
func (d Decision) CanEdit() bool { return d.Tier == Edit }

// Decide maps a viewer (nil when anonymous) and a list to an access tier.
//
// Rules, first match wins:
//  1. The owner always gets Edit.
//  2. invited_only denies anyone off the roster; anonymous viewers are told to log in.
//  3. link_only and public allow anyone to view, anonymous included.
//  4. Known viewers get Edit when the list is in wiki mode (edit_permission=anyone).
//  5. Everyone else gets View.
func Decide(viewer *domain.IdentityRef, list *domain.SharedList) Decision {
	if viewer != nil && list.IsOwner(viewer.ID) {
		return Decision{Tier: Edit}
	}

	switch list.Visibility {
	case domain.VisibilityInvitedOnly:
		if viewer == nil {
			return Decision{Tier: Deny, Reason: ReasonRequiresLogin}
		}
		if !list.HasMember(viewer.ID) {
			return Decision{Tier: Deny, Reason: ReasonForbidden}
		}
	case domain.VisibilityLinkOnly, domain.VisibilityPublic:
	default:
		return Decision{Tier: Deny, Reason: ReasonForbidden}
	}

	if viewer != nil && list.EditPermission == domain.EditAnyone {
		return Decision{Tier: Edit}
	}
	return Decision{Tier: View}
}

// RequireView returns nil when the viewer may view list, or the domain error
// the caller should surface.
func RequireView(viewer *domain.IdentityRef, list *domain.SharedList) (Decision, error) {
	d := Decide(viewer, list)
	if d.CanView() {
		return d, nil
	}
	if d.Reason == ReasonRequiresLogin {
		return d, domainerrors.RequiresLogin("log in to view this list")
	}
	return d, domainerrors.Forbidden("you do not have access to this list")
}

// RequireEdit returns nil when the viewer may edit list content. Anonymous
// viewers are always asked to log in since edits need an attributable actor.
func RequireEdit(viewer *domain.IdentityRef, list *domain.SharedList) (Decision, error) {
	d := Decide(viewer, list)
	if d.CanEdit() {
		return d, nil
	}
	if viewer == nil {
		return Decision{Tier: d.Tier, Reason: ReasonRequiresLogin}, domainerrors.RequiresLogin("log in to edit this list")
	}
	if !d.CanView() {
		return d, domainerrors.Forbidden("you do not have access to this list")
	}
	return Decision{Tier: d.Tier, Reason: ReasonForbidden}, domainerrors.Forbidden("you cannot edit this list")
}

// RequireOwner guards governance actions: settings, invitations and deletion.
func RequireOwner(viewer *domain.IdentityRef, list *domain.SharedList) error {
	if viewer == nil {
		return domainerrors.RequiresLogin("log in to manage this list")
	}
	if !list.IsOwner(viewer.ID) {
		return domainerrors.Forbidden("only the list owner can change settings")
	}
	return nil
}

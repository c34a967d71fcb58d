package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
	"github.com/listkeep/listkeep-server/internal/util"
)

// Visibility controls who may view a shared list.
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityLinkOnly    Visibility = "link_only"
	VisibilityInvitedOnly Visibility = "invited_only"
)

// ParseVisibility converts a string to a Visibility.
func ParseVisibility(s string) (Visibility, bool) {
	switch v := Visibility(s); v {
	case VisibilityPublic, VisibilityLinkOnly, VisibilityInvitedOnly:
		return v, true
	default:
		return "", false
	}
}

// EditPermission controls who may edit content in a list they can view.
type EditPermission string

const (
	EditOwnerOnly EditPermission = "owner_only"
	// EditAnyone is wiki mode: any known identity that can view may edit.
	EditAnyone EditPermission = "anyone"
)

// ParseEditPermission converts a string to an EditPermission.
func ParseEditPermission(s string) (EditPermission, bool) {
	switch p := EditPermission(s); p {
	case EditOwnerOnly, EditAnyone:
		return p, true
	default:
		return "", false
	}
}

// SharedList is a published, access-controlled view over the owner's
// bookmarks plus items attached directly to the list.
type SharedList struct {
	ID             string         `json:"id"`
	ShareToken     string         `json:"share_token"`
	OwnerID        string         `json:"owner_id"`
	Owner          IdentityRef    `json:"owner"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	TagFilter      []string       `json:"tag_filter"`
	Visibility     Visibility     `json:"visibility"`
	EditPermission EditPermission `json:"edit_permission"`
	InviteRoster   []IdentityRef  `json:"invite_roster"`
	ViewCount      int64          `json:"view_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsOwner reports whether userID owns the list.
func (l *SharedList) IsOwner(userID string) bool {
	return userID != "" && l.OwnerID == userID
}

// HasMember reports whether userID is on the invite roster.
func (l *SharedList) HasMember(userID string) bool {
	return slices.ContainsFunc(l.InviteRoster, func(r IdentityRef) bool { return r.ID == userID })
}

// MatchesTags reports whether tags intersect the list's tag filter.
func (l *SharedList) MatchesTags(tags []string) bool {
	for _, t := range tags {
		if slices.Contains(l.TagFilter, t) {
			return true
		}
	}
	return false
}

// ListField names a list-level field. All of them are governance fields.
type ListField string

const (
	ListFieldTitle          ListField = "title"
	ListFieldDescription    ListField = "description"
	ListFieldTags           ListField = "tags"
	ListFieldVisibility     ListField = "visibility"
	ListFieldEditPermission ListField = "edit_permission"
	ListFieldInviteRoster   ListField = "invite_roster"
)

const (
	maxTitleLength           = 200
	maxListDescriptionLength = 2000
)

// Field returns the current string form of f.
func (l *SharedList) Field(f ListField) (string, error) {
	switch f {
	case ListFieldTitle:
		return l.Title, nil
	case ListFieldDescription:
		return l.Description, nil
	case ListFieldTags:
		return strings.Join(l.TagFilter, ","), nil
	case ListFieldVisibility:
		return string(l.Visibility), nil
	case ListFieldEditPermission:
		return string(l.EditPermission), nil
	case ListFieldInviteRoster:
		ids := make([]string, len(l.InviteRoster))
		for i, r := range l.InviteRoster {
			ids[i] = r.ID
		}
		return strings.Join(ids, ","), nil
	default:
		return "", domainerrors.InvalidFieldf("unknown list field %q", f)
	}
}

// SetField validates value and assigns it to f, returning the stored form.
// The roster is managed through invitations and cannot be set here.
func (l *SharedList) SetField(f ListField, value string) (string, error) {
	switch f {
	case ListFieldTitle:
		v := util.SanitizePlain(value)
		if v == "" {
			return "", domainerrors.ValidationWithDetails("title is required", map[string]string{"title": "is required"})
		}
		if utf8.RuneCountInString(v) > maxTitleLength {
			return "", fieldTooLong("title", maxTitleLength)
		}
		l.Title = v
		return v, nil
	case ListFieldDescription:
		v := util.SanitizeRich(value)
		if utf8.RuneCountInString(v) > maxListDescriptionLength {
			return "", fieldTooLong("description", maxListDescriptionLength)
		}
		l.Description = v
		return v, nil
	case ListFieldTags:
		tags := util.NormalizeTags(SplitTags(value))
		if len(tags) == 0 {
			return "", domainerrors.ValidationWithDetails("tag filter cannot be empty",
				map[string]string{"tag_filter": "must contain at least one tag"})
		}
		if len(tags) > maxTags {
			return "", domainerrors.ValidationWithDetails("too many tags",
				map[string]string{"tag_filter": fmt.Sprintf("must not exceed %d tags", maxTags)})
		}
		l.TagFilter = tags
		return strings.Join(tags, ","), nil
	case ListFieldVisibility:
		v, ok := ParseVisibility(value)
		if !ok {
			return "", domainerrors.ValidationWithDetails("invalid visibility",
				map[string]string{"visibility": "must be one of: public link_only invited_only"})
		}
		l.Visibility = v
		return string(v), nil
	case ListFieldEditPermission:
		p, ok := ParseEditPermission(value)
		if !ok {
			return "", domainerrors.ValidationWithDetails("invalid edit permission",
				map[string]string{"edit_permission": "must be one of: owner_only anyone"})
		}
		l.EditPermission = p
		return string(p), nil
	case ListFieldInviteRoster:
		return "", domainerrors.InvalidFieldf("roster changes go through invitations")
	default:
		return "", domainerrors.InvalidFieldf("unknown list field %q", f)
	}
}

// SharedListItem is an item attached directly to a shared list. Any editor
// of the list may change it, not only the identity that added it.
type SharedListItem struct {
	ItemContent
	ID           string      `json:"id"`
	SharedListID string      `json:"shared_list_id"`
	AddedBy      IdentityRef `json:"added_by"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

package domain

import "time"

// User is a registered identity. Shared lists only ever reference users
// through IdentityRef.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Organization string    `json:"organization,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Ref returns the public reference for this user.
func (u *User) Ref() IdentityRef {
	return IdentityRef{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		Avatar:       u.AvatarURL,
		Organization: u.Organization,
	}
}

// IdentityRef is an opaque principal reference: who added an item, who is on
// a roster, who owns a list.
type IdentityRef struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Avatar       string `json:"avatar,omitempty"`
	Organization string `json:"organization,omitempty"`
}

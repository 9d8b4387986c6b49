package domain

import "time"

// TokenPair is the access/refresh credential pair. Both halves are written
// and cleared together.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Empty reports whether no access token is present.
func (p TokenPair) Empty() bool { return p.AccessToken == "" }

// TokenClaims are the fields decoded from an access token payload without
// signature verification. They are a cache hint, never an authority.
type TokenClaims struct {
	Subject     string
	UserID      ID
	Email       string
	Name        string
	Picture     string
	SystemRole  SystemRole
	Roles       []string
	Permissions []Permission
	Projects    []ProjectMembership
	ExpiresAt   time.Time
}

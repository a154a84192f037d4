package model

import "strings"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a role string as presented by the server. An empty
// value maps to RoleUser so a missing claim never grants privilege.
func ParseRole(raw string) Role {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return RoleUser
	}
	return Role(normalized)
}

// Credential is the bearer token plus the role claim issued with it.
type Credential struct {
	AccessToken string `json:"access_token"`
	Role        Role   `json:"role"`
}

func (c Credential) Present() bool {
	return strings.TrimSpace(c.AccessToken) != ""
}

func (c Credential) Privileged() bool {
	return c.Present() && c.Role == RoleAdmin
}

// TokenResponse is the body returned by /auth/token (and by /auth/ on servers
// that log the new account in directly).
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	Role        string `json:"role"`
}

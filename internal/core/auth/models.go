package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated caller
type Principal struct {
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// IsAdmin reports whether the caller may use the admin routes
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// SupabaseClaims is the payload of a Supabase access token. The account id
// is the subject; the admin role is granted through app_metadata.
type SupabaseClaims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	AppMetadata struct {
		Role string `json:"role,omitempty"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of a staff session token minted by the
// external session provider.
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Actor identifies the staff member behind a session for logging.
func (c *SessionClaims) Actor() string {
	if c == nil {
		return ""
	}
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

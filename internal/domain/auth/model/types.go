package model

import "time"

// Role is the privilege tier of an authenticated caller.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// Tier orders roles for comparison. Unknown roles rank below every valid
// tier so a malformed session can never satisfy a requirement.
func (r Role) Tier() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	default:
		return 0
	}
}

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	return r.Tier() > 0
}

// Actor is the resolved identity attached to a request. Role and the
// two-factor flag are inputs from the session layer; nothing downstream may
// escalate them.
type Actor struct {
	UserID             string `json:"userId"`
	Role               Role   `json:"role"`
	TwoFactorSatisfied bool   `json:"twoFactorSatisfied"`
}

// Session captures the server-side session record persisted by the store.
type Session struct {
	Token                  string    `json:"token"`
	UserID                 string    `json:"user_id"`
	Role                   Role      `json:"role"`
	TwoFactorAuthenticated bool      `json:"two_factor_authenticated"`
	CreatedAt              time.Time `json:"created_at"`
	ExpiresAt              time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Actor projects the session onto the request-scoped identity.
func (s *Session) Actor() *Actor {
	return &Actor{
		UserID:             s.UserID,
		Role:               s.Role,
		TwoFactorSatisfied: s.TwoFactorAuthenticated,
	}
}

// Logger provides the minimal logging contract required by the auth domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

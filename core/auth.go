package core

import "time"

// Role is the capability level resolved from a session.
type Role uint8

const (
	RoleUnprivileged Role = iota
	RoleMinter
	RoleController
)

func (r Role) String() string {
	switch r {
	case RoleMinter:
		return "minter"
	case RoleController:
		return "controller"
	default:
		return "unprivileged"
	}
}

// Challenge represents a single-use authentication challenge
type Challenge struct {
	Address   string    // Wallet address the challenge is bound to
	Nonce     string    // Random nonce embedded in the sign-in message
	Message   string    // Human-readable message the wallet signs
	IssuedAt  time.Time // When the challenge was created
	ExpiresAt time.Time // When the challenge expires
}

// Expired reports whether the challenge is past its expiry at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Identity is a wallet-backed user identity. It is created lazily on the
// first successful verification and never deleted, only deactivated.
type Identity struct {
	Address   string    // Wallet address, unique key
	ProfileID string    // Linked profile identifier
	Role      Role      // Capability level assigned to the identity
	CreatedAt time.Time // When the identity was first seen
	Active    bool
}

// Session represents an authenticated user session. Every session is
// traceable to exactly one successful challenge verification.
type Session struct {
	ID        string    // Unique session identifier
	Address   string    // Wallet address of the subject
	ProfileID string    // Identity the session belongs to
	Role      Role      // Role resolved at verification time
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session expires
}

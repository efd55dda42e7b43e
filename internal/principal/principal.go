package principal

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Role is the coarse access level of an authenticated user.
type Role string

const (
	// RoleAdmin sees and may act on every record in the system.
	RoleAdmin Role = "admin"
	// RoleManager sees and may act only on records it created.
	RoleManager Role = "manager"
)

// Principal identifies the actor performing an operation. Credential
// verification happens outside the core; by the time a Principal exists
// it is trusted.
type Principal struct {
	ID   snowflake.ID
	Role Role
}

func (p Principal) Privileged() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Valid() bool {
	return p.ID != 0 && (p.Role == RoleAdmin || p.Role == RoleManager)
}

// ParseRole normalizes a role string from the session layer.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleManager:
		return RoleManager, true
	default:
		return "", false
	}
}

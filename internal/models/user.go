package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the access level carried by a user and its bearer token.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts any casing of a known role and returns the canonical form.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the two canonical roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// CanAdminister reports whether the role grants access to admin operations.
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

func (r Role) String() string { return string(r) }

// User is an account that owns stored files.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

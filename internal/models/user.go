package models

import (
	"github.com/google/uuid"
)

// Role represents a user role as reported by the user service.
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleMentor     Role = "MENTOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleGuest      Role = "GUEST_USER"
)

// IsElevated reports whether the role belongs to an admin tier.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ResolvedUser is the user directory's answer to an identifier search.
type ResolvedUser struct {
	UserID     uuid.UUID `json:"userId"`
	Role       Role      `json:"role"`
	Email      string    `json:"email,omitempty"`
	NationalID string    `json:"pinfl,omitempty"`
}

// ShortInfo is the display projection of a user (webinar presenters).
type ShortInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	MiddleName string `json:"middleName,omitempty"`
	Role       Role   `json:"role"`
}

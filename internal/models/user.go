package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role on the platform.
type Role string

const (
	RoleParticipant      Role = "participant"
	RoleHost             Role = "host"
	RoleInstitutionAdmin Role = "institution_admin"
	RolePlatformAdmin    Role = "platform_admin"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleParticipant, RoleHost, RoleInstitutionAdmin, RolePlatformAdmin:
		return true
	}
	return false
}

// User represents a registered person on the platform. IDs are immutable;
// role and institution affiliation may change administratively.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Password      string     `json:"-"`
	FullName      string     `json:"full_name"`
	Role          Role       `json:"role"`
	InstitutionID *uuid.UUID `json:"institution_id,omitempty"`
	Title         string     `json:"title,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	Role          Role       `json:"role"`
	InstitutionID *uuid.UUID `json:"institution_id,omitempty"`
	Title         string     `json:"title,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Role:          u.Role,
		InstitutionID: u.InstitutionID,
		Title:         u.Title,
		Bio:           u.Bio,
		CreatedAt:     u.CreatedAt,
	}
}

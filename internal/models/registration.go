package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration is a user's registration for an event. Registering requires
// identity only, never a paid plan; one registration exists per (event, user).
type Registration struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	UserID     uuid.UUID  `json:"user_id"`
	AttendedAt *time.Time `json:"attended_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RegistrationToken is a unique join link token for a registration.
type RegistrationToken struct {
	ID             uuid.UUID  `json:"id"`
	RegistrationID uuid.UUID  `json:"registration_id"`
	Token          string     `json:"token"`
	ExpiresAt      time.Time  `json:"expires_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

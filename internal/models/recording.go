package models

import (
	"time"

	"github.com/google/uuid"
)

// Recording is the recorded artifact of a completed event. The media itself
// lives with the delivery service (S3); this record carries the storage key
// and access metadata only.
type Recording struct {
	ID              uuid.UUID   `json:"id"`
	EventID         uuid.UUID   `json:"event_id"`
	StorageKey      string      `json:"storage_key,omitempty"`
	DurationMinutes int         `json:"duration_minutes"`
	AvailableFrom   time.Time   `json:"available_from"`
	AccessLevel     AccessLevel `json:"access_level"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

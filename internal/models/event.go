package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle status of an event. Transitions are monotonic
// (upcoming -> live -> completed) and driven by an external scheduler; the
// access layer only reads the current status.
type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventLive      EventStatus = "live"
	EventCompleted EventStatus = "completed"
)

// AccessLevel controls who may view an event.
type AccessLevel string

const (
	// AccessOpen events are viewable by anyone, with or without an account.
	AccessOpen AccessLevel = "open"
	// AccessRegisteredOnly events require a signed-in identity to attend.
	// Viewing the recording afterwards additionally requires an active plan.
	AccessRegisteredOnly AccessLevel = "registered_only"
	// AccessInstitutionOnly events are restricted to members of the hosting
	// institution (platform admins excepted).
	AccessInstitutionOnly AccessLevel = "institution_only"
)

// ValidEventStatus reports whether s names a known event status.
func ValidEventStatus(s string) bool {
	switch EventStatus(s) {
	case EventUpcoming, EventLive, EventCompleted:
		return true
	}
	return false
}

// ValidAccessLevel reports whether s names a known access level.
func ValidAccessLevel(s string) bool {
	switch AccessLevel(s) {
	case AccessOpen, AccessRegisteredOnly, AccessInstitutionOnly:
		return true
	}
	return false
}

// CanTransitionStatus reports whether an event may move from one status to
// another. Only forward moves are allowed; completed is terminal.
func CanTransitionStatus(from, to EventStatus) bool {
	switch from {
	case EventUpcoming:
		return to == EventLive || to == EventCompleted
	case EventLive:
		return to == EventCompleted
	}
	return false
}

// Event represents a seminar or briefing on the program calendar.
type Event struct {
	ID               uuid.UUID   `json:"id"`
	Title            string      `json:"title"`
	Slug             string      `json:"slug"`
	ShortDescription string      `json:"short_description"`
	LongDescription  string      `json:"long_description,omitempty"`
	Category         string      `json:"category"`
	TopicTags        []string    `json:"topic_tags,omitempty"`
	SeriesID         *uuid.UUID  `json:"series_id,omitempty"`
	HostUserID       uuid.UUID   `json:"host_user_id"`
	InstitutionID    *uuid.UUID  `json:"institution_id,omitempty"`
	ScheduledAt      time.Time   `json:"scheduled_at"`
	DurationMinutes  int         `json:"duration_minutes"`
	Status           EventStatus `json:"status"`
	AccessLevel      AccessLevel `json:"access_level"`
	HasRecording     bool        `json:"has_recording"`
	Language         string      `json:"language,omitempty"`
	IsFlagship       bool        `json:"is_flagship"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// EventSpeaker links a user as a speaker to an event.
type EventSpeaker struct {
	EventID uuid.UUID `json:"event_id"`
	UserID  uuid.UUID `json:"user_id"`
	AddedAt time.Time `json:"added_at"`
}

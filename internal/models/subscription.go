package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus for subscription records. Canceled is terminal: a new
// record supersedes it rather than reviving it.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// OwnerKind identifies which keyed slot holds a subscription record.
type OwnerKind string

const (
	OwnerUser        OwnerKind = "user"
	OwnerInstitution OwnerKind = "institution"
)

// ErrSubscriptionOwner is returned when a record does not have exactly one
// owner reference set.
var ErrSubscriptionOwner = errors.New("subscription must have exactly one of user_id or institution_id")

// Subscription is a billing record owned by either a user or an institution,
// never both and never neither. At most one non-canceled record exists per
// owner key at any time; starting a new plan supersedes the prior record.
type Subscription struct {
	ID            uuid.UUID          `json:"id"`
	PlanID        string             `json:"plan_id"`
	UserID        *uuid.UUID         `json:"user_id,omitempty"`
	InstitutionID *uuid.UUID         `json:"institution_id,omitempty"`
	Status        SubscriptionStatus `json:"status"`
	RenewsAt      time.Time          `json:"renews_at"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NewSubscription builds an active subscription record, rejecting owner
// invariant violations at the boundary rather than tolerating them at read
// time. Exactly one of userID and institutionID must be non-nil.
func NewSubscription(planID string, userID, institutionID *uuid.UUID, renewsAt time.Time) (*Subscription, error) {
	if (userID == nil) == (institutionID == nil) {
		return nil, ErrSubscriptionOwner
	}
	now := time.Now().UTC()
	return &Subscription{
		ID:            uuid.New(),
		PlanID:        planID,
		UserID:        userID,
		InstitutionID: institutionID,
		Status:        SubscriptionActive,
		RenewsAt:      renewsAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Validate checks the owner invariant on an already-built record.
func (s *Subscription) Validate() error {
	if (s.UserID == nil) == (s.InstitutionID == nil) {
		return ErrSubscriptionOwner
	}
	return nil
}

// Owner returns the keyed slot this record occupies.
func (s *Subscription) Owner() (OwnerKind, uuid.UUID) {
	if s.UserID != nil {
		return OwnerUser, *s.UserID
	}
	return OwnerInstitution, *s.InstitutionID
}

// IsActive reports whether the record currently grants paid access.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

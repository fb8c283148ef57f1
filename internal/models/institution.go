package models

import (
	"time"

	"github.com/google/uuid"
)

// InstitutionType classifies an institution.
type InstitutionType string

const (
	InstitutionUniversity        InstitutionType = "university"
	InstitutionResearchInstitute InstitutionType = "research_institute"
	InstitutionIntlOrganization  InstitutionType = "international_organization"
	InstitutionThinkTank         InstitutionType = "think_tank"
	InstitutionOther             InstitutionType = "other"
)

// Institution represents a member institution that hosts events and can hold
// a group subscription.
type Institution struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Type        InstitutionType `json:"type"`
	Country     string          `json:"country"`
	Description string          `json:"description"`
	Focus       string          `json:"focus,omitempty"`
	WebsiteURL  string          `json:"website_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Series is a curated program of events run by one institution.
type Series struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	InstitutionID uuid.UUID `json:"institution_id"`
	Theme         string    `json:"theme"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

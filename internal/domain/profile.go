package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/identity"
)

type SubscriptionStatus string

const (
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// DefaultTimezone applies to profiles that never set one.
const DefaultTimezone = "Europe/London"

type Profile struct {
	ID                 uuid.UUID           `json:"id"`
	Role               identity.Role       `json:"role"`
	FullName           string              `json:"full_name"`
	Email              string              `json:"email"`
	AvatarURL          *string             `json:"avatar_url,omitempty"`
	Phone              *string             `json:"phone,omitempty"`
	Bio                *string             `json:"bio,omitempty"`
	Specialties        []string            `json:"specialties"`
	HourlyRateCents    *int64              `json:"hourly_rate_cents,omitempty"`
	Timezone           string              `json:"timezone"`
	Availability       *WeeklyAvailability `json:"availability,omitempty"`
	SubscriptionStatus SubscriptionStatus  `json:"subscription_status"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Location resolves the profile timezone, falling back to DefaultTimezone.
func (p Profile) Location() *time.Location {
	if p.Timezone != "" {
		if loc, err := time.LoadLocation(p.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// WeeklyRules returns the stored availability or the default rule set.
func (p Profile) WeeklyRules() WeeklyAvailability {
	if p.Availability != nil {
		return *p.Availability
	}
	return DefaultAvailability()
}

// ProfilePatch carries optional updates; nil fields are left unchanged.
type ProfilePatch struct {
	FullName        *string
	AvatarURL       *string
	Phone           *string
	Bio             *string
	Specialties     *[]string
	HourlyRateCents *int64
	Timezone        *string
}

type Assignment struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    uuid.UUID  `json:"client_id"`
	TherapistID uuid.UUID  `json:"therapist_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
}

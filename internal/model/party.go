package model

import (
	"fmt"
	"time"
)

// ResponseStatus is a party's or member's answer for one event.
type ResponseStatus string

const (
	StatusPending      ResponseStatus = "pending"
	StatusAttending    ResponseStatus = "attending"
	StatusNotAttending ResponseStatus = "not_attending"
)

func (s ResponseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAttending, StatusNotAttending:
		return true
	}
	return false
}

// Label is the human-readable form used in exports.
func (s ResponseStatus) Label() string {
	switch s {
	case StatusAttending:
		return "Attending"
	case StatusNotAttending:
		return "Not Attending"
	}
	return "Pending"
}

// EventResponse is the per-event invitation and answer of a party.
// Guests is zero unless Status is attending.
type EventResponse struct {
	Invited bool           `json:"invited"`
	Status  ResponseStatus `json:"status"`
	Guests  int            `json:"guests"`
}

// Party is one invited household sharing an access code.
type Party struct {
	ID                  string                      `json:"id"`
	Code                string                      `json:"rsvp_code"`
	Name                string                      `json:"name"`
	Email               string                      `json:"email"`
	Phone               string                      `json:"phone"`
	PartyName           string                      `json:"party_name"`
	MaxGuests           int                         `json:"max_guests"`
	Events              map[EventSlug]EventResponse `json:"events"`
	DietaryRequirements string                      `json:"dietary_requirements"`
	Message             string                      `json:"message"`
	Notes               string                      `json:"notes"`
	HasResponded        bool                        `json:"has_responded"`
	RSVPSubmittedAt     *time.Time                  `json:"rsvp_submitted_at"`
	LastViewedAt        *time.Time                  `json:"last_viewed_at"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// Response returns the party's state for an event; an unknown event reads as
// not invited and pending.
func (p *Party) Response(slug EventSlug) EventResponse {
	if r, ok := p.Events[slug]; ok {
		return r
	}
	return EventResponse{Status: StatusPending}
}

func (p *Party) IsInvited(slug EventSlug) bool {
	return p.Response(slug).Invited
}

// InvitedEvents returns the events the party is invited to, in ceremony order.
func (p *Party) InvitedEvents() []EventSlug {
	var out []EventSlug
	for _, slug := range EventSlugs {
		if p.IsInvited(slug) {
			out = append(out, slug)
		}
	}
	return out
}

// Invitations is a set of invited events, used when creating or editing parties.
type Invitations map[EventSlug]bool

// AllEvents invites to every event.
func AllEvents() Invitations {
	inv := Invitations{}
	for _, slug := range EventSlugs {
		inv[slug] = true
	}
	return inv
}

// WeddingAndReception invites to the wedding and reception only.
func WeddingAndReception() Invitations {
	return Invitations{Wedding: true, Reception: true}
}

// Validate rejects unknown event slugs.
func (inv Invitations) Validate() error {
	for slug := range inv {
		if !slug.Valid() {
			return fmt.Errorf("unknown event %q", slug)
		}
	}
	return nil
}

// Invitations returns the party's current invitation set.
func (p *Party) Invitations() Invitations {
	inv := Invitations{}
	for _, slug := range p.InvitedEvents() {
		inv[slug] = true
	}
	return inv
}

// PartyInput carries the organizer-editable fields of a party.
type PartyInput struct {
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	PartyName   string      `json:"party_name"`
	MaxGuests   int         `json:"max_guests"`
	Notes       string      `json:"notes"`
	Invitations Invitations `json:"invitations"`
}

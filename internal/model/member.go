package model

import "time"

type Relation string

const (
	RelationFather      Relation = "father"
	RelationMother      Relation = "mother"
	RelationSon         Relation = "son"
	RelationDaughter    Relation = "daughter"
	RelationSpouse      Relation = "spouse"
	RelationSibling     Relation = "sibling"
	RelationGrandparent Relation = "grandparent"
	RelationOther       Relation = "other"
)

func (r Relation) Valid() bool {
	switch r {
	case RelationFather, RelationMother, RelationSon, RelationDaughter,
		RelationSpouse, RelationSibling, RelationGrandparent, RelationOther:
		return true
	}
	return false
}

// MemberResponse is one member's invitation and answer for an event. A member is a
// single attendance unit, so there is no head count.
type MemberResponse struct {
	Invited bool           `json:"invited"`
	Status  ResponseStatus `json:"status"`
}

// Member is an individual within a party.
type Member struct {
	ID                  int64                        `json:"id"`
	PartyID             string                       `json:"party_id"`
	Name                string                       `json:"name"`
	Relation            Relation                     `json:"relation"`
	Events              map[EventSlug]MemberResponse `json:"events"`
	DietaryRequirements string                       `json:"dietary_requirements"`
	SortOrder           int                          `json:"sort_order"`
	CreatedAt           time.Time                    `json:"created_at"`
	UpdatedAt           time.Time                    `json:"updated_at"`
}

func (m *Member) Response(slug EventSlug) MemberResponse {
	if r, ok := m.Events[slug]; ok {
		return r
	}
	return MemberResponse{Status: StatusPending}
}

func (m *Member) IsInvited(slug EventSlug) bool {
	return m.Response(slug).Invited
}

// Invitations returns the member's current invitation set.
func (m *Member) Invitations() Invitations {
	inv := Invitations{}
	for _, slug := range EventSlugs {
		if m.IsInvited(slug) {
			inv[slug] = true
		}
	}
	return inv
}

type MemberInput struct {
	Name        string      `json:"name"`
	Relation    Relation    `json:"relation"`
	Invitations Invitations `json:"invitations"`
}

// RollUp derives a party's answer for one event from its members: attending when
// anyone attends, not attending when every invited member declined, otherwise
// pending. The head count is the number of attending members, capped at maxGuests.
func RollUp(slug EventSlug, members []Member, maxGuests int) EventResponse {
	invited, attending, declined := 0, 0, 0
	for i := range members {
		r := members[i].Response(slug)
		if !r.Invited {
			continue
		}
		invited++
		switch r.Status {
		case StatusAttending:
			attending++
		case StatusNotAttending:
			declined++
		}
	}
	switch {
	case attending > 0:
		return EventResponse{Invited: true, Status: StatusAttending, Guests: min(attending, maxGuests)}
	case invited > 0 && declined == invited:
		return EventResponse{Invited: true, Status: StatusNotAttending}
	}
	return EventResponse{Invited: true, Status: StatusPending}
}

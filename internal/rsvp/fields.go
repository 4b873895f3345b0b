package rsvp

import (
	"fmt"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// Field is one answer the RSVP form asks for: a party-level choice with a head
// count, or a single member's choice.
type Field struct {
	Event     model.EventSlug
	MemberID  int64
	Required  bool
	MaxGuests int
}

func (f Field) ChoiceName() string {
	if f.MemberID != 0 {
		return fmt.Sprintf("rsvp_%s_%d", f.Event, f.MemberID)
	}
	return "rsvp_" + string(f.Event)
}

func (f Field) GuestsName() string {
	return "guests_" + string(f.Event)
}

// MemberMode reports whether a party answers per member.
func MemberMode(members []model.Member) bool {
	return len(members) > 0
}

// Fields lists exactly the answers a party may give, built from invitation flags.
// A party without members answers once per invited event and must choose for
// each. A party with members answers per member per event that member is invited
// to, and an unanswered member stays pending.
func Fields(p *model.Party, members []model.Member) []Field {
	var fields []Field
	if !MemberMode(members) {
		for _, slug := range p.InvitedEvents() {
			fields = append(fields, Field{Event: slug, Required: true, MaxGuests: p.MaxGuests})
		}
		return fields
	}
	for _, slug := range model.EventSlugs {
		if !p.IsInvited(slug) {
			continue
		}
		for _, m := range members {
			if m.IsInvited(slug) {
				fields = append(fields, Field{Event: slug, MemberID: m.ID})
			}
		}
	}
	return fields
}

func MemberDietaryName(id int64) string {
	return fmt.Sprintf("dietary_%d", id)
}

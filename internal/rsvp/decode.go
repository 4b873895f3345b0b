package rsvp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

// MaxTextLength caps the free-text answers, in characters.
const MaxTextLength = 4000

const (
	FieldDietary = "dietary_requirements"
	FieldMessage = "message"
)

// Decode validates a submitted form against the party's field list and returns
// the response to store. Values for events or members outside the list are
// ignored.
func Decode(p *model.Party, members []model.Member, form url.Values, now time.Time) (store.Response, error) {
	verr := &ValidationError{}
	resp := store.Response{
		Events:              make(map[model.EventSlug]model.EventResponse),
		DietaryRequirements: form.Get(FieldDietary),
		Message:             form.Get(FieldMessage),
		SubmittedAt:         now,
	}
	checkLength(verr, FieldDietary, resp.DietaryRequirements)
	checkLength(verr, FieldMessage, resp.Message)

	fields := Fields(p, members)
	if MemberMode(members) {
		decodeMembers(verr, &resp, p, members, fields, form)
	} else {
		decodeParty(verr, &resp, fields, form)
	}

	if !verr.empty() {
		return store.Response{}, verr
	}
	return resp, nil
}

func decodeParty(verr *ValidationError, resp *store.Response, fields []Field, form url.Values) {
	for _, f := range fields {
		raw := strings.TrimSpace(form.Get(f.ChoiceName()))
		if raw == "" {
			verr.add(f.ChoiceName(), "Please let us know if you can attend.")
			continue
		}
		status := model.ResponseStatus(raw)
		switch status {
		case model.StatusNotAttending:
			resp.Events[f.Event] = model.EventResponse{Invited: true, Status: status}
		case model.StatusAttending:
			guests, msg := parseGuests(form.Get(f.GuestsName()), f.MaxGuests)
			if msg != "" {
				verr.add(f.GuestsName(), msg)
				continue
			}
			resp.Events[f.Event] = model.EventResponse{Invited: true, Status: status, Guests: guests}
		default:
			verr.add(f.ChoiceName(), "Select attending or not attending.")
		}
	}
}

// parseGuests reads an attending head count. Blank or zero means one guest.
func parseGuests(raw string, max int) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "Enter the number of guests as a whole number."
	}
	if n < 0 || n > max {
		return 0, fmt.Sprintf("Enter a number between 1 and %d.", max)
	}
	if n == 0 {
		n = 1
	}
	return n, ""
}

func decodeMembers(verr *ValidationError, resp *store.Response, p *model.Party, members []model.Member, fields []Field, form url.Values) {
	answers := make(map[int64]map[model.EventSlug]model.ResponseStatus, len(members))
	for _, m := range members {
		answers[m.ID] = make(map[model.EventSlug]model.ResponseStatus)
	}

	for _, f := range fields {
		raw := strings.TrimSpace(form.Get(f.ChoiceName()))
		status := model.StatusPending
		if raw != "" {
			status = model.ResponseStatus(raw)
			if !status.Valid() {
				verr.add(f.ChoiceName(), "Select attending, not attending or undecided.")
				continue
			}
		}
		answers[f.MemberID][f.Event] = status
	}

	for _, m := range members {
		dietary := form.Get(MemberDietaryName(m.ID))
		checkLength(verr, MemberDietaryName(m.ID), dietary)
		resp.Members = append(resp.Members, store.MemberResponse{
			ID:                  m.ID,
			Events:              answers[m.ID],
			DietaryRequirements: dietary,
		})
	}

	answered := make([]model.Member, len(members))
	for i, m := range members {
		answered[i] = m
		answered[i].Events = make(map[model.EventSlug]model.MemberResponse, len(m.Events))
		for slug, r := range m.Events {
			if st, ok := answers[m.ID][slug]; ok {
				r.Status = st
			}
			answered[i].Events[slug] = r
		}
	}
	for _, slug := range p.InvitedEvents() {
		resp.Events[slug] = model.RollUp(slug, answered, p.MaxGuests)
	}
}

func checkLength(verr *ValidationError, field, value string) {
	if utf8.RuneCountInString(value) > MaxTextLength {
		verr.add(field, fmt.Sprintf("Please keep this under %d characters.", MaxTextLength))
	}
}

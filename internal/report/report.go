// Package report computes dashboard figures from a snapshot of parties and members.
package report

import (
	"math"
	"sort"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// EventStats counts response units for one event. A party without members is one
// unit; a party with members contributes each invited member.
type EventStats struct {
	Event        model.Event `json:"event"`
	Invited      int         `json:"invited"`
	Attending    int         `json:"attending"`
	NotAttending int         `json:"not_attending"`
	Pending      int         `json:"pending"`
	Headcount    int         `json:"headcount"`
}

type Summary struct {
	TotalParties int          `json:"total"`
	TotalMembers int          `json:"total_members"`
	Responded    int          `json:"responded"`
	Pending      int          `json:"pending"`
	ResponseRate float64      `json:"response_rate"`
	Events       []EventStats `json:"events"`
}

// Headcount returns the attending headcount for an event, or 0 if it is not in the
// summary.
func (s Summary) Headcount(slug model.EventSlug) int {
	for _, e := range s.Events {
		if e.Event.Slug == slug {
			return e.Headcount
		}
	}
	return 0
}

// Summarize builds the summary. events fixes the order of the per-event figures.
func Summarize(parties []model.Party, membersByParty map[string][]model.Member, events []model.Event) Summary {
	sum := Summary{TotalParties: len(parties)}
	byEvent := make(map[model.EventSlug]*EventStats, len(events))
	sum.Events = make([]EventStats, len(events))
	for i, e := range events {
		sum.Events[i].Event = e
		byEvent[e.Slug] = &sum.Events[i]
	}

	for i := range parties {
		p := &parties[i]
		if p.HasResponded {
			sum.Responded++
		}
		members := membersByParty[p.ID]
		sum.TotalMembers += len(members)

		for slug, st := range byEvent {
			if !p.IsInvited(slug) {
				continue
			}
			if len(members) == 0 {
				r := p.Response(slug)
				st.Invited++
				st.count(r.Status)
				if r.Status == model.StatusAttending {
					st.Headcount += r.Guests
				}
				continue
			}
			for j := range members {
				m := &members[j]
				if !m.IsInvited(slug) {
					continue
				}
				status := m.Response(slug).Status
				st.Invited++
				st.count(status)
				if status == model.StatusAttending {
					st.Headcount++
				}
			}
		}
	}

	sum.Pending = sum.TotalParties - sum.Responded
	sum.ResponseRate = ResponseRate(sum.Responded, sum.TotalParties)
	return sum
}

func (st *EventStats) count(status model.ResponseStatus) {
	switch status {
	case model.StatusAttending:
		st.Attending++
	case model.StatusNotAttending:
		st.NotAttending++
	default:
		st.Pending++
	}
}

// ResponseRate is responded/total as a percentage rounded to one decimal.
func ResponseRate(responded, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(responded)/float64(total)*1000) / 10
}

// Filter narrows the guest list. Zero fields match everything.
type Filter struct {
	Event  model.EventSlug
	Status string
	Search string
}

const (
	FilterResponded    = "responded"
	FilterPending      = "pending"
	FilterAttending    = "attending"
	FilterNotAttending = "not_attending"
)

func (f Filter) IsZero() bool {
	return f.Event == "" && f.Status == "" && strings.TrimSpace(f.Search) == ""
}

func (f Filter) Apply(parties []model.Party) []model.Party {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Party, 0, len(parties))
	for _, p := range parties {
		if f.Event != "" && !p.IsInvited(f.Event) {
			continue
		}
		if !f.matchStatus(&p) {
			continue
		}
		if search != "" && !matchSearch(&p, search) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f Filter) matchStatus(p *model.Party) bool {
	switch f.Status {
	case "":
		return true
	case FilterResponded:
		return p.HasResponded
	case FilterPending:
		return !p.HasResponded
	case FilterAttending:
		return anyStatus(p, model.StatusAttending)
	case FilterNotAttending:
		return anyStatus(p, model.StatusNotAttending)
	}
	return true
}

func anyStatus(p *model.Party, status model.ResponseStatus) bool {
	for _, slug := range p.InvitedEvents() {
		if p.Response(slug).Status == status {
			return true
		}
	}
	return false
}

func matchSearch(p *model.Party, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Email), q) ||
		strings.Contains(strings.ToLower(p.Code), q)
}

// Recent returns up to n parties that have responded, latest submission first.
func Recent(parties []model.Party, n int) []model.Party {
	var out []model.Party
	for _, p := range parties {
		if p.HasResponded && p.RSVPSubmittedAt != nil {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RSVPSubmittedAt.After(*out[j].RSVPSubmittedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// PendingParties returns the parties that have not responded, by name.
func PendingParties(parties []model.Party) []model.Party {
	var out []model.Party
	for _, p := range parties {
		if !p.HasResponded {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

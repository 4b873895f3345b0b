package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// Response is one accepted RSVP submission. Events holds only the events the party
// was asked about; other events are left untouched.
type Response struct {
	Events              map[model.EventSlug]model.EventResponse
	DietaryRequirements string
	Message             string
	Members             []MemberResponse
	SubmittedAt         time.Time
}

// MemberResponse carries the answers of one member. Events holds only the events
// the member is invited to.
type MemberResponse struct {
	ID                  int64
	Events              map[model.EventSlug]model.ResponseStatus
	DietaryRequirements string
}

// ApplyResponse writes a submission in a single transaction: the party row and
// every member row update together or not at all.
func (s *PartyStore) ApplyResponse(partyID string, r Response) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var sets []string
	var args []any
	for _, slug := range model.EventSlugs {
		er, ok := r.Events[slug]
		if !ok {
			continue
		}
		guests := er.Guests
		if er.Status != model.StatusAttending {
			guests = 0
		}
		sets = append(sets, "rsvp_"+string(slug)+" = ?", "guests_"+string(slug)+" = ?")
		args = append(args, string(er.Status), guests)
	}
	sets = append(sets,
		"dietary_requirements = ?", "message = ?", "has_responded = 1",
		"rsvp_submitted_at = ?", "updated_at = ?",
	)
	at := r.SubmittedAt.UTC()
	args = append(args, r.DietaryRequirements, r.Message, at, at, partyID)

	res, err := tx.Exec(`UPDATE parties SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update party response: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return ErrPartyNotFound
	}

	for _, m := range r.Members {
		var msets []string
		var margs []any
		for _, slug := range model.EventSlugs {
			st, ok := m.Events[slug]
			if !ok {
				continue
			}
			msets = append(msets, "rsvp_"+string(slug)+" = ?")
			margs = append(margs, string(st))
		}
		msets = append(msets, "dietary_requirements = ?", "updated_at = ?")
		margs = append(margs, m.DietaryRequirements, at, m.ID, partyID)

		res, err := tx.Exec(
			`UPDATE members SET `+strings.Join(msets, ", ")+` WHERE id = ? AND party_id = ?`,
			margs...,
		)
		if err != nil {
			return fmt.Errorf("update member %d response: %w", m.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("update member %d response: %w", m.ID, ErrMemberNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

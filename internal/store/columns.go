package store

import (
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// eventColumns expands each pattern once per event, in ceremony order. Slugs are
// constants, so the result is safe to splice into SQL.
func eventColumns(patterns ...string) []string {
	var cols []string
	for _, slug := range model.EventSlugs {
		for _, p := range patterns {
			cols = append(cols, strings.ReplaceAll(p, "{e}", string(slug)))
		}
	}
	return cols
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

func anySlice[T any](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// partyInvitationSet builds the SET fragment that applies an invitation set to a
// party row. Events that lose their invitation fall back to pending with no guests.
// A positive maxGuests also clamps the stored head counts.
func partyInvitationSet(inv model.Invitations, maxGuests int) (string, []any) {
	var parts []string
	var args []any
	for _, slug := range model.EventSlugs {
		e := string(slug)
		invited := inv[slug]
		parts = append(parts,
			"invited_"+e+" = ?",
			"rsvp_"+e+" = CASE WHEN ? THEN rsvp_"+e+" ELSE 'pending' END",
		)
		args = append(args, invited, invited)
		if maxGuests > 0 {
			parts = append(parts, "guests_"+e+" = CASE WHEN ? THEN MIN(guests_"+e+", ?) ELSE 0 END")
			args = append(args, invited, maxGuests)
		} else {
			parts = append(parts, "guests_"+e+" = CASE WHEN ? THEN guests_"+e+" ELSE 0 END")
			args = append(args, invited)
		}
	}
	return strings.Join(parts, ", "), args
}

// memberCascadeSet withdraws member invitations for events the party is no longer
// invited to.
func memberCascadeSet(inv model.Invitations) (string, []any) {
	var parts []string
	var args []any
	for _, slug := range model.EventSlugs {
		e := string(slug)
		invited := inv[slug]
		parts = append(parts,
			"invited_"+e+" = CASE WHEN ? THEN invited_"+e+" ELSE 0 END",
			"rsvp_"+e+" = CASE WHEN ? THEN rsvp_"+e+" ELSE 'pending' END",
		)
		args = append(args, invited, invited)
	}
	return strings.Join(parts, ", "), args
}

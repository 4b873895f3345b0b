// Package csvio reads and writes guest lists as CSV.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/notify"
)

const timeLayout = "2006-01-02 15:04:05"

// ExportHeader is the column list of the full guest export.
var ExportHeader = []string{
	"Name", "Email", "Phone", "Party Name", "Max Guests", "RSVP Code",
	"Invited Mendhi", "Invited Vidhi", "Invited Wedding", "Invited Reception",
	"RSVP Mendhi", "RSVP Vidhi", "RSVP Wedding", "RSVP Reception",
	"Guests Mendhi", "Guests Vidhi", "Guests Wedding", "Guests Reception",
	"Dietary Requirements", "Message", "Has Responded", "RSVP Submitted At",
}

// CodeSheetHeader is the column list of the code distribution sheet.
var CodeSheetHeader = []string{
	"Name", "RSVP Code", "Email", "Phone", "Party Name", "Max Guests", "Invited", "RSVP Link",
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// Export writes one row per party.
func Export(w io.Writer, parties []model.Party) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range parties {
		p := &parties[i]
		row := []string{p.Name, p.Email, p.Phone, p.PartyName, strconv.Itoa(p.MaxGuests), p.Code}
		for _, slug := range model.EventSlugs {
			row = append(row, yesNo(p.IsInvited(slug)))
		}
		for _, slug := range model.EventSlugs {
			row = append(row, string(p.Response(slug).Status))
		}
		for _, slug := range model.EventSlugs {
			row = append(row, strconv.Itoa(p.Response(slug).Guests))
		}
		row = append(row, p.DietaryRequirements, p.Message, yesNo(p.HasResponded), formatTime(p.RSVPSubmittedAt))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write party %s: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CodeSheet writes the access codes and links for distribution.
func CodeSheet(w io.Writer, parties []model.Party, baseURL string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CodeSheetHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range parties {
		p := &parties[i]
		var invited []string
		for _, slug := range p.InvitedEvents() {
			invited = append(invited, slug.Title())
		}
		row := []string{
			p.Name, p.Code, p.Email, p.Phone, p.PartyName, strconv.Itoa(p.MaxGuests),
			strings.Join(invited, ", "), notify.RSVPLink(baseURL, p.Code),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write party %s: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

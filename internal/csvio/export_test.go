package csvio

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

func exportParty() model.Party {
	at := time.Date(2025, 11, 2, 18, 4, 5, 0, time.FixedZone("IST", 5*3600+1800))
	return model.Party{
		ID: "p1", Name: "Sharma Family", Email: "sharma@example.com", Phone: "9876543001",
		PartyName: "The Sharma Family", MaxGuests: 4, Code: "ABCD2345",
		Events: map[model.EventSlug]model.EventResponse{
			model.Wedding:   {Invited: true, Status: model.StatusAttending, Guests: 2},
			model.Reception: {Invited: true, Status: model.StatusNotAttending},
			model.Mendhi:    {Status: model.StatusPending},
			model.Vidhi:     {Status: model.StatusPending},
		},
		DietaryRequirements: "Vegetarian, no onion",
		Message:             "See you soon",
		HasResponded:        true,
		RSVPSubmittedAt:     &at,
	}
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	pending := model.Party{ID: "p2", Name: "Gupta", MaxGuests: 1, Code: "EFGH6789"}
	if err := Export(&buf, []model.Party{exportParty(), pending}); err != nil {
		t.Fatalf("export: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	wantHeader := "Name,Email,Phone,Party Name,Max Guests,RSVP Code,Invited Mendhi,Invited Vidhi,Invited Wedding,Invited Reception,RSVP Mendhi,RSVP Vidhi,RSVP Wedding,RSVP Reception,Guests Mendhi,Guests Vidhi,Guests Wedding,Guests Reception,Dietary Requirements,Message,Has Responded,RSVP Submitted At"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Errorf("header = %s", got)
	}

	want := []string{
		"Sharma Family", "sharma@example.com", "9876543001", "The Sharma Family", "4", "ABCD2345",
		"No", "No", "Yes", "Yes",
		"pending", "pending", "attending", "not_attending",
		"0", "0", "2", "0",
		"Vegetarian, no onion", "See you soon", "Yes", "2025-11-02 12:34:05",
	}
	for i, w := range want {
		if records[1][i] != w {
			t.Errorf("column %s = %q, want %q", ExportHeader[i], records[1][i], w)
		}
	}

	last := records[2]
	if last[20] != "No" || last[21] != "" {
		t.Errorf("pending party responded/submitted = %q/%q, want No/empty", last[20], last[21])
	}
}

func TestCodeSheet(t *testing.T) {
	var buf bytes.Buffer
	if err := CodeSheet(&buf, []model.Party{exportParty()}, "https://rsvp.example.com"); err != nil {
		t.Fatalf("code sheet: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if strings.Join(records[0], ",") != strings.Join(CodeSheetHeader, ",") {
		t.Errorf("header = %v", records[0])
	}
	row := records[1]
	if row[1] != "ABCD2345" || row[6] != "Wedding, Reception" {
		t.Errorf("code/invited = %q/%q", row[1], row[6])
	}
	if row[7] != "https://rsvp.example.com/rsvp/ABCD2345/" {
		t.Errorf("link = %q", row[7])
	}
}

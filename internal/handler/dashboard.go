package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/csvio"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/report"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

const (
	recentOnDashboard = 20
	recentInStats     = 5
)

// DashboardHandler serves the organizer pages and downloads.
type DashboardHandler struct {
	parties  *store.PartyStore
	members  *store.MemberStore
	events   *store.EventStore
	renderer *Renderer
	baseURL  string
	logger   *slog.Logger
}

func NewDashboardHandler(ps *store.PartyStore, ms *store.MemberStore, es *store.EventStore, rd *Renderer, baseURL string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		parties:  ps,
		members:  ms,
		events:   es,
		renderer: rd,
		baseURL:  baseURL,
		logger:   logger,
	}
}

type snapshot struct {
	parties []model.Party
	members map[string][]model.Member
	events  []model.Event
}

func (h *DashboardHandler) load() (*snapshot, error) {
	parties, err := h.parties.List()
	if err != nil {
		return nil, err
	}
	members, err := h.members.ListAll()
	if err != nil {
		return nil, err
	}
	events, err := h.events.List()
	if err != nil {
		return nil, err
	}
	return &snapshot{parties: parties, members: members, events: events}, nil
}

func filterFromQuery(r *http.Request) report.Filter {
	q := r.URL.Query()
	f := report.Filter{
		Event:  model.EventSlug(q.Get("event")),
		Status: q.Get("status"),
		Search: q.Get("q"),
	}
	if !f.Event.Valid() {
		f.Event = ""
	}
	switch f.Status {
	case report.FilterResponded, report.FilterPending, report.FilterAttending, report.FilterNotAttending:
	default:
		f.Status = ""
	}
	return f
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.load()
	if err != nil {
		h.logger.Error("load dashboard", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Title":   "Dashboard",
		"Summary": report.Summarize(snap.parties, snap.members, snap.events),
		"Recent":  report.Recent(snap.parties, recentOnDashboard),
		"Pending": report.PendingParties(snap.parties),
	})
}

type statusOption struct {
	Value string
	Label string
}

var statusOptions = []statusOption{
	{report.FilterResponded, "Responded"},
	{report.FilterPending, "Not responded"},
	{report.FilterAttending, "Attending any event"},
	{report.FilterNotAttending, "Declined any event"},
}

type cellView struct {
	Invited bool
	Status  model.ResponseStatus
	Label   string
	Guests  int
}

type guestRow struct {
	Party   model.Party
	Cells   []cellView
	Members int
}

// Guests renders the filtered guest list.
func (h *DashboardHandler) Guests(w http.ResponseWriter, r *http.Request) {
	snap, err := h.load()
	if err != nil {
		h.logger.Error("load guests", "error", err)
		http.Error(w, "failed to load guests", http.StatusInternalServerError)
		return
	}
	f := filterFromQuery(r)
	parties := f.Apply(snap.parties)

	rows := make([]guestRow, 0, len(parties))
	for _, p := range parties {
		row := guestRow{Party: p, Members: len(snap.members[p.ID])}
		for _, e := range snap.events {
			resp := p.Response(e.Slug)
			row.Cells = append(row.Cells, cellView{
				Invited: resp.Invited,
				Status:  resp.Status,
				Label:   resp.Status.Label(),
				Guests:  resp.Guests,
			})
		}
		rows = append(rows, row)
	}

	h.renderer.Render(w, r, http.StatusOK, "guest_list.html", map[string]any{
		"Title":    "Guests",
		"Filter":   map[string]string{"Event": string(f.Event), "Status": f.Status, "Search": f.Search},
		"Events":   snap.events,
		"Statuses": statusOptions,
		"Parties":  parties,
		"Rows":     rows,
		"Total":    len(snap.parties),
		"Colspan":  5 + len(snap.events),
	})
}

func (h *DashboardHandler) writeCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.logger.Error("write csv", "file", filename, "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	buf.WriteTo(w)
}

// Export downloads the guest list, honoring the same filters as Guests.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	parties, err := h.parties.List()
	if err != nil {
		h.logger.Error("list parties", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}
	parties = filterFromQuery(r).Apply(parties)
	h.writeCSV(w, "wedding_guests.csv", func(buf *bytes.Buffer) error {
		return csvio.Export(buf, parties)
	})
}

// Codes downloads the code sheet used to print invitations.
func (h *DashboardHandler) Codes(w http.ResponseWriter, r *http.Request) {
	parties, err := h.parties.List()
	if err != nil {
		h.logger.Error("list parties", "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}
	h.writeCSV(w, "guest_codes.csv", func(buf *bytes.Buffer) error {
		return csvio.CodeSheet(buf, parties, h.baseURL)
	})
}

type recentResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	RSVPSubmittedAt *time.Time `json:"rsvp_submitted_at"`
}

type eventHeadcount struct {
	Attending int `json:"attending"`
}

// Stats is the JSON summary polled by dashboards and scripts.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snap, err := h.load()
	if err != nil {
		h.logger.Error("load stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	sum := report.Summarize(snap.parties, snap.members, snap.events)

	events := make(map[model.EventSlug]eventHeadcount, len(sum.Events))
	for _, st := range sum.Events {
		events[st.Event.Slug] = eventHeadcount{Attending: st.Headcount}
	}
	recent := []recentResponse{}
	for _, p := range report.Recent(snap.parties, recentInStats) {
		recent = append(recent, recentResponse{ID: p.ID, Name: p.Name, RSVPSubmittedAt: p.RSVPSubmittedAt})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":         sum.TotalParties,
		"total_members": sum.TotalMembers,
		"responded":     sum.Responded,
		"pending":       sum.Pending,
		"response_rate": sum.ResponseRate,
		"events":        events,
		"event_stats":   sum.Events,
		"recent":        recent,
	})
}

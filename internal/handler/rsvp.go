package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/metrics"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/notify"
	"github.com/shaadi-rsvp/shaadi/internal/push"
	"github.com/shaadi-rsvp/shaadi/internal/qr"
	"github.com/shaadi-rsvp/shaadi/internal/rsvp"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	"github.com/shaadi-rsvp/shaadi/internal/websocket"
)

const (
	msgInvalidCode  = "Invalid RSVP code. Please check your invitation and try again."
	msgUnknownEmail = "We could not find an invitation with this email address. Please check the email or contact the couple directly."
	sendTimeout     = 15 * time.Second
)

// RSVPHandler serves the guest-facing pages.
type RSVPHandler struct {
	service  *rsvp.Service
	events   *store.EventStore
	notifier *notify.Notifier
	alerts   *push.Alerter
	hub      *websocket.Hub
	metrics  *metrics.Metrics
	renderer *Renderer
	baseURL  string
	logger   *slog.Logger
}

func NewRSVPHandler(
	svc *rsvp.Service,
	es *store.EventStore,
	n *notify.Notifier,
	alerts *push.Alerter,
	hub *websocket.Hub,
	m *metrics.Metrics,
	rd *Renderer,
	baseURL string,
	logger *slog.Logger,
) *RSVPHandler {
	return &RSVPHandler{
		service:  svc,
		events:   es,
		notifier: n,
		alerts:   alerts,
		hub:      hub,
		metrics:  m,
		renderer: rd,
		baseURL:  baseURL,
		logger:   logger,
	}
}

func (h *RSVPHandler) countLookup(method, result string) {
	if h.metrics != nil {
		h.metrics.Lookups.WithLabelValues(method, result).Inc()
	}
}

func (h *RSVPHandler) LookupPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "rsvp_lookup.html", map[string]any{"Title": "RSVP"})
}

// Lookup resolves a typed code and redirects to the party's RSVP page.
func (h *RSVPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("code")
	p, err := h.service.PartyByCode(raw)
	if errors.Is(err, rsvp.ErrNotFound) {
		h.countLookup("code", metrics.ResultNotFound)
		h.renderer.Render(w, r, http.StatusOK, "rsvp_lookup.html", map[string]any{
			"Title": "RSVP",
			"Code":  raw,
			"Error": msgInvalidCode,
		})
		return
	}
	if err != nil {
		h.logger.Error("lookup code", "error", err)
		http.Error(w, "failed to look up code", http.StatusInternalServerError)
		return
	}
	h.countLookup("code", metrics.ResultOK)
	http.Redirect(w, r, "/rsvp/"+p.Code+"/", http.StatusSeeOther)
}

func (h *RSVPHandler) ForgotCodePage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "forgot_code.html", map[string]any{"Title": "Forgot code"})
}

// ForgotCode emails the access code for a known address. Delivery problems do
// not change the outcome the guest sees.
func (h *RSVPHandler) ForgotCode(w http.ResponseWriter, r *http.Request) {
	addr := r.FormValue("email")
	p, err := h.service.LookupByEmail(addr)
	if errors.Is(err, rsvp.ErrNotFound) {
		h.countLookup("email", metrics.ResultNotFound)
		h.renderer.Render(w, r, http.StatusOK, "forgot_code.html", map[string]any{
			"Title": "Forgot code",
			"Email": addr,
			"Error": msgUnknownEmail,
		})
		return
	}
	if err != nil {
		h.logger.Error("lookup email", "error", err)
		http.Error(w, "failed to look up email", http.StatusInternalServerError)
		return
	}
	h.countLookup("email", metrics.ResultOK)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), sendTimeout)
	defer cancel()
	h.notifier.SendAccessCode(ctx, p)

	http.Redirect(w, r, "/rsvp/forgot-code/sent/", http.StatusSeeOther)
}

func (h *RSVPHandler) ForgotCodeSent(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "forgot_code_sent.html", map[string]any{"Title": "Code sent"})
}

func (h *RSVPHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusNotFound, "not_found.html", map[string]any{"Title": "Not found"})
}

// Form renders the RSVP page with the party's current answers.
func (h *RSVPHandler) Form(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("code")
	inv, err := h.service.LookupByCode(raw)
	if errors.Is(err, rsvp.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("load invitation", "error", err)
		http.Error(w, "failed to load invitation", http.StatusInternalServerError)
		return
	}
	if raw != inv.Party.Code {
		http.Redirect(w, r, "/rsvp/"+inv.Party.Code+"/", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, http.StatusOK, inv, rsvp.FormValues(inv), nil, false)
}

// Submit applies a submission. Invalid answers re-render the form with
// messages and nothing is saved.
func (h *RSVPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.PartyByCode(r.PathValue("code"))
	if errors.Is(err, rsvp.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("load invitation", "error", err)
		http.Error(w, "failed to load invitation", http.StatusInternalServerError)
		return
	}
	inv, err := h.service.Load(p.ID)
	if err != nil {
		h.logger.Error("load invitation", "party_id", p.ID, "error", err)
		http.Error(w, "failed to load invitation", http.StatusInternalServerError)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	saved, err := h.service.Submit(inv, r.PostForm)
	var verr *rsvp.ValidationError
	if errors.As(err, &verr) {
		h.renderForm(w, r, http.StatusUnprocessableEntity, inv, r.PostForm, verr.Fields, false)
		return
	}
	if err != nil {
		h.logger.Error("submit rsvp", "party_id", inv.Party.ID, "error", err)
		http.Error(w, "failed to save your RSVP, please try again", http.StatusInternalServerError)
		return
	}

	mode := "party"
	if saved.MemberMode() {
		mode = "member"
	}
	if h.metrics != nil {
		h.metrics.Submissions.WithLabelValues(mode).Inc()
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionResponded, saved.Party.ID, map[string]any{
		"name": saved.Party.Name,
	}))
	h.alerts.PartyResponded(saved.Party)
	h.renderForm(w, r, http.StatusOK, saved, rsvp.FormValues(saved), nil, true)
}

// QRCode serves a PNG of the party's RSVP link.
func (h *RSVPHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.PartyByCode(r.PathValue("code"))
	if errors.Is(err, rsvp.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.logger.Error("lookup code", "error", err)
		http.Error(w, "failed to look up code", http.StatusInternalServerError)
		return
	}
	png, err := qr.PNG(notify.RSVPLink(h.baseURL, p.Code), qr.DefaultSize)
	if err != nil {
		h.logger.Error("encode qr", "party_id", p.ID, "error", err)
		http.Error(w, "failed to render QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(png)
}

type choiceView struct {
	Name     string
	Label    string
	Value    string
	Error    string
	Optional bool
}

type sectionView struct {
	Event       model.Event
	Choices     []choiceView
	GuestsName  string
	GuestsValue string
	GuestsError string
	MaxGuests   int
}

type textView struct {
	Name  string
	Label string
	Value string
	Error string
}

func (h *RSVPHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, inv *rsvp.Invitation, values url.Values, errs map[string]string, submitted bool) {
	events, err := h.events.List()
	if err != nil {
		h.logger.Error("list events", "error", err)
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	h.renderer.Render(w, r, status, "rsvp_form.html", formData(inv, events, values, errs, submitted))
}

// formData lays out the form fields by event, in ceremony order.
func formData(inv *rsvp.Invitation, events []model.Event, values url.Values, errs map[string]string, submitted bool) map[string]any {
	details := make(map[model.EventSlug]model.Event, len(events))
	for _, e := range events {
		details[e.Slug] = e
	}
	names := make(map[int64]string, len(inv.Members))
	for _, m := range inv.Members {
		names[m.ID] = m.Name
	}

	var sections []sectionView
	for _, f := range inv.Fields() {
		if len(sections) == 0 || sections[len(sections)-1].Event.Slug != f.Event {
			e, ok := details[f.Event]
			if !ok {
				e = model.Event{Slug: f.Event, Name: f.Event.Title()}
			}
			sections = append(sections, sectionView{Event: e})
		}
		sec := &sections[len(sections)-1]
		sec.Choices = append(sec.Choices, choiceView{
			Name:     f.ChoiceName(),
			Label:    names[f.MemberID],
			Value:    values.Get(f.ChoiceName()),
			Error:    errs[f.ChoiceName()],
			Optional: f.MemberID != 0,
		})
		if f.MemberID == 0 {
			sec.GuestsName = f.GuestsName()
			sec.GuestsValue = values.Get(f.GuestsName())
			sec.GuestsError = errs[f.GuestsName()]
			sec.MaxGuests = f.MaxGuests
		}
	}

	var memberDietary []textView
	for _, m := range inv.Members {
		name := rsvp.MemberDietaryName(m.ID)
		memberDietary = append(memberDietary, textView{
			Name:  name,
			Label: m.Name,
			Value: values.Get(name),
			Error: errs[name],
		})
	}

	return map[string]any{
		"Title":         "Your RSVP",
		"Party":         inv.Party,
		"Sections":      sections,
		"MemberDietary": memberDietary,
		"Dietary": textView{
			Name:  rsvp.FieldDietary,
			Label: "Dietary requirements",
			Value: values.Get(rsvp.FieldDietary),
			Error: errs[rsvp.FieldDietary],
		},
		"Message": textView{
			Name:  rsvp.FieldMessage,
			Label: "A message for the couple",
			Value: values.Get(rsvp.FieldMessage),
			Error: errs[rsvp.FieldMessage],
		},
		"Submitted": submitted,
		"Invalid":   len(errs) > 0,
	}
}

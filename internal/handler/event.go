package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	"github.com/shaadi-rsvp/shaadi/internal/websocket"
)

type EventHandler struct {
	events *store.EventStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewEventHandler(es *store.EventStore, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: es, hub: hub, logger: logger}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List()
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

type eventRequest struct {
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	VenueName    string `json:"venue_name"`
	VenueAddress string `json:"venue_address"`
	Description  string `json:"description"`
	DressCode    string `json:"dress_code"`
	IsFeatured   bool   `json:"is_featured"`
	SortOrder    int    `json:"sort_order"`
}

// Update replaces an event's descriptive fields. The four events are fixed, so
// the slug only selects which one.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := model.EventSlug(r.PathValue("slug"))
	if !slug.Valid() {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Date != "" {
		if _, err := time.Parse("2006-01-02", req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	event, err := h.events.Update(model.Event{
		Slug:         slug,
		Name:         req.Name,
		Icon:         req.Icon,
		Date:         req.Date,
		Time:         req.Time,
		VenueName:    req.VenueName,
		VenueAddress: req.VenueAddress,
		Description:  req.Description,
		DressCode:    req.DressCode,
		IsFeatured:   req.IsFeatured,
		SortOrder:    req.SortOrder,
	})
	if err != nil {
		h.logger.Error("update event", "slug", slug, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityEvent, websocket.ActionUpdated, string(slug), nil))
	writeJSON(w, http.StatusOK, event)
}

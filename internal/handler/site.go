package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	"github.com/shaadi-rsvp/shaadi/internal/websocket"
)

// SiteHandler serves the home page and the organizer-editable content on it.
type SiteHandler struct {
	info       *store.WeddingInfoStore
	milestones *store.MilestoneStore
	events     *store.EventStore
	hub        *websocket.Hub
	renderer   *Renderer
	logger     *slog.Logger
}

func NewSiteHandler(
	is *store.WeddingInfoStore,
	ms *store.MilestoneStore,
	es *store.EventStore,
	hub *websocket.Hub,
	rd *Renderer,
	logger *slog.Logger,
) *SiteHandler {
	return &SiteHandler{info: is, milestones: ms, events: es, hub: hub, renderer: rd, logger: logger}
}

func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List()
	if err != nil {
		h.logger.Error("list events", "error", err)
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	info, err := h.info.Get()
	if err != nil {
		h.logger.Error("get wedding info", "error", err)
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	}
	milestones, err := h.milestones.List()
	if err != nil {
		h.logger.Error("list milestones", "error", err)
		http.Error(w, "failed to load page", http.StatusInternalServerError)
		return
	}
	h.renderer.Render(w, r, http.StatusOK, "home.html", map[string]any{
		"Events":     events,
		"Info":       info,
		"Milestones": milestones,
	})
}

// GetInfo handles GET /api/wedding-info
func (h *SiteHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.info.Get()
	if err != nil {
		h.logger.Error("get wedding info", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load wedding info")
		return
	}
	if info == nil {
		writeError(w, http.StatusNotFound, "wedding info not set")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type weddingInfoRequest struct {
	Partner1Name   string `json:"partner1_name"`
	Partner2Name   string `json:"partner2_name"`
	WeddingDate    string `json:"wedding_date"`
	Location       string `json:"location"`
	Hashtag        string `json:"hashtag"`
	WelcomeTitle   string `json:"welcome_title"`
	WelcomeMessage string `json:"welcome_message"`
}

// UpdateInfo handles PUT /api/wedding-info
func (h *SiteHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	var req weddingInfoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Partner1Name = strings.TrimSpace(req.Partner1Name)
	req.Partner2Name = strings.TrimSpace(req.Partner2Name)
	if req.Partner1Name == "" || req.Partner2Name == "" {
		writeError(w, http.StatusBadRequest, "both partner names are required")
		return
	}
	if _, err := time.Parse("2006-01-02", req.WeddingDate); err != nil {
		writeError(w, http.StatusBadRequest, "wedding_date must be YYYY-MM-DD")
		return
	}

	info, err := h.info.Update(model.WeddingInfo{
		Partner1Name:   req.Partner1Name,
		Partner2Name:   req.Partner2Name,
		WeddingDate:    req.WeddingDate,
		Location:       strings.TrimSpace(req.Location),
		Hashtag:        strings.TrimSpace(req.Hashtag),
		WelcomeTitle:   strings.TrimSpace(req.WelcomeTitle),
		WelcomeMessage: req.WelcomeMessage,
	})
	if err != nil {
		h.logger.Error("update wedding info", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update wedding info")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityWeddingInfo, websocket.ActionUpdated, "", nil))
	writeJSON(w, http.StatusOK, info)
}

// ListMilestones handles GET /api/milestones
func (h *SiteHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.milestones.List()
	if err != nil {
		h.logger.Error("list milestones", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list milestones")
		return
	}
	if milestones == nil {
		milestones = []model.Milestone{}
	}
	writeJSON(w, http.StatusOK, milestones)
}

func decodeMilestone(w http.ResponseWriter, r *http.Request) (model.MilestoneInput, bool) {
	var in model.MilestoneInput
	if !decodeJSON(w, r, &in) {
		return in, false
	}
	in.Year = strings.TrimSpace(in.Year)
	in.Title = strings.TrimSpace(in.Title)
	if in.Year == "" || in.Title == "" {
		writeError(w, http.StatusBadRequest, "year and title are required")
		return in, false
	}
	return in, true
}

// CreateMilestone handles POST /api/milestones
func (h *SiteHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeMilestone(w, r)
	if !ok {
		return
	}
	m, err := h.milestones.Create(in)
	if err != nil {
		h.logger.Error("create milestone", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create milestone")
		return
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilestone, websocket.ActionCreated, strconv.FormatInt(m.ID, 10), nil))
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMilestone handles PUT /api/milestones/{id}
func (h *SiteHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	in, ok := decodeMilestone(w, r)
	if !ok {
		return
	}
	m, err := h.milestones.Update(id, in)
	if err != nil {
		h.logger.Error("update milestone", "milestone_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update milestone")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "milestone not found")
		return
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilestone, websocket.ActionUpdated, strconv.FormatInt(id, 10), nil))
	writeJSON(w, http.StatusOK, m)
}

// DeleteMilestone handles DELETE /api/milestones/{id}
func (h *SiteHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ok, err := h.milestones.Delete(id)
	if err != nil {
		h.logger.Error("delete milestone", "milestone_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete milestone")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "milestone not found")
		return
	}
	broadcast(h.hub, websocket.NewMessage(websocket.EntityMilestone, websocket.ActionDeleted, strconv.FormatInt(id, 10), nil))
	w.WriteHeader(http.StatusNoContent)
}

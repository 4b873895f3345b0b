package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/code"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	"github.com/shaadi-rsvp/shaadi/internal/websocket"
)

// Bulk invitation presets.
const (
	PresetAll              = "all"
	PresetWeddingReception = "wedding_reception"
)

type PartyHandler struct {
	parties *store.PartyStore
	members *store.MemberStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewPartyHandler(ps *store.PartyStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *PartyHandler {
	return &PartyHandler{parties: ps, members: ms, hub: hub, logger: logger}
}

type partyRequest struct {
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	PartyName   string            `json:"party_name"`
	MaxGuests   int               `json:"max_guests"`
	Notes       string            `json:"notes"`
	Invitations model.Invitations `json:"invitations"`
	Code        string            `json:"rsvp_code"`
}

func (req *partyRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.PartyName = strings.TrimSpace(req.PartyName)
	if req.Name == "" {
		return "name is required"
	}
	if req.MaxGuests == 0 {
		req.MaxGuests = 1
	}
	if req.MaxGuests < 1 {
		return "max_guests must be at least 1"
	}
	if err := req.Invitations.Validate(); err != nil {
		return err.Error()
	}
	if req.Code != "" {
		req.Code = code.Normalize(req.Code)
		if !code.Acceptable(req.Code) {
			return "rsvp_code must be 8 letters or digits"
		}
	}
	return ""
}

func (req *partyRequest) input() model.PartyInput {
	return model.PartyInput{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		PartyName:   req.PartyName,
		MaxGuests:   req.MaxGuests,
		Notes:       req.Notes,
		Invitations: req.Invitations,
	}
}

// partyDetail is a party with its members.
type partyDetail struct {
	*model.Party
	Members []model.Member `json:"members"`
}

func (h *PartyHandler) List(w http.ResponseWriter, r *http.Request) {
	parties, err := h.parties.List()
	if err != nil {
		h.logger.Error("list parties", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list parties")
		return
	}
	parties = filterFromQuery(r).Apply(parties)
	writeJSON(w, http.StatusOK, parties)
}

func (h *PartyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var (
		party *model.Party
		err   error
	)
	if req.Code != "" {
		party, err = h.parties.CreateWithCode(req.input(), req.Code)
	} else {
		party, err = h.parties.Create(req.input())
	}
	if errors.Is(err, store.ErrCodeTaken) {
		writeError(w, http.StatusConflict, "rsvp_code is already in use")
		return
	}
	if err != nil {
		h.logger.Error("create party", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create party")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionCreated, party.ID, nil))
	writeJSON(w, http.StatusCreated, party)
}

func (h *PartyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	party, err := h.parties.GetByID(id)
	if err != nil {
		h.logger.Error("get party", "party_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get party")
		return
	}
	if party == nil {
		writeError(w, http.StatusNotFound, "party not found")
		return
	}
	members, err := h.members.ListByParty(id)
	if err != nil {
		h.logger.Error("list members", "party_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get party")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, partyDetail{Party: party, Members: members})
}

// Update replaces a party's details. Omitted invitations keep the current set.
func (h *PartyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req partyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.parties.GetByID(id)
	if err != nil {
		h.logger.Error("get party", "party_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update party")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "party not found")
		return
	}
	if req.Invitations == nil {
		req.Invitations = existing.Invitations()
	}

	party, err := h.parties.Update(id, req.input())
	if errors.Is(err, store.ErrPartyNotFound) {
		writeError(w, http.StatusNotFound, "party not found")
		return
	}
	if errors.Is(err, store.ErrTooManyMembers) {
		writeError(w, http.StatusConflict, "max_guests is below the party's member count")
		return
	}
	if err != nil {
		h.logger.Error("update party", "party_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update party")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionUpdated, party.ID, nil))
	writeJSON(w, http.StatusOK, party)
}

func (h *PartyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.parties.Delete(id); err != nil {
		if errors.Is(err, store.ErrPartyNotFound) {
			writeError(w, http.StatusNotFound, "party not found")
			return
		}
		h.logger.Error("delete party", "party_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete party")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}

type idsRequest struct {
	IDs    []string `json:"ids"`
	Preset string   `json:"preset"`
}

func (h *PartyHandler) decodeIDs(w http.ResponseWriter, r *http.Request) (*idsRequest, bool) {
	var req idsRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return nil, false
	}
	return &req, true
}

func (h *PartyHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}
	n, err := h.parties.DeleteMany(req.IDs)
	if err != nil {
		h.logger.Error("bulk delete parties", "count", len(req.IDs), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete parties")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionDeleted, "", map[string]any{"count": n}))
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// BulkInvitations applies an invitation preset to many parties.
func (h *PartyHandler) BulkInvitations(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}
	var inv model.Invitations
	switch req.Preset {
	case PresetAll:
		inv = model.AllEvents()
	case PresetWeddingReception:
		inv = model.WeddingAndReception()
	default:
		writeError(w, http.StatusBadRequest, `preset must be "all" or "wedding_reception"`)
		return
	}

	n, err := h.parties.SetInvitations(req.IDs, inv)
	if err != nil {
		h.logger.Error("bulk invitations", "preset", req.Preset, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update invitations")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionUpdated, "", map[string]any{"count": n}))
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// RegenerateCodes gives each listed party a fresh access code. Unknown ids are
// skipped.
func (h *PartyHandler) RegenerateCodes(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}
	codes := make(map[string]string, len(req.IDs))
	for _, id := range req.IDs {
		c, err := h.parties.RegenerateCode(id)
		if errors.Is(err, store.ErrPartyNotFound) {
			continue
		}
		if err != nil {
			h.logger.Error("regenerate code", "party_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to regenerate codes")
			return
		}
		codes[id] = c
	}

	h.logger.Info("codes regenerated", "count", len(codes))
	broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionUpdated, "", map[string]any{"count": len(codes)}))
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	"github.com/shaadi-rsvp/shaadi/internal/websocket"
)

type MemberHandler struct {
	parties *store.PartyStore
	members *store.MemberStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewMemberHandler(ps *store.PartyStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{parties: ps, members: ms, hub: hub, logger: logger}
}

type memberRequest struct {
	Name        string            `json:"name"`
	Relation    model.Relation    `json:"relation"`
	Invitations model.Invitations `json:"invitations"`
}

func (req *memberRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Relation != "" && !req.Relation.Valid() {
		return "invalid relation"
	}
	if err := req.Invitations.Validate(); err != nil {
		return err.Error()
	}
	return ""
}

func (req *memberRequest) input() model.MemberInput {
	return model.MemberInput{Name: req.Name, Relation: req.Relation, Invitations: req.Invitations}
}

// memberError maps store errors to a status and message.
func memberError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrPartyNotFound):
		return http.StatusNotFound, "party not found"
	case errors.Is(err, store.ErrMemberNotFound):
		return http.StatusNotFound, "member not found"
	case errors.Is(err, store.ErrPartyFull):
		return http.StatusConflict, "party already has max_guests members"
	case errors.Is(err, store.ErrNotInvited):
		return http.StatusBadRequest, "member can only be invited to the party's events"
	}
	return 0, ""
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("id")
	party, err := h.parties.GetByID(partyID)
	if err != nil {
		h.logger.Error("get party", "party_id", partyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if party == nil {
		writeError(w, http.StatusNotFound, "party not found")
		return
	}
	members, err := h.members.ListByParty(partyID)
	if err != nil {
		h.logger.Error("list members", "party_id", partyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// Create adds a member. Without explicit invitations the member is invited to
// every event the party is invited to.
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("id")
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Invitations == nil {
		party, err := h.parties.GetByID(partyID)
		if err != nil {
			h.logger.Error("get party", "party_id", partyID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create member")
			return
		}
		if party == nil {
			writeError(w, http.StatusNotFound, "party not found")
			return
		}
		req.Invitations = party.Invitations()
	}

	member, err := h.members.Create(partyID, req.input())
	if status, msg := memberError(err); status != 0 {
		writeError(w, status, msg)
		return
	}
	if err != nil {
		h.logger.Error("create member", "party_id", partyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionCreated, partyID, map[string]any{"member_id": member.ID}))
	writeJSON(w, http.StatusCreated, member)
}

// Update replaces a member's details. Omitted invitations keep the current set.
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.members.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	if req.Invitations == nil {
		req.Invitations = existing.Invitations()
	}

	member, err := h.members.Update(id, req.input())
	if status, msg := memberError(err); status != 0 {
		writeError(w, status, msg)
		return
	}
	if err != nil {
		h.logger.Error("update member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, member.PartyID, map[string]any{"member_id": member.ID}))
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.members.GetByID(id)
	if err != nil {
		h.logger.Error("get member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	if err := h.members.Delete(id); err != nil {
		if status, msg := memberError(err); status != 0 {
			writeError(w, status, msg)
			return
		}
		h.logger.Error("delete member", "member_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionDeleted, existing.PartyID, map[string]any{"member_id": id}))
	w.WriteHeader(http.StatusNoContent)
}

// Reorder sets the display order of a party's members.
func (h *MemberHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	partyID := r.PathValue("id")
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	if err := h.members.UpdateSortOrder(partyID, req.IDs); err != nil {
		h.logger.Error("reorder members", "party_id", partyID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder members")
		return
	}

	broadcast(h.hub, websocket.NewMessage(websocket.EntityMember, websocket.ActionUpdated, partyID, nil))
	w.WriteHeader(http.StatusNoContent)
}

package rsvp

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/code"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

// Invitation is a party with its members, as shown on the RSVP form.
type Invitation struct {
	Party   *model.Party
	Members []model.Member
}

func (inv *Invitation) MemberMode() bool {
	return MemberMode(inv.Members)
}

func (inv *Invitation) Fields() []Field {
	return Fields(inv.Party, inv.Members)
}

// Service implements guest-facing lookup and submission.
type Service struct {
	parties *store.PartyStore
	members *store.MemberStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(parties *store.PartyStore, members *store.MemberStore, logger *slog.Logger) *Service {
	return &Service{
		parties: parties,
		members: members,
		logger:  logger.With("component", "rsvp"),
		now:     time.Now,
	}
}

// LookupByCode finds the invitation for an access code, ignoring case and
// surrounding whitespace, and records the view.
func (s *Service) LookupByCode(raw string) (*Invitation, error) {
	p, err := s.PartyByCode(raw)
	if err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if err := s.parties.TouchViewed(p.ID, at); err != nil {
		s.logger.Error("record view", "party_id", p.ID, "error", err)
	} else {
		p.LastViewedAt = &at
	}
	return s.withMembers(p)
}

// PartyByCode resolves an access code without recording a view.
func (s *Service) PartyByCode(raw string) (*model.Party, error) {
	accessCode := code.Normalize(raw)
	if len(accessCode) != code.Length {
		return nil, ErrNotFound
	}
	p, err := s.parties.GetByCode(accessCode)
	if err != nil {
		return nil, fmt.Errorf("lookup code: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// LookupByEmail finds the earliest-created party registered under an email
// address, for code recovery.
func (s *Service) LookupByEmail(email string) (*model.Party, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrNotFound
	}
	p, err := s.parties.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// Load returns the invitation for a party id.
func (s *Service) Load(partyID string) (*Invitation, error) {
	p, err := s.parties.GetByID(partyID)
	if err != nil {
		return nil, fmt.Errorf("load party: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return s.withMembers(p)
}

func (s *Service) withMembers(p *model.Party) (*Invitation, error) {
	members, err := s.members.ListByParty(p.ID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	return &Invitation{Party: p, Members: members}, nil
}

// Submit validates and stores a submission, returning the saved invitation.
// A *ValidationError leaves stored state untouched.
func (s *Service) Submit(inv *Invitation, form url.Values) (*Invitation, error) {
	resp, err := Decode(inv.Party, inv.Members, form, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.parties.ApplyResponse(inv.Party.ID, resp); err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	s.logger.Info("rsvp submitted",
		"party_id", inv.Party.ID,
		"member_mode", inv.MemberMode(),
		"events", len(resp.Events),
	)
	return s.Load(inv.Party.ID)
}

// FormValues pre-fills the RSVP form from stored answers.
func FormValues(inv *Invitation) url.Values {
	v := url.Values{}
	p := inv.Party
	v.Set(FieldDietary, p.DietaryRequirements)
	v.Set(FieldMessage, p.Message)
	if !inv.MemberMode() {
		for _, f := range inv.Fields() {
			r := p.Response(f.Event)
			if r.Status != model.StatusPending {
				v.Set(f.ChoiceName(), string(r.Status))
			}
			if r.Status == model.StatusAttending {
				v.Set(f.GuestsName(), strconv.Itoa(r.Guests))
			}
		}
		return v
	}
	byID := make(map[int64]*model.Member, len(inv.Members))
	for i := range inv.Members {
		m := &inv.Members[i]
		byID[m.ID] = m
		v.Set(MemberDietaryName(m.ID), m.DietaryRequirements)
	}
	for _, f := range inv.Fields() {
		if m, ok := byID[f.MemberID]; ok {
			v.Set(f.ChoiceName(), string(m.Response(f.Event).Status))
		}
	}
	return v
}

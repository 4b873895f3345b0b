package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaadi-rsvp/shaadi/internal/code"
	"github.com/shaadi-rsvp/shaadi/internal/database"
	"github.com/shaadi-rsvp/shaadi/internal/model"
)

func setupStoreTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestParty(t *testing.T, s *PartyStore, name, email string, maxGuests int, events ...model.EventSlug) *model.Party {
	t.Helper()
	inv := model.Invitations{}
	for _, e := range events {
		inv[e] = true
	}
	p, err := s.Create(model.PartyInput{Name: name, Email: email, MaxGuests: maxGuests, Invitations: inv})
	if err != nil {
		t.Fatalf("create party %q: %v", name, err)
	}
	return p
}

// codeSequence returns a generator that yields the given codes in order.
func codeSequence(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func TestPartyCreate(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))

	p := createTestParty(t, s, "Sharma Family", "sharma@example.com", 4, model.Wedding, model.Reception)

	if _, err := uuid.Parse(p.ID); err != nil {
		t.Errorf("id %q is not a uuid: %v", p.ID, err)
	}
	if !code.Valid(p.Code) {
		t.Errorf("code %q is not valid", p.Code)
	}
	if p.MaxGuests != 4 {
		t.Errorf("max_guests = %d, want 4", p.MaxGuests)
	}
	for _, slug := range model.EventSlugs {
		r := p.Response(slug)
		wantInvited := slug == model.Wedding || slug == model.Reception
		if r.Invited != wantInvited {
			t.Errorf("%s invited = %v, want %v", slug, r.Invited, wantInvited)
		}
		if r.Status != model.StatusPending || r.Guests != 0 {
			t.Errorf("%s = %s/%d, want pending/0", slug, r.Status, r.Guests)
		}
	}
	if p.HasResponded || p.RSVPSubmittedAt != nil || p.LastViewedAt != nil {
		t.Error("new party should have no response bookkeeping")
	}
}

func TestPartyCreateDefaultsMaxGuests(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))

	p := createTestParty(t, s, "Solo", "", 0)
	if p.MaxGuests != 1 {
		t.Errorf("max_guests = %d, want 1", p.MaxGuests)
	}
}

func TestPartyCreateRetriesOnCodeCollision(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	s.newCode = codeSequence("AAAAAAAA", "AAAAAAAA", "BBBBBBBB")

	first := createTestParty(t, s, "First", "", 1)
	second := createTestParty(t, s, "Second", "", 1)

	if first.Code != "AAAAAAAA" {
		t.Errorf("first code = %q, want AAAAAAAA", first.Code)
	}
	if second.Code != "BBBBBBBB" {
		t.Errorf("second code = %q, want BBBBBBBB", second.Code)
	}
}

func TestPartyCreateRetryExhausted(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	s.newCode = codeSequence("CCCCCCCC")

	createTestParty(t, s, "Holder", "", 1)
	_, err := s.Create(model.PartyInput{Name: "Unlucky", MaxGuests: 1})
	if !errors.Is(err, code.ErrRetryExhausted) {
		t.Fatalf("err = %v, want ErrRetryExhausted", err)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPartyCodesUnique(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		p := createTestParty(t, s, "Guest", "", 1)
		if len(p.Code) != code.Length || !code.Valid(p.Code) {
			t.Fatalf("code %q is not valid", p.Code)
		}
		if seen[p.Code] {
			t.Fatalf("duplicate code %q", p.Code)
		}
		seen[p.Code] = true
	}
}

func TestPartyCreateWithCode(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))

	p, err := s.CreateWithCode(model.PartyInput{Name: "Sharma", MaxGuests: 2}, "SHARMA01")
	if err != nil {
		t.Fatalf("create with code: %v", err)
	}
	if p.Code != "SHARMA01" {
		t.Errorf("code = %q, want SHARMA01", p.Code)
	}

	_, err = s.CreateWithCode(model.PartyInput{Name: "Other", MaxGuests: 1}, "SHARMA01")
	if !errors.Is(err, ErrCodeTaken) {
		t.Fatalf("err = %v, want ErrCodeTaken", err)
	}
}

func TestPartyGetByCode(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	created := createTestParty(t, s, "Patel Family", "", 2, model.Wedding)

	p, err := s.GetByCode(created.Code)
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if p == nil || p.ID != created.ID {
		t.Fatalf("got %+v, want party %s", p, created.ID)
	}

	missing, err := s.GetByCode("ZZZZZZZZ")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown code, got %+v", missing)
	}
}

func TestPartyGetByEmailPicksEarliest(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	first := createTestParty(t, s, "Zed", "test@x.com", 1)
	createTestParty(t, s, "Amy", "TEST@X.COM", 1)

	for i := 0; i < 3; i++ {
		p, err := s.GetByEmail("Test@X.com")
		if err != nil {
			t.Fatalf("get by email: %v", err)
		}
		if p == nil || p.ID != first.ID {
			t.Fatalf("got %+v, want first party %s", p, first.ID)
		}
	}
}

func TestPartyGetByEmailIgnoresBlank(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	createTestParty(t, s, "No Email", "", 1)

	p, err := s.GetByEmail("")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if p != nil {
		t.Errorf("blank email matched %q", p.Name)
	}
}

func TestPartyListOrderedByName(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	createTestParty(t, s, "charlie", "", 1)
	createTestParty(t, s, "Alice", "", 1)
	createTestParty(t, s, "bob", "", 1)

	parties, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Alice", "bob", "charlie"}
	if len(parties) != len(want) {
		t.Fatalf("len = %d, want %d", len(parties), len(want))
	}
	for i, name := range want {
		if parties[i].Name != name {
			t.Errorf("parties[%d] = %q, want %q", i, parties[i].Name, name)
		}
	}
}

func TestPartyUpdateWithdrawsInvitation(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	p := createTestParty(t, s, "Kapoor", "", 3, model.Wedding, model.Reception)

	err := s.ApplyResponse(p.ID, Response{
		Events: map[model.EventSlug]model.EventResponse{
			model.Wedding:   {Status: model.StatusAttending, Guests: 3},
			model.Reception: {Status: model.StatusAttending, Guests: 2},
		},
		SubmittedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("apply response: %v", err)
	}

	updated, err := s.Update(p.ID, model.PartyInput{
		Name:        "Kapoor Family",
		MaxGuests:   2,
		Invitations: model.Invitations{model.Reception: true},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Kapoor Family" {
		t.Errorf("name = %q, want %q", updated.Name, "Kapoor Family")
	}
	if w := updated.Response(model.Wedding); w.Invited || w.Status != model.StatusPending || w.Guests != 0 {
		t.Errorf("wedding = %+v, want uninvited pending/0", w)
	}
	if r := updated.Response(model.Reception); r.Status != model.StatusAttending || r.Guests != 2 {
		t.Errorf("reception = %+v, want attending/2", r)
	}
}

func TestPartyUpdateClampsGuests(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	p := createTestParty(t, s, "Mehta", "", 5, model.Wedding)

	err := s.ApplyResponse(p.ID, Response{
		Events:      map[model.EventSlug]model.EventResponse{model.Wedding: {Status: model.StatusAttending, Guests: 5}},
		SubmittedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("apply response: %v", err)
	}

	updated, err := s.Update(p.ID, model.PartyInput{
		Name:        "Mehta",
		MaxGuests:   2,
		Invitations: model.Invitations{model.Wedding: true},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := updated.Response(model.Wedding).Guests; got != 2 {
		t.Errorf("wedding guests = %d, want 2", got)
	}
}

func TestPartyUpdateNotFound(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))

	_, err := s.Update("missing", model.PartyInput{Name: "X", MaxGuests: 1})
	if !errors.Is(err, ErrPartyNotFound) {
		t.Fatalf("err = %v, want ErrPartyNotFound", err)
	}
}

func TestPartySetInvitations(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	a := createTestParty(t, s, "A", "", 1)
	b := createTestParty(t, s, "B", "", 1, model.Mendhi)
	c := createTestParty(t, s, "C", "", 1)

	n, err := s.SetInvitations([]string{a.ID, b.ID}, model.Invitations{model.Wedding: true, model.Reception: true})
	if err != nil {
		t.Fatalf("set invitations: %v", err)
	}
	if n != 2 {
		t.Errorf("affected = %d, want 2", n)
	}

	gotB, _ := s.GetByID(b.ID)
	if gotB.IsInvited(model.Mendhi) {
		t.Error("B should no longer be invited to mendhi")
	}
	if !gotB.IsInvited(model.Wedding) || !gotB.IsInvited(model.Reception) {
		t.Error("B should be invited to wedding and reception")
	}
	gotC, _ := s.GetByID(c.ID)
	if len(gotC.InvitedEvents()) != 0 {
		t.Errorf("C invited events = %v, want none", gotC.InvitedEvents())
	}
}

func TestPartyRegenerateCode(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	s.newCode = codeSequence("DDDDDDDD", "EEEEEEEE", "EEEEEEEE", "GGGGGGGG")
	p := createTestParty(t, s, "Regen", "", 1)
	createTestParty(t, s, "Other", "", 1)

	newCode, err := s.RegenerateCode(p.ID)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if newCode != "GGGGGGGG" {
		t.Errorf("new code = %q, want GGGGGGGG", newCode)
	}
	old, _ := s.GetByCode("DDDDDDDD")
	if old != nil {
		t.Error("old code should no longer resolve")
	}

	if _, err := s.RegenerateCode("missing"); !errors.Is(err, ErrPartyNotFound) {
		t.Errorf("err = %v, want ErrPartyNotFound", err)
	}
}

func TestPartyTouchViewed(t *testing.T) {
	s := NewPartyStore(setupStoreTestDB(t))
	p := createTestParty(t, s, "Viewer", "", 1)

	at := time.Date(2025, 11, 1, 9, 30, 0, 0, time.UTC)
	if err := s.TouchViewed(p.ID, at); err != nil {
		t.Fatalf("touch viewed: %v", err)
	}
	got, _ := s.GetByID(p.ID)
	if got.LastViewedAt == nil || !got.LastViewedAt.Equal(at) {
		t.Errorf("last_viewed_at = %v, want %v", got.LastViewedAt, at)
	}
}

func TestPartyDeleteManyCascades(t *testing.T) {
	db := setupStoreTestDB(t)
	s := NewPartyStore(db)
	ms := NewMemberStore(db)

	a := createTestParty(t, s, "A", "", 2, model.Wedding)
	b := createTestParty(t, s, "B", "", 1)
	keep := createTestParty(t, s, "Keep", "", 1)
	if _, err := ms.Create(a.ID, model.MemberInput{Name: "A1", Invitations: model.Invitations{model.Wedding: true}}); err != nil {
		t.Fatalf("create member: %v", err)
	}

	n, err := s.DeleteMany([]string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("delete many: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	members, err := ms.ListByParty(a.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("members left = %d, want 0", len(members))
	}
	if got, _ := s.GetByID(keep.ID); got == nil {
		t.Error("unrelated party was deleted")
	}

	if err := s.Delete(keep.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(keep.ID); !errors.Is(err, ErrPartyNotFound) {
		t.Errorf("second delete err = %v, want ErrPartyNotFound", err)
	}
}

func TestPartyUpdateRejectsMaxGuestsBelowMembers(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Iyer", "", 3, model.Wedding)
	for _, name := range []string{"Ravi", "Meena", "Kiran"} {
		if _, err := ms.Create(p.ID, model.MemberInput{Name: name, Invitations: model.Invitations{model.Wedding: true}}); err != nil {
			t.Fatalf("create member %s: %v", name, err)
		}
	}

	_, err := ps.Update(p.ID, model.PartyInput{Name: "Iyer", MaxGuests: 1, Invitations: model.Invitations{model.Wedding: true}})
	if !errors.Is(err, ErrTooManyMembers) {
		t.Fatalf("err = %v, want ErrTooManyMembers", err)
	}
	got, _ := ps.GetByID(p.ID)
	if got.MaxGuests != 3 {
		t.Errorf("max_guests = %d, want unchanged 3", got.MaxGuests)
	}

	if _, err := ps.Update(p.ID, model.PartyInput{Name: "Iyer", MaxGuests: 3, Invitations: model.Invitations{model.Wedding: true}}); err != nil {
		t.Errorf("max_guests equal to member count: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	p := createTestParty(t, ps, "Taken", "", 1)

	other := createTestParty(t, ps, "Other", "", 1)
	_, err := db.Exec(`UPDATE parties SET rsvp_code = ? WHERE id = ?`, p.Code, other.ID)
	if !isUniqueViolation(err, "parties.rsvp_code") {
		t.Errorf("isUniqueViolation(%v) = false, want true", err)
	}
	if isUniqueViolation(err, "parties.email") {
		t.Error("violation should only match its own column")
	}
	if isUniqueViolation(errors.New("UNIQUE constraint failed: parties.rsvp_code"), "parties.rsvp_code") {
		t.Error("plain error text should not count as a constraint violation")
	}
	if isUniqueViolation(nil, "parties.rsvp_code") {
		t.Error("nil error is not a violation")
	}
}

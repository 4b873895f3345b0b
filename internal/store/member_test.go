package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

func TestMemberCreate(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Gupta", "", 3, model.Wedding, model.Reception)

	m, err := ms.Create(p.ID, model.MemberInput{
		Name:        "Anita",
		Relation:    model.RelationMother,
		Invitations: model.Invitations{model.Wedding: true},
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if m.PartyID != p.ID {
		t.Errorf("party_id = %q, want %q", m.PartyID, p.ID)
	}
	if m.Relation != model.RelationMother {
		t.Errorf("relation = %q, want mother", m.Relation)
	}
	if !m.IsInvited(model.Wedding) || m.IsInvited(model.Reception) {
		t.Errorf("invitations = %+v, want wedding only", m.Events)
	}
	if m.Response(model.Wedding).Status != model.StatusPending {
		t.Errorf("status = %s, want pending", m.Response(model.Wedding).Status)
	}
}

func TestMemberCreateUnknownRelationDefaultsToOther(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Gupta", "", 1)

	m, err := ms.Create(p.ID, model.MemberInput{Name: "Kid", Relation: "cousin"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if m.Relation != model.RelationOther {
		t.Errorf("relation = %q, want other", m.Relation)
	}
}

func TestMemberCreateRespectsMaxGuests(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Small", "", 2)

	for _, name := range []string{"One", "Two"} {
		if _, err := ms.Create(p.ID, model.MemberInput{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	_, err := ms.Create(p.ID, model.MemberInput{Name: "Three"})
	if !errors.Is(err, ErrPartyFull) {
		t.Fatalf("err = %v, want ErrPartyFull", err)
	}
}

func TestMemberCreateRejectsUninvitedEvent(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Limited", "", 2, model.Wedding)

	_, err := ms.Create(p.ID, model.MemberInput{Name: "Eager", Invitations: model.Invitations{model.Mendhi: true}})
	if !errors.Is(err, ErrNotInvited) {
		t.Fatalf("err = %v, want ErrNotInvited", err)
	}
}

func TestMemberCreateUnknownParty(t *testing.T) {
	ms := NewMemberStore(setupStoreTestDB(t))

	_, err := ms.Create("missing", model.MemberInput{Name: "Ghost"})
	if !errors.Is(err, ErrPartyNotFound) {
		t.Fatalf("err = %v, want ErrPartyNotFound", err)
	}
}

func TestMemberSortOrder(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Order", "", 3)

	var ids []int64
	for _, name := range []string{"A", "B", "C"} {
		m, err := ms.Create(p.ID, model.MemberInput{Name: name})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		ids = append(ids, m.ID)
	}

	if err := ms.UpdateSortOrder(p.ID, []int64{ids[2], ids[0], ids[1]}); err != nil {
		t.Fatalf("update sort order: %v", err)
	}
	members, err := ms.ListByParty(p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"C", "A", "B"}
	for i, name := range want {
		if members[i].Name != name {
			t.Errorf("members[%d] = %q, want %q", i, members[i].Name, name)
		}
	}
}

func TestMemberUpdateWithdrawsInvitation(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Update", "", 2, model.Wedding, model.Reception)

	m, err := ms.Create(p.ID, model.MemberInput{
		Name:        "Dev",
		Invitations: model.Invitations{model.Wedding: true, model.Reception: true},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`UPDATE members SET rsvp_wedding = 'attending' WHERE id = ?`, m.ID); err != nil {
		t.Fatalf("seed response: %v", err)
	}

	updated, err := ms.Update(m.ID, model.MemberInput{
		Name:        "Dev Kumar",
		Relation:    model.RelationSon,
		Invitations: model.Invitations{model.Reception: true},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Dev Kumar" {
		t.Errorf("name = %q, want %q", updated.Name, "Dev Kumar")
	}
	if w := updated.Response(model.Wedding); w.Invited || w.Status != model.StatusPending {
		t.Errorf("wedding = %+v, want uninvited pending", w)
	}

	if _, err := ms.Update(m.ID, model.MemberInput{Name: "X", Invitations: model.Invitations{model.Vidhi: true}}); !errors.Is(err, ErrNotInvited) {
		t.Errorf("err = %v, want ErrNotInvited", err)
	}
	if _, err := ms.Update(9999, model.MemberInput{Name: "X"}); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("err = %v, want ErrMemberNotFound", err)
	}
}

func TestPartyUpdateCascadesToMembers(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Cascade", "", 2, model.Wedding, model.Reception)

	m, err := ms.Create(p.ID, model.MemberInput{
		Name:        "Lata",
		Invitations: model.Invitations{model.Wedding: true, model.Reception: true},
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	if _, err := ps.Update(p.ID, model.PartyInput{
		Name:        "Cascade",
		MaxGuests:   2,
		Invitations: model.Invitations{model.Reception: true},
	}); err != nil {
		t.Fatalf("update party: %v", err)
	}

	got, _ := ms.GetByID(m.ID)
	if got.IsInvited(model.Wedding) {
		t.Error("member should lose the wedding invitation with the party")
	}
	if !got.IsInvited(model.Reception) {
		t.Error("member should keep the reception invitation")
	}
}

func TestMemberListAllGroupsByParty(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	a := createTestParty(t, ps, "A", "", 2)
	b := createTestParty(t, ps, "B", "", 1)
	ms.Create(a.ID, model.MemberInput{Name: "A1"})
	ms.Create(a.ID, model.MemberInput{Name: "A2"})
	ms.Create(b.ID, model.MemberInput{Name: "B1"})

	all, err := ms.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all[a.ID]) != 2 || len(all[b.ID]) != 1 {
		t.Errorf("grouped = %d/%d, want 2/1", len(all[a.ID]), len(all[b.ID]))
	}
}

func TestMemberDelete(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Del", "", 1)
	m, _ := ms.Create(p.ID, model.MemberInput{Name: "Gone"})

	if err := ms.Delete(m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ms.Delete(m.ID); !errors.Is(err, ErrMemberNotFound) {
		t.Errorf("err = %v, want ErrMemberNotFound", err)
	}
}

func TestMemberChangesRollUpToParty(t *testing.T) {
	db := setupStoreTestDB(t)
	ps := NewPartyStore(db)
	ms := NewMemberStore(db)
	p := createTestParty(t, ps, "Rao", "", 3, model.Wedding)

	err := ps.ApplyResponse(p.ID, Response{
		Events:      map[model.EventSlug]model.EventResponse{model.Wedding: {Status: model.StatusAttending, Guests: 3}},
		SubmittedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("apply response: %v", err)
	}

	// A pending member replaces the party-level answer.
	a, err := ms.Create(p.ID, model.MemberInput{Name: "Asha", Invitations: model.Invitations{model.Wedding: true}})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	got, _ := ps.GetByID(p.ID)
	if w := got.Response(model.Wedding); w.Status != model.StatusPending || w.Guests != 0 {
		t.Fatalf("after create wedding = %+v, want pending/0", w)
	}

	b, err := ms.Create(p.ID, model.MemberInput{Name: "Bala", Invitations: model.Invitations{model.Wedding: true}})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := db.Exec(`UPDATE members SET rsvp_wedding = 'attending'`); err != nil {
		t.Fatalf("seed answers: %v", err)
	}
	if _, err := ms.Update(a.ID, model.MemberInput{Name: "Asha", Invitations: model.Invitations{model.Wedding: true}}); err != nil {
		t.Fatalf("update member: %v", err)
	}
	got, _ = ps.GetByID(p.ID)
	if w := got.Response(model.Wedding); w.Status != model.StatusAttending || w.Guests != 2 {
		t.Fatalf("after update wedding = %+v, want attending/2", w)
	}

	// Withdrawing one attendee's invitation drops them from the head count.
	if _, err := ms.Update(b.ID, model.MemberInput{Name: "Bala"}); err != nil {
		t.Fatalf("withdraw member: %v", err)
	}
	got, _ = ps.GetByID(p.ID)
	if w := got.Response(model.Wedding); w.Status != model.StatusAttending || w.Guests != 1 {
		t.Fatalf("after withdraw wedding = %+v, want attending/1", w)
	}

	if _, err := db.Exec(`UPDATE members SET rsvp_wedding = 'not_attending' WHERE id = ?`, a.ID); err != nil {
		t.Fatalf("seed decline: %v", err)
	}
	c, err := ms.Create(p.ID, model.MemberInput{Name: "Chitra", Invitations: model.Invitations{model.Wedding: true}})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if err := ms.Delete(c.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	got, _ = ps.GetByID(p.ID)
	if w := got.Response(model.Wedding); w.Status != model.StatusNotAttending || w.Guests != 0 {
		t.Errorf("after delete wedding = %+v, want not_attending/0", w)
	}
}

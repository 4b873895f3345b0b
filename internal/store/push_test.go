package store

import (
	"testing"
)

func setupPushTestDB(t *testing.T) (*PushStore, int64, int64) {
	t.Helper()
	db := setupStoreTestDB(t)
	orgs := NewOrganizerStore(db)

	a, err := orgs.Create("priya@example.com", "Priya", "password-1")
	if err != nil {
		t.Fatalf("create organizer: %v", err)
	}
	b, err := orgs.Create("arjun@example.com", "Arjun", "password-2")
	if err != nil {
		t.Fatalf("create organizer: %v", err)
	}
	return NewPushStore(db), a.ID, b.ID
}

func TestPushSubscribe(t *testing.T) {
	ps, priya, _ := setupPushTestDB(t)

	sub, err := ps.Subscribe(priya, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if sub.OrganizerID != priya {
		t.Errorf("organizer_id = %d, want %d", sub.OrganizerID, priya)
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
}

func TestPushSubscribeUpsert(t *testing.T) {
	ps, priya, arjun := setupPushTestDB(t)

	sub1, _ := ps.Subscribe(priya, "https://push.example.com/sub1", "key1", "auth1", "Device A")
	sub2, err := ps.Subscribe(arjun, "https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if sub2.ID != sub1.ID {
		t.Errorf("expected same ID on upsert, got %d != %d", sub2.ID, sub1.ID)
	}
	if sub2.P256dhKey != "key2" || sub2.OrganizerID != arjun {
		t.Errorf("upsert = %+v, want key2 owned by %d", sub2, arjun)
	}

	all, _ := ps.List()
	if len(all) != 1 {
		t.Errorf("List() = %d subscriptions, want 1", len(all))
	}
}

func TestPushListAndUnsubscribe(t *testing.T) {
	ps, priya, arjun := setupPushTestDB(t)

	ps.Subscribe(priya, "https://push.example.com/a", "k", "a", "")
	ps.Subscribe(priya, "https://push.example.com/b", "k", "a", "")
	ps.Subscribe(arjun, "https://push.example.com/c", "k", "a", "")

	mine, err := ps.ListByOrganizer(priya)
	if err != nil {
		t.Fatalf("list by organizer: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByOrganizer() = %d, want 2", len(mine))
	}

	ok, err := ps.Unsubscribe(arjun, "https://push.example.com/a")
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if ok {
		t.Error("organizer should not remove another organizer's endpoint")
	}
	if ok, _ := ps.Unsubscribe(priya, "https://push.example.com/a"); !ok {
		t.Error("expected unsubscribe to report removal")
	}

	if err := ps.DeleteByEndpoint("https://push.example.com/c"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	all, _ := ps.List()
	if len(all) != 1 || all[0].Endpoint != "https://push.example.com/b" {
		t.Errorf("remaining = %+v, want only /b", all)
	}

	sub, err := ps.GetByEndpoint("https://push.example.com/a")
	if err != nil {
		t.Fatalf("get by endpoint: %v", err)
	}
	if sub != nil {
		t.Error("expected nil for removed endpoint")
	}
}

func TestPushSubscriptionsFollowOrganizer(t *testing.T) {
	db := setupStoreTestDB(t)
	orgs := NewOrganizerStore(db)
	ps := NewPushStore(db)

	o, _ := orgs.Create("temp@example.com", "Temp", "password-1")
	ps.Subscribe(o.ID, "https://push.example.com/x", "k", "a", "")

	if _, err := db.Exec(`DELETE FROM organizers WHERE id = ?`, o.ID); err != nil {
		t.Fatalf("delete organizer: %v", err)
	}
	all, _ := ps.List()
	if len(all) != 0 {
		t.Errorf("subscriptions = %d, want 0 after organizer removal", len(all))
	}
}

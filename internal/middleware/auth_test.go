package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shaadi-rsvp/shaadi/internal/auth"
	"github.com/shaadi-rsvp/shaadi/internal/database"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*sql.DB, *store.SessionStore, *store.OrganizerStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, store.NewSessionStore(db), store.NewOrganizerStore(db)
}

func unreachable(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func TestRequireOrganizerNoCookie(t *testing.T) {
	_, ss, orgs := setupAuthMiddlewareDB(t)
	handler := RequireOrganizer(ss, orgs)(unreachable(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboard/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want %q", loc, "/login")
	}
}

func TestRequireOrganizerInvalidToken(t *testing.T) {
	_, ss, orgs := setupAuthMiddlewareDB(t)
	handler := RequireOrganizer(ss, orgs)(unreachable(t))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRequireOrganizerExpiredSession(t *testing.T) {
	db, ss, orgs := setupAuthMiddlewareDB(t)
	org, _ := orgs.Create("priya@example.com", "Priya", "correct horse")
	sess, _ := ss.Create(org.ID)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = datetime('now', '-1 day') WHERE id = ?`, sess.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	RequireOrganizer(ss, orgs)(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}

func TestRequireOrganizerValidSession(t *testing.T) {
	_, ss, orgs := setupAuthMiddlewareDB(t)
	org, err := orgs.Create("priya@example.com", "Priya", "correct horse")
	if err != nil {
		t.Fatalf("create organizer: %v", err)
	}
	sess, _ := ss.Create(org.ID)

	var got auth.Organizer
	handler := RequireOrganizer(ss, orgs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected organizer in request context")
		}
		got = o
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dashboard/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.ID != org.ID || got.Email != "priya@example.com" || got.SessionID != sess.ID {
		t.Errorf("organizer = %+v", got)
	}
}

func TestRequireOrganizerHTMXRedirect(t *testing.T) {
	_, ss, orgs := setupAuthMiddlewareDB(t)

	req := httptest.NewRequest("GET", "/dashboard/guests/", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	RequireOrganizer(ss, orgs)(unreachable(t)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if hxRedirect := rec.Header().Get("HX-Redirect"); hxRedirect != "/login" {
		t.Errorf("HX-Redirect = %q, want %q", hxRedirect, "/login")
	}
}

func TestRequireOrganizerAPIUnauthorized(t *testing.T) {
	_, ss, orgs := setupAuthMiddlewareDB(t)

	rec := httptest.NewRecorder()
	RequireOrganizer(ss, orgs)(unreachable(t)).ServeHTTP(rec, httptest.NewRequest("GET", "/api/parties", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

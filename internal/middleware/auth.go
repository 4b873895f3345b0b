package middleware

import (
	"net/http"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/auth"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

// SessionCookieName is the organizer session cookie.
const SessionCookieName = "shaadi_session"

// RequireOrganizer validates the session cookie and stores the organizer in the
// request context. Page requests are sent to /login (HX-Redirect for HTMX);
// API requests get 401.
func RequireOrganizer(sessions *store.SessionStore, organizers *store.OrganizerStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w, r)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w, r)
				return
			}

			org, err := organizers.GetByID(sess.OrganizerID)
			if err != nil || org == nil {
				unauthorized(w, r)
				return
			}

			ctx := auth.WithOrganizer(r.Context(), auth.Organizer{
				ID:        org.ID,
				Email:     org.Email,
				Name:      org.Name,
				SessionID: sess.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"authentication required"}`))
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

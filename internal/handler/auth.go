package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/auth"
	"github.com/shaadi-rsvp/shaadi/internal/middleware"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

type AuthHandler struct {
	organizers *store.OrganizerStore
	sessions   *store.SessionStore
	renderer   *Renderer
	secure     bool
	logger     *slog.Logger
}

func NewAuthHandler(orgs *store.OrganizerStore, ss *store.SessionStore, rd *Renderer, secureCookies bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		organizers: orgs,
		sessions:   ss,
		renderer:   rd,
		secure:     secureCookies,
		logger:     logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Sign in"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func() {
		h.renderer.Render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Title": "Sign in",
			"Email": email,
			"Error": "Incorrect email or password.",
		})
	}
	if email == "" || password == "" {
		fail()
		return
	}

	org, err := h.organizers.Authenticate(email, password)
	if err != nil {
		h.logger.Error("authenticate organizer", "error", err)
		http.Error(w, "failed to sign in", http.StatusInternalServerError)
		return
	}
	if org == nil {
		h.logger.Warn("failed login", "email", email)
		fail()
		return
	}

	sess, err := h.sessions.Create(org.ID)
	if err != nil {
		h.logger.Error("create session", "organizer_id", org.ID, "error", err)
		http.Error(w, "failed to sign in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
	h.logger.Info("organizer signed in", "organizer_id", org.ID)
	http.Redirect(w, r, "/dashboard/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if org, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(org.SessionID); err != nil {
			h.logger.Error("delete session", "session_id", org.SessionID, "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

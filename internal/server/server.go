package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shaadi-rsvp/shaadi/internal/archive"
	"github.com/shaadi-rsvp/shaadi/internal/csvio"
	"github.com/shaadi-rsvp/shaadi/internal/handler"
	"github.com/shaadi-rsvp/shaadi/internal/metrics"
	"github.com/shaadi-rsvp/shaadi/internal/middleware"
	"github.com/shaadi-rsvp/shaadi/internal/notify"
	"github.com/shaadi-rsvp/shaadi/internal/push"
	"github.com/shaadi-rsvp/shaadi/internal/rsvp"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	ws "github.com/shaadi-rsvp/shaadi/internal/websocket"
)

type Config struct {
	BaseURL        string
	Couple         string
	SecureCookies  bool
	MetricsEnabled bool
	Archive        archive.Config
	EmailSender    notify.Sender
	Push           *push.Service
	Templates      fs.FS
	Static         fs.FS
}

type Server struct {
	cfg            Config
	hub            *ws.Hub
	metrics        *metrics.Metrics
	rsvpH          *handler.RSVPHandler
	siteH          *handler.SiteHandler
	authH          *handler.AuthHandler
	dashboardH     *handler.DashboardHandler
	partyH         *handler.PartyHandler
	memberH        *handler.MemberHandler
	eventH         *handler.EventHandler
	importH        *handler.ImportHandler
	archiveH       *handler.ArchiveHandler
	pushH          *handler.PushHandler
	sessionStore   *store.SessionStore
	organizerStore *store.OrganizerStore
	rateLimiter    *middleware.RateLimiter
	archiveManager *archive.Manager
	alerter        *push.Alerter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg Config, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger)

	partyStore := store.NewPartyStore(db)
	memberStore := store.NewMemberStore(db)
	eventStore := store.NewEventStore(db)
	archiveStore := store.NewArchiveStore(db)
	organizerStore := store.NewOrganizerStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)
	infoStore := store.NewWeddingInfoStore(db)
	milestoneStore := store.NewMilestoneStore(db)

	renderer, err := handler.NewRenderer(cfg.Templates, cfg.Couple, logger.With("component", "template"))
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	archiveMgr := archive.NewManager(cfg.Archive, partyStore, archiveStore, m, logger, func(s archive.Status) {
		hub.Broadcast(ws.NewMessage(ws.EntityArchive, ws.ActionStatus, "", map[string]any{
			"state":       s.State,
			"in_progress": s.InProgress,
			"error":       s.Error,
		}))
	})

	svc := rsvp.NewService(partyStore, memberStore, logger)
	notifier := notify.New(cfg.EmailSender, cfg.BaseURL, cfg.Couple, m, logger)
	alerter := push.NewAlerter(cfg.Push, pushStore, logger.With("component", "push"))

	return &Server{
		cfg:            cfg,
		hub:            hub,
		metrics:        m,
		rsvpH:          handler.NewRSVPHandler(svc, eventStore, notifier, alerter, hub, m, renderer, cfg.BaseURL, logger.With("component", "rsvp_handler")),
		siteH:          handler.NewSiteHandler(infoStore, milestoneStore, eventStore, hub, renderer, logger.With("component", "site")),
		authH:          handler.NewAuthHandler(organizerStore, sessionStore, renderer, cfg.SecureCookies, logger.With("component", "auth")),
		dashboardH:     handler.NewDashboardHandler(partyStore, memberStore, eventStore, renderer, cfg.BaseURL, logger.With("component", "dashboard")),
		partyH:         handler.NewPartyHandler(partyStore, memberStore, hub, logger.With("component", "party")),
		memberH:        handler.NewMemberHandler(partyStore, memberStore, hub, logger.With("component", "member")),
		eventH:         handler.NewEventHandler(eventStore, hub, logger.With("component", "event")),
		importH:        handler.NewImportHandler(csvio.NewImporter(partyStore), hub, logger.With("component", "import")),
		archiveH:       handler.NewArchiveHandler(archiveMgr, archiveStore, logger.With("component", "archive_handler")),
		pushH:          handler.NewPushHandler(pushStore, cfg.Push, logger.With("component", "push_handler")),
		sessionStore:   sessionStore,
		organizerStore: organizerStore,
		rateLimiter:    middleware.NewRateLimiter(),
		archiveManager: archiveMgr,
		alerter:        alerter,
		logger:         logger,
	}, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Alerter returns the push alerter so shutdown can drain pending alerts.
func (s *Server) Alerter() *push.Alerter {
	return s.alerter
}

// ArchiveManager returns the scheduled archive manager.
func (s *Server) ArchiveManager() *archive.Manager {
	return s.archiveManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Guest pages
	outerMux.HandleFunc("GET /{$}", s.siteH.Home)
	outerMux.HandleFunc("GET /rsvp/{$}", s.rsvpH.LookupPage)
	outerMux.Handle("POST /rsvp/{$}", s.limited("lookup", middleware.LookupLimit, s.rsvpH.Lookup))
	outerMux.HandleFunc("GET /rsvp/forgot-code/{$}", s.rsvpH.ForgotCodePage)
	outerMux.Handle("POST /rsvp/forgot-code/{$}", s.limited("forgot", middleware.EmailLimit, s.rsvpH.ForgotCode))
	outerMux.HandleFunc("GET /rsvp/forgot-code/sent/{$}", s.rsvpH.ForgotCodeSent)
	outerMux.HandleFunc("GET /rsvp/{code}/{$}", s.rsvpH.Form)
	outerMux.Handle("POST /rsvp/{code}/{$}", s.limited("submit", middleware.LookupLimit, s.rsvpH.Submit))
	outerMux.HandleFunc("GET /rsvp/{code}/qr.png", s.rsvpH.QRCode)

	outerMux.HandleFunc("GET /login", s.authH.LoginPage)
	outerMux.Handle("POST /login", s.limited("login", middleware.LoginLimit, s.authH.Login))
	if s.cfg.Static != nil {
		outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.cfg.Static)))
	}
	outerMux.HandleFunc("GET /health", s.healthHandler)
	if s.cfg.MetricsEnabled && s.metrics != nil {
		outerMux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Organizer routes, wrapped with RequireOrganizer
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	protected := middleware.RequireOrganizer(s.sessionStore, s.organizerStore)(protectedMux)
	outerMux.Handle("/dashboard/", protected)
	outerMux.Handle("/api/", protected)
	outerMux.Handle("POST /logout", protected)

	var h http.Handler = outerMux
	h = chimw.Recoverer(h)
	h = middleware.RequestLogger(s.logger, s.metrics)(h)
	h = chimw.RequestID(h)
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) limited(bucket string, l middleware.Limit, h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP(bucket), l)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// Dashboard pages and downloads
	mux.HandleFunc("GET /dashboard/{$}", s.dashboardH.Dashboard)
	mux.HandleFunc("GET /dashboard/guests/{$}", s.dashboardH.Guests)
	mux.HandleFunc("GET /dashboard/export/{$}", s.dashboardH.Export)
	mux.HandleFunc("GET /dashboard/codes/{$}", s.dashboardH.Codes)
	mux.HandleFunc("GET /dashboard/ws", ws.HandleWebSocket(s.hub, s.cfg.BaseURL))
	mux.HandleFunc("GET /api/dashboard/stats/{$}", s.dashboardH.Stats)

	// Party API routes
	mux.HandleFunc("GET /api/parties", s.partyH.List)
	mux.HandleFunc("POST /api/parties", s.partyH.Create)
	mux.HandleFunc("GET /api/parties/{id}", s.partyH.Get)
	mux.HandleFunc("PUT /api/parties/{id}", s.partyH.Update)
	mux.HandleFunc("DELETE /api/parties/{id}", s.partyH.Delete)
	mux.HandleFunc("POST /api/parties/bulk-delete", s.partyH.BulkDelete)
	mux.HandleFunc("POST /api/parties/bulk-invitations", s.partyH.BulkInvitations)
	mux.HandleFunc("POST /api/parties/regenerate-codes", s.partyH.RegenerateCodes)

	// Member API routes
	mux.HandleFunc("GET /api/parties/{id}/members", s.memberH.List)
	mux.HandleFunc("POST /api/parties/{id}/members", s.memberH.Create)
	mux.HandleFunc("PUT /api/parties/{id}/members/order", s.memberH.Reorder)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)

	// Event API routes
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("PUT /api/events/{slug}", s.eventH.Update)

	// Home page content
	mux.HandleFunc("GET /api/wedding-info", s.siteH.GetInfo)
	mux.HandleFunc("PUT /api/wedding-info", s.siteH.UpdateInfo)
	mux.HandleFunc("GET /api/milestones", s.siteH.ListMilestones)
	mux.HandleFunc("POST /api/milestones", s.siteH.CreateMilestone)
	mux.HandleFunc("PUT /api/milestones/{id}", s.siteH.UpdateMilestone)
	mux.HandleFunc("DELETE /api/milestones/{id}", s.siteH.DeleteMilestone)

	mux.HandleFunc("POST /api/import", s.importH.Import)

	// Archive API routes
	mux.HandleFunc("GET /api/archives", s.archiveH.List)
	mux.HandleFunc("POST /api/archives", s.archiveH.Run)
	mux.HandleFunc("GET /api/archives/status", s.archiveH.Status)
	mux.HandleFunc("GET /api/archives/{id}/download", s.archiveH.Download)

	// Push subscription routes
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
	mux.HandleFunc("POST /api/push/subscriptions", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions", s.pushH.Unsubscribe)
}

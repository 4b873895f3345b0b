package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/archive"
	"github.com/shaadi-rsvp/shaadi/internal/config"
	"github.com/shaadi-rsvp/shaadi/internal/database"
	"github.com/shaadi-rsvp/shaadi/internal/email"
	"github.com/shaadi-rsvp/shaadi/internal/logging"
	"github.com/shaadi-rsvp/shaadi/internal/metrics"
	"github.com/shaadi-rsvp/shaadi/internal/push"
	"github.com/shaadi-rsvp/shaadi/internal/server"
	"github.com/shaadi-rsvp/shaadi/internal/store"
	"github.com/shaadi-rsvp/shaadi/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AdminEmail != "" {
		org, err := store.NewOrganizerStore(db).Ensure(cfg.AdminEmail, "Organizer", cfg.AdminPassword)
		if err != nil {
			slog.Error("failed to bootstrap organizer", "error", err)
			os.Exit(1)
		}
		slog.Info("organizer ready", "organizer_id", org.ID, "email", org.Email)
	}

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail)
	if !emailClient.Configured() {
		slog.Warn("email not configured, forgotten codes will not be sent")
	}

	pushService := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.FromEmail)
	if !pushService.Configured() {
		slog.Info("VAPID keys not set, organizer push alerts disabled")
	}

	srv, err := server.New(db, server.Config{
		BaseURL:        cfg.BaseURL,
		Couple:         cfg.Couple,
		SecureCookies:  cfg.SecureCookies(),
		MetricsEnabled: cfg.MetricsEnabled,
		Archive: archive.Config{
			S3: archive.S3Config{
				Endpoint:  cfg.S3.Endpoint,
				Bucket:    cfg.S3.Bucket,
				Region:    cfg.S3.Region,
				AccessKey: cfg.S3.AccessKey,
				SecretKey: cfg.S3.SecretKey,
			},
			Prefix:        cfg.S3.Prefix,
			Interval:      cfg.ArchiveInterval,
			RetentionDays: cfg.ArchiveRetentionDays,
		},
		EmailSender: emailClient,
		Push:        pushService,
		Templates:   web.Templates(),
		Static:      web.Static(),
	}, metrics.New(), logger)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	srv.ArchiveManager().Start(bgCtx)

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("pruned rate limiter", "count", n)
				}
			case <-bgCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("shaadi starting", "addr", httpServer.Addr, "base_url", cfg.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	bgCancel()
	srv.ArchiveManager().Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	srv.Alerter().Wait()
}

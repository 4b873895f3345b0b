package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shaadi-rsvp/shaadi/internal/archive"
	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

const archiveListLimit = 50

type ArchiveHandler struct {
	manager  *archive.Manager
	archives *store.ArchiveStore
	logger   *slog.Logger
}

func NewArchiveHandler(mgr *archive.Manager, as *store.ArchiveStore, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{manager: mgr, archives: as, logger: logger}
}

// Run exports the guest list to object storage now.
func (h *ArchiveHandler) Run(w http.ResponseWriter, r *http.Request) {
	rec, err := h.manager.RunNow(r.Context())
	if errors.Is(err, archive.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "archive storage is not configured")
		return
	}
	if err != nil {
		h.logger.Error("run archive", "error", err)
		writeError(w, http.StatusBadGateway, "archive failed")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	archives, err := h.archives.List(archiveListLimit)
	if err != nil {
		h.logger.Error("list archives", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list archives")
		return
	}
	if archives == nil {
		archives = []model.Archive{}
	}
	writeJSON(w, http.StatusOK, archives)
}

func (h *ArchiveHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

// Download streams a completed archive back from object storage.
func (h *ArchiveHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	body, rec, err := h.manager.Download(r.Context(), id)
	switch {
	case errors.Is(err, archive.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "archive storage is not configured")
		return
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, "archive not found")
		return
	case err != nil:
		h.logger.Error("download archive", "archive_id", id, "error", err)
		writeError(w, http.StatusBadGateway, "failed to download archive")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, rec.Filename))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("stream archive", "archive_id", id, "error", err)
	}
}

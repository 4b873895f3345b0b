package handler

import (
	"log/slog"
	"net/http"

	"github.com/shaadi-rsvp/shaadi/internal/csvio"
	"github.com/shaadi-rsvp/shaadi/internal/websocket"
)

const maxImportSize = 10 << 20

type ImportHandler struct {
	importer *csvio.Importer
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewImportHandler(im *csvio.Importer, hub *websocket.Hub, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{importer: im, hub: hub, logger: logger}
}

// Import loads a guest CSV from the multipart field "file". The "update" and
// "dry_run" fields accept the same booleans as the CSV columns.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	rows, rowErrs, err := csvio.ParseImport(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := csvio.Options{
		Update: csvio.ParseBool(r.FormValue("update")),
		DryRun: csvio.ParseBool(r.FormValue("dry_run")),
	}
	res, err := h.importer.Run(rows, opts)
	res.Errors = append(rowErrs, res.Errors...)
	if err != nil {
		h.logger.Error("import guests", "error", err, "created", res.Created, "updated", res.Updated)
		writeError(w, http.StatusInternalServerError, "import stopped: "+err.Error())
		return
	}
	if res.Errors == nil {
		res.Errors = []csvio.RowError{}
	}

	h.logger.Info("guests imported",
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"errors", len(res.Errors),
		"dry_run", res.DryRun,
	)
	if !opts.DryRun && res.Created+res.Updated > 0 {
		broadcast(h.hub, websocket.NewMessage(websocket.EntityParty, websocket.ActionImported, "", map[string]any{
			"created": res.Created,
			"updated": res.Updated,
		}))
	}
	writeJSON(w, http.StatusOK, res)
}

package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/shaadi-rsvp/shaadi/internal/auth"
)

// Pages lists the page templates. Each is parsed with layout.html into its own
// set so every page can define "content".
var Pages = []string{
	"home.html",
	"rsvp_lookup.html",
	"rsvp_form.html",
	"forgot_code.html",
	"forgot_code_sent.html",
	"not_found.html",
	"login.html",
	"dashboard.html",
	"guest_list.html",
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	templates map[string]*template.Template
	couple    string
	logger    *slog.Logger
}

func NewRenderer(fsys fs.FS, couple string, logger *slog.Logger) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tmpl, err := template.ParseFS(fsys, "layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		templates[page] = tmpl
	}
	return &Renderer{templates: templates, couple: couple, logger: logger}, nil
}

// Render writes a full page. The couple's name and the signed-in organizer, if
// any, are added to data.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	tmpl, ok := rd.templates[name]
	if !ok {
		rd.logger.Error("template not found", "name", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Couple"] = rd.couple
	if org, ok := auth.FromContext(r.Context()); ok {
		data["Organizer"] = org
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		rd.logger.Error("template render", "name", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

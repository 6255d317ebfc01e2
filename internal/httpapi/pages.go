package httpapi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"oneonone/agenda-service/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"login", "menu", "agenda", "resume", "error"}

type pageData struct {
	Title     string
	Username  string
	Error     string
	Message   string
	Next      string
	LoginName string
	Intake    models.Intake
	Missing   []string
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tmpl, ok := h.pages[name]
	if !ok {
		h.log.Error(r.Context(), "unknown page", "page", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error(r.Context(), "render page", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	data := pageData{Title: title, Message: message}
	if identity, ok := IdentityFromContext(r.Context()); ok {
		data.Username = identity.Username
	}
	h.renderPage(w, r, status, "error", data)
}

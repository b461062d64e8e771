package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/twardoch/zmarkdown/internal/errors"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// PlaygroundPageData is the template data for the playground page.
type PlaygroundPageData struct {
	PageData
	Markdown   string
	Rendered   template.HTML
	Directives []string
	Names      []string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"playground": "playground.html",
		"error":      "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Errorf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error("template execution error", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes err as JSON unless the client asked for HTML.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	zErr, ok := errors.As(err)
	if !ok {
		zErr = errors.NewInternal(err)
	}
	if zErr.Status >= 500 {
		log.Error("request failed", "path", req.URL.Path, "error", zErr)
	}

	if acceptsHTML(req) {
		r.renderPageStatus(w, zErr.Status, "error", ErrorPageData{
			PageData: PageData{
				Title:   fmt.Sprintf("Error %d", zErr.Status),
				Version: r.version,
			},
			StatusCode: zErr.Status,
			Message:    zErr.Message,
		})
		return
	}

	body := map[string]any{
		"code":    string(zErr.Code),
		"message": zErr.Message,
		"status":  zErr.Status,
	}
	if len(zErr.Details) > 0 {
		body["details"] = zErr.Details
	}
	renderJSON(w, zErr.Status, map[string]any{"error": body})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

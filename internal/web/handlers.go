package web

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/ops"
	"github.com/twardoch/zmarkdown/internal/processor"
)

// Handlers contains HTTP route handlers.
type Handlers struct {
	rt       *ops.Runtime
	renderer *Renderer
}

// documentRequest is the JSON body of render, format and parse requests.
type documentRequest struct {
	Markdown *string           `json:"md"`
	Options  processor.Options `json:"opts"`
	NoCache  bool              `json:"no_cache"`
}

// decodeDocument reads a documentRequest. A missing md field is rejected.
func decodeDocument(w http.ResponseWriter, r *http.Request) (string, *documentRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	req := &documentRequest{}
	if err := dec.Decode(req); err != nil {
		if err == io.EOF {
			return "", nil, errors.NewInvalidRequest("request body is empty")
		}
		return "", nil, errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	if req.Markdown == nil {
		return "", nil, errors.NewInvalidRequest("md is required")
	}
	return *req.Markdown, req, nil
}

// HandleRender handles POST /{target}: render a document.
func (h *Handlers) HandleRender(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")
	if _, err := processor.ParseTarget(target); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	md, req, err := decodeDocument(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Render(r.Context(), h.rt, ops.RenderInput{
		Markdown: md,
		Target:   target,
		Options:  req.Options,
		NoCache:  req.NoCache,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	log.Debug("render", "target", result.Target, "cached", result.Cached)
	renderJSON(w, http.StatusOK, result)
}

// HandleFormat handles POST /format: normalize a document.
func (h *Handlers) HandleFormat(w http.ResponseWriter, r *http.Request) {
	md, _, err := decodeDocument(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Format(r.Context(), h.rt, ops.FormatInput{Markdown: md})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleParse handles POST /parse: return the document tree.
func (h *Handlers) HandleParse(w http.ResponseWriter, r *http.Request) {
	md, _, err := decodeDocument(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Parse(r.Context(), h.rt, ops.ParseInput{Markdown: md})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleDirectives handles GET /directives.
func (h *Handlers) HandleDirectives(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.Directives(h.rt))
}

// HandleDirective handles GET /directives/{name}.
func (h *Handlers) HandleDirective(w http.ResponseWriter, r *http.Request) {
	info, err := ops.GetDirective(h.rt, r.PathValue("name"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, info)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.renderer.version,
		"targets": processor.TargetNames(),
	})
}

// HandleCacheStats handles GET /cache/stats.
func (h *Handlers) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ops.CacheStats(r.Context(), h.rt)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, stats)
}

// HandleCachePurge handles DELETE /cache?target=&older_than_days=.
func (h *Handlers) HandleCachePurge(w http.ResponseWriter, r *http.Request) {
	input := ops.PurgeInput{Target: r.URL.Query().Get("target")}

	if days := r.URL.Query().Get("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.PurgeCache(r.Context(), h.rt, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandlePlayground handles GET /: an editor form with the configured
// directives listed.
func (h *Handlers) HandlePlayground(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "playground", h.playgroundData(""))
}

// HandlePreview handles POST /preview: render the form's markdown to HTML
// below the editor.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	md := r.FormValue("md")
	result, err := ops.Render(r.Context(), h.rt, ops.RenderInput{Markdown: md, Target: string(processor.TargetHTML)})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data := h.playgroundData(md)
	// Raw HTML in the source is escaped by the renderer unless unsafe is set.
	data.Rendered = template.HTML(result.Content)
	data.Directives = result.Directives
	h.renderer.renderPage(w, "playground", data)
}

func (h *Handlers) playgroundData(md string) PlaygroundPageData {
	return PlaygroundPageData{
		PageData: PageData{
			Title:   "Playground",
			Version: h.renderer.version,
		},
		Markdown: md,
		Names:    h.rt.Factory.Registry().Names(),
	}
}

// acceptsHTML reports whether the client prefers an HTML response.
func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tliron/commonlog"

	"github.com/twardoch/zmarkdown/internal/ops"
)

var log = commonlog.GetLogger("zmd.web")

//go:embed templates/*.html
var templateFS embed.FS

// MaxBodyBytes bounds request bodies. Documents are further limited by
// max_document_chars.
const MaxBodyBytes = 8 << 20

// NewServer creates the HTTP server exposing render endpoints and the
// playground page.
func NewServer(rt *ops.Runtime, version, bind string, port int) (*http.Server, error) {
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to create template sub-FS: %w", err)
	}

	h := &Handlers{
		rt:       rt,
		renderer: NewRenderer(templateSub, version),
	}

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Routes returns the route table wrapped with security headers.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.HandlePlayground)
	mux.HandleFunc("POST /preview", h.HandlePreview)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /directives", h.HandleDirectives)
	mux.HandleFunc("GET /directives/{name}", h.HandleDirective)
	mux.HandleFunc("POST /format", h.HandleFormat)
	mux.HandleFunc("POST /parse", h.HandleParse)
	mux.HandleFunc("GET /cache/stats", h.HandleCacheStats)
	mux.HandleFunc("DELETE /cache", h.HandleCachePurge)
	mux.HandleFunc("POST /{target}", h.HandleRender)

	return securityHeaders(mux)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Noticef("zmd server running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warning("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Notice("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

// Package monitor serves the human-facing surface of a session: a status
// page with controls, the go-echarts dashboard and a health check. The JSON
// control API is attached from internal/api.
package monitor

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/banshee-data/lidar-active-learning/internal/httputil"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
)

//go:embed status.html
var statusHTML embed.FS

var logf = monitoring.Component("monitor")

var statusTemplate = template.Must(template.New("status.html").Funcs(template.FuncMap{
	"pct":       explain.FormatPercent,
	"markerCSS": func(m interface{}) string { return fmt.Sprintf("marker-%v", m) },
}).ParseFS(statusHTML, "status.html"))

// RouteAttacher registers extra routes, such as the JSON API, on the
// server's mux.
type RouteAttacher interface {
	AttachRoutes(mux *http.ServeMux)
}

// WebServer handles the HTTP interface for a running session.
type WebServer struct {
	address string
	runner  *session.Runner
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server
type WebServerConfig struct {
	Address    string
	Runner     *session.Runner
	API        RouteAttacher
	Middleware func(http.Handler) http.Handler
}

// NewWebServer creates a new web server with the provided configuration
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		runner:  config.Runner,
	}

	mux := ws.setupRoutes()
	if config.API != nil {
		config.API.AttachRoutes(mux)
	}
	var handler http.Handler = mux
	if config.Middleware != nil {
		handler = config.Middleware(mux)
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Handler returns the server's root handler.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			logf("HTTP server force close error: %v", err)
		}
	}

	logf("HTTP server routine stopped")
	return nil
}

// Close shuts down the web server
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleStatus)
	mux.HandleFunc("/dashboard", ws.handleDashboard)
	return mux
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":    "ok",
		"service":   "active-learning",
		"ticking":   ws.runner.Ticking(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus renders the status page with controls, statistics, the
// selection timeline and the open analysis report.
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var buf bytes.Buffer
	if err := statusTemplate.Execute(&buf, ws.runner.Snapshot()); err != nil {
		logf("render status page: %v", err)
		httputil.InternalServerError(w, "failed to render status page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleDashboard renders the go-echarts dashboard for the current view.
func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	page, err := renderDashboard(ws.runner.Snapshot())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

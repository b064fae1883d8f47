// Package api serves the session controls and state as JSON over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
)

var logf = monitoring.Component("api")

// ANSI escape codes for status colouring in the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// RunLog is the read side of the audit log.
type RunLog interface {
	GetRun(runID string) (*sqlite.Run, error)
	ListRuns(limit int) ([]*sqlite.Run, error)
	ListSelections(runID string) ([]*sqlite.Selection, error)
}

type Server struct {
	runner *session.Runner
	runs   RunLog
	// currentRun resolves the "current" run alias; nil disables it.
	currentRun func() string
}

// NewServer returns a server for runner. runs may be nil when the audit log
// is disabled.
func NewServer(runner *session.Runner, runs RunLog, currentRun func() string) *Server {
	return &Server{
		runner:     runner,
		runs:       runs,
		currentRun: currentRun,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns a mux with every /api route registered.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	s.AttachRoutes(mux)
	return mux
}

// AttachRoutes registers the /api routes on mux.
func (s *Server) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/pause", s.handlePause)
	mux.HandleFunc("/api/toggle", s.handleToggle)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/step", s.handleStep)
	mux.HandleFunc("/api/speed", s.handleSpeed)
	mux.HandleFunc("/api/threshold", s.handleThreshold)
	mux.HandleFunc("/api/details", s.handleDetails)
	mux.HandleFunc("/api/analysis", s.handleAnalysis)
	mux.HandleFunc("/api/analysis/", s.handleAnalysisByIndex)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRunByID)
	mux.HandleFunc("/api/version", s.handleVersion)
}

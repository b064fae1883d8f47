package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/lidar-active-learning/internal/httputil"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/storage/sqlite"
)

// currentRunAlias resolves to the recorder's open run.
const currentRunAlias = "current"

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "audit log disabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "Invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(limit)
	if err != nil {
		logf("list runs: %v", err)
		httputil.InternalServerError(w, "Failed to list runs")
		return
	}
	httputil.WriteJSONOK(w, runs)
}

// handleRunByID handles GET /api/runs/:id and GET /api/runs/:id/selections
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "audit log disabled")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/"), "/")
	id := parts[0]
	if id == "" {
		httputil.BadRequest(w, "Missing run ID")
		return
	}
	if id == currentRunAlias {
		if s.currentRun == nil || s.currentRun() == "" {
			httputil.NotFound(w, "no run open")
			return
		}
		id = s.currentRun()
	}

	switch {
	case len(parts) == 1:
		run, err := s.runs.GetRun(id)
		if errors.Is(err, sqlite.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			logf("get run %s: %v", id, err)
			httputil.InternalServerError(w, "Failed to fetch run")
			return
		}
		httputil.WriteJSONOK(w, run)
	case len(parts) == 2 && parts[1] == "selections":
		if _, err := s.runs.GetRun(id); err != nil {
			if errors.Is(err, sqlite.ErrRunNotFound) {
				httputil.NotFound(w, err.Error())
				return
			}
			logf("get run %s: %v", id, err)
			httputil.InternalServerError(w, "Failed to fetch run")
			return
		}
		sels, err := s.runs.ListSelections(id)
		if err != nil {
			logf("list selections for %s: %v", id, err)
			httputil.InternalServerError(w, "Failed to list selections")
			return
		}
		httputil.WriteJSONOK(w, sels)
	default:
		httputil.NotFound(w, "Unknown run resource")
	}
}

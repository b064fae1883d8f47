package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/lidar-active-learning/internal/config"
	"github.com/banshee-data/lidar-active-learning/internal/httputil"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
)

// SpeedRequest is the body of PUT /api/speed.
type SpeedRequest struct {
	SpeedMs *int `json:"speed_ms"`
}

// ThresholdRequest is the body of PUT /api/threshold.
type ThresholdRequest struct {
	Threshold *float64 `json:"threshold"`
}

// DetailsRequest is the body of PUT /api/details.
type DetailsRequest struct {
	Show *bool `json:"show"`
}

// StepResponse is returned by POST /api/step.
type StepResponse struct {
	FrameIndex  int     `json:"frame_index"`
	FrameID     string  `json:"frame_id"`
	Uncertainty float64 `json:"uncertainty"`
	Decision    string  `json:"decision"`
}

// writeSessionError maps runner errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidControl):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, session.ErrOutOfRange):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, session.ErrNotSelected):
		httputil.WriteJSONError(w, http.StatusConflict, err.Error())
	default:
		logf("unexpected session error: %v", err)
		httputil.InternalServerError(w, "internal error")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.runner.Snapshot())
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.runner.Catalog().Frames())
}

// control wraps a no-argument POST control and answers with the new view.
func (s *Server) control(action func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		action()
		httputil.WriteJSONOK(w, s.runner.Snapshot())
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.control(s.runner.Start)(w, r)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control(s.runner.Pause)(w, r)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.control(func() { s.runner.Toggle() })(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.control(s.runner.Reset)(w, r)
}

// handleStep processes one frame immediately, whether or not the session is
// ticking.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	rec, decision := s.runner.Step()
	httputil.WriteJSONOK(w, StepResponse{
		FrameIndex:  rec.FrameIndex,
		FrameID:     rec.Frame.ID,
		Uncertainty: rec.Uncertainty(),
		Decision:    string(decision),
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httputil.MethodNotAllowed(w)
		return
	}
	var req SpeedRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.SpeedMs == nil {
		httputil.BadRequest(w, "speed_ms is required")
		return
	}
	// Range-check before converting; a huge value would overflow the Duration.
	if err := config.ValidateSpeed(*req.SpeedMs); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.runner.SetSpeed(time.Duration(*req.SpeedMs) * time.Millisecond); err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.runner.Snapshot())
}

func (s *Server) handleThreshold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httputil.MethodNotAllowed(w)
		return
	}
	var req ThresholdRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.Threshold == nil {
		httputil.BadRequest(w, "threshold is required")
		return
	}
	if err := s.runner.SetThreshold(*req.Threshold); err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSONOK(w, s.runner.Snapshot())
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httputil.MethodNotAllowed(w)
		return
	}
	var req DetailsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.BadRequest(w, "Invalid request body: "+err.Error())
		return
	}
	if req.Show == nil {
		httputil.BadRequest(w, "show is required")
		return
	}
	s.runner.SetShowDetails(*req.Show)
	httputil.WriteJSONOK(w, s.runner.Snapshot())
}

// handleAnalysis handles GET/DELETE /api/analysis
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		v := s.runner.Snapshot()
		if v.Analysis == nil {
			httputil.NotFound(w, "no analysis open")
			return
		}
		httputil.WriteJSONOK(w, v.Analysis)
	case http.MethodDelete:
		s.runner.CloseAnalysis()
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// handleAnalysisByIndex handles POST /api/analysis/:index
func (s *Server) handleAnalysisByIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/analysis/"), "/")
	if raw == "" {
		httputil.BadRequest(w, "Missing frame index")
		return
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		httputil.BadRequest(w, "Invalid frame index")
		return
	}
	analysis, err := s.runner.OpenAnalysis(idx)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	httputil.WriteJSONOK(w, analysis)
}

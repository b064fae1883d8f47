package session

import (
	"github.com/banshee-data/lidar-active-learning/internal/lidar/ensemble"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
)

// View is a consistent snapshot of everything the presentation layer
// renders.
type View struct {
	Ticking       bool                   `json:"ticking"`
	SpeedMs       int                    `json:"speed_ms"`
	ShowDetails   bool                   `json:"show_ensemble_details"`
	CatalogSize   int                    `json:"catalog_size"`
	State         selection.State        `json:"state"`
	Stats         selection.Stats        `json:"stats"`
	Current       *selection.TickRecord  `json:"current,omitempty"`
	History       []selection.TickRecord `json:"history"`
	AnalysisFrame int                    `json:"analysis_frame"`
	Analysis      *explain.FrameAnalysis `json:"analysis,omitempty"`
	Timeline      []selection.Marker     `json:"timeline"`
	Models        []ensemble.Model       `json:"models"`
}

// Snapshot returns the current view. The returned value shares nothing
// with the runner.
func (r *Runner) Snapshot() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state.Clone()
	v := View{
		Ticking:       r.ticking,
		SpeedMs:       int(r.speed.Milliseconds()),
		ShowDetails:   r.showDetails,
		CatalogSize:   r.catalog.Len(),
		State:         st,
		Stats:         selection.ComputeStats(st, r.catalog.Len(), r.labelCost),
		History:       st.History,
		AnalysisFrame: r.analysisFrame,
		Timeline:      selection.Timeline(st, r.catalog.Len(), r.analysisFrame),
		Models:        ensemble.Models(),
	}
	if rec, ok := st.Latest(); ok {
		v.Current = &rec
	}
	if a, ok := st.Analysis(r.analysisFrame); ok {
		v.Analysis = &a
	}
	return v
}

// State returns a copy of the selection state.
func (r *Runner) State() selection.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

package main

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
)

// Tick is one replay step.
type Tick struct {
	Tick        int     `json:"tick"`
	FrameIndex  int     `json:"frame_index"`
	FrameID     string  `json:"frame_id"`
	Uncertainty float64 `json:"uncertainty"`
	Decision    string  `json:"decision"`
}

// Result summarises a replay.
type Result struct {
	Seed              int64           `json:"seed"`
	CatalogSize       int             `json:"catalog_size"`
	Budget            int             `json:"labeling_budget"`
	Threshold         float64         `json:"threshold"`
	Ticks             []Tick          `json:"ticks"`
	Selected          []string        `json:"selected_frames"`
	Stats             selection.Stats `json:"stats"`
	MeanUncertainty   float64         `json:"mean_uncertainty"`
	StdDevUncertainty float64         `json:"stddev_uncertainty"`
	Tiers             map[string]int  `json:"recommendation_tiers"`
	TierOrder         []string        `json:"-"`
}

func (r *Result) summarise(v session.View) {
	r.Stats = v.Stats
	r.Selected = make([]string, len(v.State.Selected))
	for i, idx := range v.State.Selected {
		r.Selected[i] = catalog.FrameID(idx)
	}

	us := make([]float64, len(r.Ticks))
	for i, t := range r.Ticks {
		us[i] = t.Uncertainty
	}
	if len(us) > 0 {
		r.MeanUncertainty, r.StdDevUncertainty = stat.MeanStdDev(us, nil)
		if len(us) < 2 {
			r.StdDevUncertainty = 0
		}
	}

	r.TierOrder = []string{explain.TierPriority, explain.TierRecommended, explain.TierOptional, explain.TierSkip}
	r.Tiers = make(map[string]int, len(r.TierOrder))
	for _, tier := range r.TierOrder {
		r.Tiers[tier] = 0
	}
	for _, u := range us {
		r.Tiers[explain.RecommendationTier(explain.Recommendation(u))]++
	}
}

package selection

import "math"

// Simulated model accuracy curve: each labeled frame adds a fixed gain on
// top of the baseline until the ceiling.
const (
	BaselinePerformance = 68.5
	PerformanceGain     = 0.3
	PerformanceCeiling  = 92.0

	// DefaultLabelCost is the cost of manually labeling one frame.
	DefaultLabelCost = 25.0
)

// Stats summarises a session for the statistics panel. Rates are
// percentages in [0, 100].
type Stats struct {
	ProcessedFrames    int     `json:"processed_frames"`
	SelectedFrames     int     `json:"selected_frames"`
	UsedBudget         int     `json:"used_budget"`
	RemainingBudget    int     `json:"remaining_budget"`
	SelectionRate      float64 `json:"selection_rate"`
	CostSavingsRate    float64 `json:"cost_savings_rate"`
	FullDatasetCost    float64 `json:"full_dataset_cost"`
	ActiveLearningCost float64 `json:"active_learning_cost"`
	PotentialSavings   float64 `json:"potential_savings"`
	ModelPerformance   float64 `json:"model_performance"`
}

// ComputeStats derives the statistics panel for a catalog of catalogSize
// frames at costPerFrame each. Rates are 0 until a frame is processed.
func ComputeStats(s State, catalogSize int, costPerFrame float64) Stats {
	selected := len(s.Selected)
	st := Stats{
		ProcessedFrames:    s.ProcessedFrames,
		SelectedFrames:     selected,
		UsedBudget:         s.UsedBudget,
		RemainingBudget:    s.RemainingBudget(),
		FullDatasetCost:    float64(catalogSize) * costPerFrame,
		ActiveLearningCost: float64(selected) * costPerFrame,
		PotentialSavings:   float64(catalogSize-selected) * costPerFrame,
		ModelPerformance:   ModelPerformance(selected),
	}
	if s.ProcessedFrames > 0 {
		processed := float64(s.ProcessedFrames)
		st.SelectionRate = float64(selected) / processed * 100
		st.CostSavingsRate = float64(s.ProcessedFrames-selected) / processed * 100
	}
	return st
}

// ModelPerformance is the simulated accuracy after labeling n frames.
func ModelPerformance(n int) float64 {
	if n <= 0 {
		return BaselinePerformance
	}
	return math.Min(PerformanceCeiling, BaselinePerformance+float64(n)*PerformanceGain)
}

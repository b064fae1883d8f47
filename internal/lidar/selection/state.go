package selection

import (
	"maps"
	"slices"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/ensemble"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
)

// DefaultHistorySize is the number of recent tick records retained.
const DefaultHistorySize = 10

// TickRecord is everything produced for one frame on one tick. It is the
// plain data record handed to presentation layers.
type TickRecord struct {
	FrameIndex int                   `json:"frame_index"`
	Frame      catalog.Frame         `json:"frame"`
	Output     ensemble.Output       `json:"ensemble"`
	Analysis   explain.FrameAnalysis `json:"analysis"`
	Selected   bool                  `json:"selected"`
}

// Uncertainty returns the record's frame uncertainty.
func (r TickRecord) Uncertainty() float64 {
	return r.Output.FrameUncertainty
}

// Decision explains what Tick did with a frame.
type Decision string

const (
	DecisionSelected        Decision = "selected"
	DecisionBelowThreshold  Decision = "below_threshold"
	DecisionBudgetExhausted Decision = "budget_exhausted"
	DecisionAlreadySelected Decision = "already_selected"
)

// State is the cumulative session state.
type State struct {
	CurrentFrame    int                           `json:"current_frame"`
	ProcessedFrames int                           `json:"processed_frames"`
	Selected        []int                         `json:"selected_frames"`
	UsedBudget      int                           `json:"used_budget"`
	Budget          int                           `json:"labeling_budget"`
	Threshold       float64                       `json:"uncertainty_threshold"`
	HistorySize     int                           `json:"history_size"`
	Uncertainties   map[int]float64               `json:"frame_uncertainties"`
	Analyses        map[int]explain.FrameAnalysis `json:"-"`
	History         []TickRecord                  `json:"-"`
}

// New returns an empty state. A non-positive historySize falls back to
// DefaultHistorySize.
func New(budget int, threshold float64, historySize int) State {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return State{
		Selected:      []int{},
		Budget:        budget,
		Threshold:     threshold,
		HistorySize:   historySize,
		Uncertainties: map[int]float64{},
		Analyses:      map[int]explain.FrameAnalysis{},
		History:       []TickRecord{},
	}
}

// Tick folds one tick record into s and returns the new state along with the
// selection decision for the record's frame.
//
// The frame is selected when its uncertainty is strictly above the
// threshold, budget remains and it was not selected before.
func Tick(s State, rec TickRecord) (State, Decision) {
	next := s.clone()
	if next.HistorySize <= 0 {
		next.HistorySize = DefaultHistorySize
	}
	idx := rec.FrameIndex
	u := rec.Uncertainty()

	next.CurrentFrame = idx
	next.ProcessedFrames++
	next.Uncertainties[idx] = u
	next.Analyses[idx] = rec.Analysis

	var decision Decision
	switch {
	case !(u > next.Threshold):
		decision = DecisionBelowThreshold
	case slices.Contains(next.Selected, idx):
		decision = DecisionAlreadySelected
	case next.UsedBudget >= next.Budget:
		decision = DecisionBudgetExhausted
	default:
		next.Selected = append(next.Selected, idx)
		next.UsedBudget++
		decision = DecisionSelected
	}

	rec.Selected = slices.Contains(next.Selected, idx)
	next.History = append(next.History, rec)
	if over := len(next.History) - next.HistorySize; over > 0 {
		next.History = next.History[over:]
	}
	return next, decision
}

// Reset returns the state to frame 0 with no processed or selected frames
// and an unspent budget. Budget, threshold and history size carry over.
func Reset(s State) State {
	return New(s.Budget, s.Threshold, s.HistorySize)
}

// WithThreshold returns s with a new selection threshold. Earlier
// selections are kept.
func WithThreshold(s State, threshold float64) State {
	next := s.clone()
	next.Threshold = threshold
	return next
}

// WithBudget returns s with a new total budget. Lowering it below the
// amount already used stops further selection but keeps earlier picks.
func WithBudget(s State, budget int) State {
	next := s.clone()
	next.Budget = budget
	return next
}

// IsSelected reports whether frame i has been picked.
func (s State) IsSelected(i int) bool {
	return slices.Contains(s.Selected, i)
}

// RemainingBudget is the number of frames that can still be picked.
func (s State) RemainingBudget() int {
	return max(s.Budget-s.UsedBudget, 0)
}

// Latest returns the most recent tick record.
func (s State) Latest() (TickRecord, bool) {
	if len(s.History) == 0 {
		return TickRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// Analysis returns the stored report for frame i.
func (s State) Analysis(i int) (explain.FrameAnalysis, bool) {
	a, ok := s.Analyses[i]
	return a, ok
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return s.clone()
}

func (s State) clone() State {
	next := s
	next.Selected = slices.Clone(s.Selected)
	if next.Selected == nil {
		next.Selected = []int{}
	}
	next.Uncertainties = maps.Clone(s.Uncertainties)
	if next.Uncertainties == nil {
		next.Uncertainties = map[int]float64{}
	}
	next.Analyses = maps.Clone(s.Analyses)
	if next.Analyses == nil {
		next.Analyses = map[int]explain.FrameAnalysis{}
	}
	next.History = slices.Clone(s.History)
	if next.History == nil {
		next.History = []TickRecord{}
	}
	return next
}

package explain

import (
	"fmt"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/ensemble"
)

// Impact grades how strongly a factor raises uncertainty.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
)

// Confidence is the selection-confidence label of a report.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Rule thresholds.
const (
	// SelectThreshold is fixed; it does not follow the session threshold.
	SelectThreshold = 0.65
	// ModerateThreshold separates Medium from Low confidence.
	ModerateThreshold = 0.4

	DenseObjectCount      = 10
	SparseObjectCount     = 5
	SparsePointCount      = 90000
	DensePointCount       = 110000
	HighDisagreement      = 0.3
	ConsensusDisagreement = 0.1
)

// Factor is one reason a frame is uncertain.
type Factor struct {
	Factor       string  `json:"factor"`
	Impact       Impact  `json:"impact"`
	Description  string  `json:"description"`
	Contribution float64 `json:"contribution"`
}

// FrameAnalysis is the labeling report for one frame.
type FrameAnalysis struct {
	FrameID            string     `json:"frame_id"`
	UncertaintyScore   float64    `json:"uncertainty_score"`
	ShouldSelect       bool       `json:"should_select"`
	Confidence         Confidence `json:"confidence"`
	UncertaintyFactors []Factor   `json:"uncertainty_factors"`
	Strengths          []string   `json:"strengths"`
	Concerns           []string   `json:"concerns"`
	Summary            string     `json:"summary"`
	Recommendation     string     `json:"recommendation"`
}

// report accumulates rule outcomes in evaluation order.
type report struct {
	factors   []Factor
	strengths []string
	concerns  []string
}

func (r *report) factor(f Factor, concern string) {
	r.factors = append(r.factors, f)
	r.concerns = append(r.concerns, concern)
}

func (r *report) strength(s string) {
	r.strengths = append(r.strengths, s)
}

// Analyze builds the report for frame. Disagreement is recomputed from
// preds with ensemble.ModelDisagreement.
func Analyze(frame catalog.Frame, preds []ensemble.ModelPrediction, frameUncertainty float64) FrameAnalysis {
	return AnalyzeWithDisagreement(frame, ensemble.ModelDisagreement(preds), frameUncertainty)
}

// AnalyzeWithDisagreement builds the report from a precomputed disagreement.
func AnalyzeWithDisagreement(frame catalog.Frame, disagreement, frameUncertainty float64) FrameAnalysis {
	r := &report{
		factors:   []Factor{},
		strengths: []string{},
		concerns:  []string{},
	}

	switch frame.Weather {
	case catalog.WeatherRain:
		r.factor(Factor{
			Factor:       "Adverse Weather",
			Impact:       ImpactHigh,
			Description:  "Rain reduces LiDAR point quality and creates noise",
			Contribution: 0.15,
		}, "Rain affects point cloud density and accuracy")
	case catalog.WeatherClear:
		r.strength("Clear weather provides optimal LiDAR conditions")
	}

	switch frame.TimeOfDay {
	case catalog.TimeEvening:
		r.factor(Factor{
			Factor:       "Low Light Conditions",
			Impact:       ImpactMedium,
			Description:  "Evening conditions may affect object visibility",
			Contribution: 0.1,
		}, "Reduced visibility in evening conditions")
	case catalog.TimeNoon:
		r.strength("Optimal lighting conditions for detection")
	}

	switch frame.Scene {
	case catalog.SceneUrban:
		r.factor(Factor{
			Factor:       "Complex Urban Environment",
			Impact:       ImpactMedium,
			Description:  "Dense urban scenes with multiple objects increase uncertainty",
			Contribution: 0.1,
		}, "High object density and occlusion in urban environment")
	case catalog.SceneHighway:
		r.strength("Simple highway scene with clear object separation")
	}

	switch {
	case frame.ObjectCount > DenseObjectCount:
		r.factor(Factor{
			Factor:       "High Object Density",
			Impact:       ImpactMedium,
			Description:  fmt.Sprintf("%d objects detected - increases scene complexity", frame.ObjectCount),
			Contribution: 0.08,
		}, fmt.Sprintf("Scene contains %d objects, increasing complexity", frame.ObjectCount))
	case frame.ObjectCount < SparseObjectCount:
		r.strength(fmt.Sprintf("Simple scene with only %d objects", frame.ObjectCount))
	}

	switch {
	case frame.PointCount < SparsePointCount:
		r.factor(Factor{
			Factor:       "Sparse Point Cloud",
			Impact:       ImpactMedium,
			Description:  "Lower point density may affect detection accuracy",
			Contribution: 0.12,
		}, "Below average point cloud density")
	case frame.PointCount > DensePointCount:
		r.strength("High-density point cloud provides detailed information")
	}

	switch frame.Difficulty {
	case catalog.DifficultyHard:
		r.factor(Factor{
			Factor:       "Challenging Scenario",
			Impact:       ImpactHigh,
			Description:  "Frame marked as difficult due to multiple factors",
			Contribution: 0.2,
		}, "Multiple challenging factors present in this frame")
	case catalog.DifficultyEasy:
		r.strength("Straightforward detection scenario")
	}

	switch {
	case disagreement > HighDisagreement:
		r.factor(Factor{
			Factor:       "High Model Disagreement",
			Impact:       ImpactHigh,
			Description:  "Ensemble models show significant disagreement",
			Contribution: disagreement,
		}, "Models disagree significantly on this frame")
	case disagreement < ConsensusDisagreement:
		r.strength("Strong model consensus on predictions")
	}

	shouldSelect := frameUncertainty > SelectThreshold
	return FrameAnalysis{
		FrameID:            frame.ID,
		UncertaintyScore:   frameUncertainty,
		ShouldSelect:       shouldSelect,
		Confidence:         confidenceLabel(frameUncertainty, shouldSelect),
		UncertaintyFactors: r.factors,
		Strengths:          r.strengths,
		Concerns:           r.concerns,
		Summary:            Summary(frame, frameUncertainty, shouldSelect, len(r.factors)),
		Recommendation:     Recommendation(frameUncertainty),
	}
}

func confidenceLabel(u float64, shouldSelect bool) Confidence {
	switch {
	case shouldSelect:
		return ConfidenceHigh
	case u > ModerateThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

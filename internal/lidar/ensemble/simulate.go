package ensemble

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
)

// Uncertainty heuristics added to every model's base draw.
const (
	BaseUncertaintyMin = 0.1
	BaseUncertaintyMax = 0.5

	UrbanPenalty   = 0.10
	RainPenalty    = 0.15
	HardPenalty    = 0.20
	EveningPenalty = 0.10

	// MaxModelUncertainty caps a model's uncertainty after penalties.
	MaxModelUncertainty = 0.95

	// Per-object uncertainty draws are uniform over [min, max).
	ObjectUncertaintyMin = 0.2
	ObjectUncertaintyMax = 0.8

	// DefaultNumClasses is the length of each class probability vector.
	DefaultNumClasses = 10
)

// BoundingBox is a 3D box prediction: centre, size and yaw.
type BoundingBox struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	L        float64 `json:"l"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
	Rotation float64 `json:"rotation"`
}

// ModelPrediction is one model's simulated output for a frame.
type ModelPrediction struct {
	ModelID            int         `json:"model_id"`
	ModelName          string      `json:"model_name"`
	ClassProbabilities []float64   `json:"class_probabilities"`
	BoundingBox        BoundingBox `json:"bounding_box"`
	Uncertainty        float64     `json:"uncertainty"`
	Confidence         float64     `json:"confidence"`
}

// Output is the ensemble result for one frame.
type Output struct {
	FrameID             string            `json:"frame_id"`
	FrameUncertainty    float64           `json:"frame_uncertainty"`
	ObjectUncertainties []float64         `json:"object_uncertainties"`
	ModelPredictions    []ModelPrediction `json:"model_predictions"`
	Metrics             Metrics           `json:"ensemble_metrics"`
}

// Simulator draws ensemble outputs for frames.
type Simulator struct {
	Models     []Model
	NumClasses int
}

// NewSimulator returns a simulator over the default roster.
func NewSimulator() *Simulator {
	return &Simulator{
		Models:     Models(),
		NumClasses: DefaultNumClasses,
	}
}

// Simulate runs the default simulator on frame.
func Simulate(frame catalog.Frame, rng catalog.Rand) Output {
	return NewSimulator().Simulate(frame, rng)
}

// ScenePenalty is the additive uncertainty from the frame's conditions.
func ScenePenalty(frame catalog.Frame) float64 {
	penalty := 0.0
	if frame.Scene == catalog.SceneUrban {
		penalty += UrbanPenalty
	}
	if frame.Weather == catalog.WeatherRain {
		penalty += RainPenalty
	}
	if frame.Difficulty == catalog.DifficultyHard {
		penalty += HardPenalty
	}
	if frame.TimeOfDay == catalog.TimeEvening {
		penalty += EveningPenalty
	}
	return penalty
}

// Simulate draws one Output for frame. Draw order is, per model: base
// uncertainty, class probabilities, bounding box; then one uncertainty per
// object.
func (s *Simulator) Simulate(frame catalog.Frame, rng catalog.Rand) Output {
	penalty := ScenePenalty(frame)

	preds := make([]ModelPrediction, len(s.Models))
	for i, m := range s.Models {
		base := catalog.Uniform(rng, BaseUncertaintyMin, BaseUncertaintyMax)
		u := math.Min(base+penalty, MaxModelUncertainty)
		preds[i] = ModelPrediction{
			ModelID:            m.ID,
			ModelName:          m.Name,
			ClassProbabilities: ClassProbabilities(rng, s.NumClasses),
			BoundingBox:        RandomBoundingBox(rng),
			Uncertainty:        u,
			Confidence:         1 - u,
		}
	}

	objects := make([]float64, max(frame.ObjectCount, 0))
	for i := range objects {
		objects[i] = catalog.Uniform(rng, ObjectUncertaintyMin, ObjectUncertaintyMax)
	}

	return Output{
		FrameID:             frame.ID,
		FrameUncertainty:    FrameUncertainty(objects),
		ObjectUncertainties: objects,
		ModelPredictions:    preds,
		Metrics:             ComputeMetrics(preds),
	}
}

// ClassProbabilities draws n uniform weights and normalises them to sum to 1.
// A degenerate all-zero draw falls back to the uniform distribution.
func ClassProbabilities(rng catalog.Rand, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	probs := make([]float64, n)
	for i := range probs {
		probs[i] = rng.Float64()
	}
	sum := floats.Sum(probs)
	if sum <= 0 {
		for i := range probs {
			probs[i] = 1 / float64(n)
		}
		return probs
	}
	floats.Scale(1/sum, probs)
	return probs
}

// RandomBoundingBox draws a box in a 50m x 50m area around the sensor.
func RandomBoundingBox(rng catalog.Rand) BoundingBox {
	return BoundingBox{
		X:        catalog.Uniform(rng, -25, 25),
		Y:        catalog.Uniform(rng, -25, 25),
		Z:        catalog.Uniform(rng, -1.5, 1.5),
		L:        catalog.Uniform(rng, 2, 7),
		W:        catalog.Uniform(rng, 1, 4),
		H:        catalog.Uniform(rng, 1, 3),
		Rotation: catalog.Uniform(rng, 0, 2*math.Pi),
	}
}

// Tier buckets an object uncertainty for display.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// ObjectTier buckets u: high above 0.7, medium above 0.4, low otherwise.
func ObjectTier(u float64) Tier {
	switch {
	case u > 0.7:
		return TierHigh
	case u > 0.4:
		return TierMedium
	default:
		return TierLow
	}
}

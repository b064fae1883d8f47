package ensemble

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// entropyEpsilon keeps the logarithms finite at p = 0 and p = 1.
const entropyEpsilon = 1e-8

// Metrics are the ensemble-level statistics for one frame.
type Metrics struct {
	AvgUncertainty    float64 `json:"avg_uncertainty"`
	ModelDisagreement float64 `json:"model_disagreement"`
	PredictiveEntropy float64 `json:"predictive_entropy"`
	MutualInformation float64 `json:"mutual_information"`
}

// Uncertainties extracts the per-model uncertainty values in roster order.
func Uncertainties(preds []ModelPrediction) []float64 {
	out := make([]float64, len(preds))
	for i, p := range preds {
		out[i] = p.Uncertainty
	}
	return out
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// FrameUncertainty is the mean of the per-object uncertainties. A frame with
// no objects scores 0.
func FrameUncertainty(objectUncertainties []float64) float64 {
	return Mean(objectUncertainties)
}

// ModelDisagreement is the population standard deviation of the per-model
// uncertainties. It is never negative and is 0 for fewer than two models.
func ModelDisagreement(preds []ModelPrediction) float64 {
	if len(preds) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(Uncertainties(preds), nil)
	if variance <= 0 || math.IsNaN(variance) {
		return 0
	}
	return math.Sqrt(variance)
}

// PredictiveEntropy is the binary entropy of the average uncertainty p:
//
//	-p*ln(p+eps) - (1-p)*ln(1-p+eps)
//
// The epsilon leaves a residue of about -1e-8 at p = 0, so the result is
// floored at 0. The maximum is ln 2 at p = 0.5.
func PredictiveEntropy(p float64) float64 {
	h := -p*math.Log(p+entropyEpsilon) - (1-p)*math.Log(1-p+entropyEpsilon)
	if h < 0 || math.IsNaN(h) {
		return 0
	}
	return h
}

// MutualInformation combines disagreement and entropy into a score in
// [0, 1]: min(2*disagreement*entropy, 1). It is a ranking heuristic, not the
// information-theoretic quantity of the same name.
func MutualInformation(disagreement, entropy float64) float64 {
	mi := disagreement * entropy * 2
	if math.IsNaN(mi) || mi < 0 {
		return 0
	}
	return math.Min(mi, 1.0)
}

// ComputeMetrics derives all ensemble statistics from the predictions.
func ComputeMetrics(preds []ModelPrediction) Metrics {
	avg := Mean(Uncertainties(preds))
	disagreement := ModelDisagreement(preds)
	entropy := PredictiveEntropy(avg)
	return Metrics{
		AvgUncertainty:    avg,
		ModelDisagreement: disagreement,
		PredictiveEntropy: entropy,
		MutualInformation: MutualInformation(disagreement, entropy),
	}
}

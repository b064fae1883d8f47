package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
)

// Recommendation tier prefixes.
const (
	TierPriority    = "PRIORITY"
	TierRecommended = "RECOMMENDED"
	TierOptional    = "OPTIONAL"
	TierSkip        = "SKIP"
)

// FormatPercent renders a [0,1] value as a percentage with one decimal.
// NaN and infinities render as 0.0 so a bad input never reaches a display.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%.1f", v*100)
}

// Summary is the one-paragraph verdict for a frame.
func Summary(frame catalog.Frame, uncertainty float64, shouldSelect bool, factorCount int) string {
	pct := FormatPercent(uncertainty)
	switch {
	case shouldSelect:
		return fmt.Sprintf("Frame %s selected for labeling due to high uncertainty (%s%%). %d uncertainty factors identified in this %s %s scene.",
			frame.ID, pct, factorCount, frame.Scene.Lower(), frame.Weather.Lower())
	case uncertainty > ModerateThreshold:
		return fmt.Sprintf("Frame %s shows moderate uncertainty (%s%%). Consider for labeling if budget allows.", frame.ID, pct)
	default:
		return fmt.Sprintf("Frame %s has low uncertainty (%s%%). Model is confident - skip labeling.", frame.ID, pct)
	}
}

// Recommendation maps an uncertainty onto an action tier with break points
// at 0.7, 0.5 and 0.3.
func Recommendation(uncertainty float64) string {
	switch {
	case uncertainty > 0.7:
		return TierPriority + ": Label immediately - high learning value expected"
	case uncertainty > 0.5:
		return TierRecommended + ": Good candidate for labeling"
	case uncertainty > 0.3:
		return TierOptional + ": Label if budget permits"
	default:
		return TierSkip + ": Model is confident, labeling not needed"
	}
}

// RecommendationTier returns just the tier prefix of a recommendation.
func RecommendationTier(recommendation string) string {
	tier, _, _ := strings.Cut(recommendation, ":")
	return tier
}

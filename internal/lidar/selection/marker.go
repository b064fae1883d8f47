package selection

// Marker is the display status of one frame on the selection timeline.
type Marker string

const (
	MarkerAnalyzing       Marker = "analyzing"
	MarkerCurrent         Marker = "current"
	MarkerSelected        Marker = "selected"
	MarkerHighUncertainty Marker = "high_uncertainty"
	MarkerProcessed       Marker = "processed"
	MarkerPending         Marker = "pending"
)

// NoAnalysis is passed as analyzing when no report panel is open.
const NoAnalysis = -1

// TimelineLimit caps the number of markers on the timeline grid.
const TimelineLimit = 60

// MarkerStatus returns frame i's marker. Precedence: the frame whose report
// is open, the current frame, selected, processed above threshold,
// processed, pending. Current only applies once something was processed.
func MarkerStatus(s State, i, analyzing int) Marker {
	u, processed := s.Uncertainties[i]
	switch {
	case i == analyzing:
		return MarkerAnalyzing
	case s.ProcessedFrames > 0 && i == s.CurrentFrame:
		return MarkerCurrent
	case s.IsSelected(i):
		return MarkerSelected
	case processed && u > s.Threshold:
		return MarkerHighUncertainty
	case processed:
		return MarkerProcessed
	default:
		return MarkerPending
	}
}

// Timeline returns markers for the first min(n, TimelineLimit) frames.
func Timeline(s State, n, analyzing int) []Marker {
	n = min(n, TimelineLimit)
	if n < 0 {
		n = 0
	}
	out := make([]Marker, n)
	for i := range out {
		out[i] = MarkerStatus(s, i, analyzing)
	}
	return out
}

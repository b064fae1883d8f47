package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkerStatus(t *testing.T) {
	t.Parallel()

	// frames 0..3 scored; 0 and 2 selected; 3 is current and above threshold.
	s, _ := run(New(2, 0.6, 10), 0.7, 0.3, 0.8, 0.9)

	assert.Equal(t, MarkerSelected, MarkerStatus(s, 0, NoAnalysis))
	assert.Equal(t, MarkerProcessed, MarkerStatus(s, 1, NoAnalysis))
	assert.Equal(t, MarkerSelected, MarkerStatus(s, 2, NoAnalysis))
	assert.Equal(t, MarkerCurrent, MarkerStatus(s, 3, NoAnalysis))
	assert.Equal(t, MarkerPending, MarkerStatus(s, 4, NoAnalysis))
	assert.Equal(t, MarkerAnalyzing, MarkerStatus(s, 2, 2))

	s, _ = Tick(s, record(5, 0.1))
	assert.Equal(t, MarkerHighUncertainty, MarkerStatus(s, 3, NoAnalysis))
}

func TestMarkerStatusFreshState(t *testing.T) {
	t.Parallel()

	s := New(1, 0.5, 10)
	assert.Equal(t, MarkerPending, MarkerStatus(s, 0, NoAnalysis), "nothing is current before the first tick")
}

func TestTimeline(t *testing.T) {
	t.Parallel()

	s := New(1, 0.5, 10)
	assert.Len(t, Timeline(s, 100, NoAnalysis), TimelineLimit)
	assert.Len(t, Timeline(s, 12, NoAnalysis), 12)
	assert.Empty(t, Timeline(s, -1, NoAnalysis))
}

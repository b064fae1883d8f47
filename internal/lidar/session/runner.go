package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/lidar-active-learning/internal/config"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/ensemble"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
	"github.com/banshee-data/lidar-active-learning/internal/timeutil"
)

var logf = monitoring.Component("session")

// subscriberBuffer is the per-subscriber event queue. Slow subscribers
// lose events rather than stall the tick loop.
const subscriberBuffer = 256

// Runner owns one active-learning session.
type Runner struct {
	catalog   *catalog.Catalog
	rng       catalog.Rand
	sim       *ensemble.Simulator
	clock     timeutil.Clock
	labelCost float64

	mu            sync.Mutex
	state         selection.State
	ticking       bool
	speed         time.Duration
	showDetails   bool
	analysisFrame int

	wake chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
	dropped int
}

// NewRunner validates opts and returns a paused runner at frame 0.
func NewRunner(opts Options) (*Runner, error) {
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}
	return &Runner{
		catalog:       opts.Catalog,
		rng:           opts.Rand,
		sim:           opts.Simulator,
		clock:         opts.Clock,
		labelCost:     opts.LabelCost,
		state:         selection.New(opts.Budget, opts.Threshold, opts.HistorySize),
		speed:         opts.Speed,
		showDetails:   opts.ShowDetails,
		analysisFrame: selection.NoAnalysis,
		wake:          make(chan struct{}, 1),
		subs:          make(map[int]chan Event),
	}, nil
}

// Run drives ticks until ctx is cancelled. Only one Run may be active per
// runner.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	ticking, speed := r.ticking, r.speed
	r.mu.Unlock()

	ticker := r.clock.NewTicker(speed)
	defer ticker.Stop()
	if !ticking {
		ticker.Stop()
	}
	logf("tick loop started (speed=%v ticking=%v)", speed, ticking)

	for {
		select {
		case <-ctx.Done():
			logf("tick loop stopped: %v", ctx.Err())
			return ctx.Err()
		case <-r.wake:
			r.mu.Lock()
			ticking, speed = r.ticking, r.speed
			r.mu.Unlock()
			if ticking {
				ticker.Reset(speed)
			} else {
				ticker.Stop()
			}
		case <-ticker.C():
			r.mu.Lock()
			if !r.ticking {
				// Stale tick delivered after a pause or reset.
				r.mu.Unlock()
				continue
			}
			r.publish(r.stepLocked())
			r.mu.Unlock()
		}
	}
}

// Step processes exactly one frame whether or not the runner is ticking.
func (r *Runner) Step() (selection.TickRecord, selection.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := r.stepLocked()
	r.publish(ev)
	return ev.Record, ev.Decision
}

func (r *Runner) stepLocked() Event {
	idx := 0
	if r.state.ProcessedFrames > 0 {
		idx = r.catalog.Next(r.state.CurrentFrame)
	}
	frame := r.catalog.At(idx)
	out := r.sim.Simulate(frame, r.rng)
	analysis := explain.Analyze(frame, out.ModelPredictions, out.FrameUncertainty)

	rec := selection.TickRecord{
		FrameIndex: idx,
		Frame:      frame,
		Output:     out,
		Analysis:   analysis,
	}
	next, decision := selection.Tick(r.state, rec)
	r.state = next
	rec.Selected = next.IsSelected(idx)

	if decision == selection.DecisionSelected {
		logf("selected frame %s (uncertainty=%s%%, budget %d/%d)",
			frame.ID, explain.FormatPercent(out.FrameUncertainty), next.UsedBudget, next.Budget)
	}
	return Event{
		Kind:       EventTick,
		Record:     rec,
		Decision:   decision,
		UsedBudget: next.UsedBudget,
		Threshold:  next.Threshold,
	}
}

// Start begins ticking. Starting a running session is a no-op.
func (r *Runner) Start() {
	r.setTicking(true)
}

// Pause stops ticking and keeps all state.
func (r *Runner) Pause() {
	r.setTicking(false)
}

// Toggle flips between running and paused and reports the new state.
func (r *Runner) Toggle() bool {
	r.mu.Lock()
	r.ticking = !r.ticking
	ticking := r.ticking
	r.mu.Unlock()
	r.signal()
	logf("ticking=%v", ticking)
	return ticking
}

func (r *Runner) setTicking(on bool) {
	r.mu.Lock()
	changed := r.ticking != on
	r.ticking = on
	r.mu.Unlock()
	if changed {
		r.signal()
		logf("ticking=%v", on)
	}
}

// Reset stops ticking and returns the session to frame 0 with no processed
// or selected frames. Threshold, budget and speed are kept.
func (r *Runner) Reset() {
	r.mu.Lock()
	r.ticking = false
	r.state = selection.Reset(r.state)
	r.analysisFrame = selection.NoAnalysis
	r.publish(Event{Kind: EventReset, Threshold: r.state.Threshold})
	r.mu.Unlock()
	r.signal()
	logf("session reset")
}

// SetSpeed changes the tick interval. It must lie in [100ms, 1000ms].
func (r *Runner) SetSpeed(d time.Duration) error {
	if err := validateSpeed(d); err != nil {
		return err
	}
	r.mu.Lock()
	r.speed = d
	r.mu.Unlock()
	r.signal()
	return nil
}

// SetThreshold changes the selection threshold for future ticks. Frames
// selected earlier stay selected.
func (r *Runner) SetThreshold(t float64) error {
	if err := config.ValidateThreshold(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidControl, err)
	}
	r.mu.Lock()
	r.state = selection.WithThreshold(r.state, t)
	r.mu.Unlock()
	logf("threshold set to %.2f", t)
	return nil
}

// SetShowDetails toggles the extended ensemble metrics panel.
func (r *Runner) SetShowDetails(show bool) {
	r.mu.Lock()
	r.showDetails = show
	r.mu.Unlock()
}

// OpenAnalysis opens the report panel for frame i, which must have been
// selected for labeling.
func (r *Runner) OpenAnalysis(i int) (explain.FrameAnalysis, error) {
	if i < 0 || i >= r.catalog.Len() {
		return explain.FrameAnalysis{}, fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.IsSelected(i) {
		return explain.FrameAnalysis{}, fmt.Errorf("%w: %s", ErrNotSelected, catalog.FrameID(i))
	}
	a, ok := r.state.Analysis(i)
	if !ok {
		return explain.FrameAnalysis{}, fmt.Errorf("%w: no report for %s", ErrNotSelected, catalog.FrameID(i))
	}
	r.analysisFrame = i
	return a, nil
}

// CloseAnalysis closes the report panel. Closing with nothing open is a
// no-op.
func (r *Runner) CloseAnalysis() {
	r.mu.Lock()
	r.analysisFrame = selection.NoAnalysis
	r.mu.Unlock()
}

// Catalog returns the session's frame catalog.
func (r *Runner) Catalog() *catalog.Catalog {
	return r.catalog
}

// Ticking reports whether the session is running.
func (r *Runner) Ticking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticking
}

func (r *Runner) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

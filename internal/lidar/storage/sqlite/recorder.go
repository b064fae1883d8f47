package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
	"github.com/banshee-data/lidar-active-learning/internal/timeutil"
)

var logf = monitoring.Component("runlog")

// RunInfo is the fixed metadata stamped on every run a Recorder opens.
type RunInfo struct {
	Seed           int64
	CatalogSize    int
	LabelingBudget int
}

// Recorder writes session events to a RunStore: one run per session
// lifetime, one row per newly selected frame.
type Recorder struct {
	store *RunStore
	clock timeutil.Clock
	info  RunInfo

	mu        sync.Mutex
	runID     string
	processed int
}

// NewRecorder returns a recorder with no open run.
func NewRecorder(store *RunStore, clock timeutil.Clock, info RunInfo) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{store: store, clock: clock, info: info}
}

// Begin opens a new run at the given threshold.
func (r *Recorder) Begin(threshold float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beginLocked(threshold)
}

func (r *Recorder) beginLocked(threshold float64) error {
	run := &Run{
		Seed:           r.info.Seed,
		CatalogSize:    r.info.CatalogSize,
		LabelingBudget: r.info.LabelingBudget,
		Threshold:      threshold,
		StartedAt:      r.clock.Now().UnixNano(),
	}
	if err := r.store.CreateRun(run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	r.runID = run.RunID
	r.processed = 0
	logf("opened run %s (seed=%d)", run.RunID, run.Seed)
	return nil
}

// End closes the open run, if any.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endLocked()
}

func (r *Recorder) endLocked() error {
	if r.runID == "" {
		return nil
	}
	id := r.runID
	r.runID = ""
	if err := r.store.EndRun(id, r.processed, r.clock.Now().UnixNano()); err != nil {
		return err
	}
	logf("closed run %s after %d frames", id, r.processed)
	return nil
}

// RunID returns the open run's id, or "" when none is open.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Handle applies one session event. A reset closes the current run and
// opens the next one.
func (r *Recorder) Handle(ev session.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Kind {
	case session.EventReset:
		if err := r.endLocked(); err != nil {
			return err
		}
		return r.beginLocked(ev.Threshold)
	case session.EventTick:
		if r.runID == "" {
			return nil
		}
		r.processed++
		if ev.Decision != selection.DecisionSelected {
			return nil
		}
		sel, err := r.selectionFor(ev)
		if err != nil {
			return err
		}
		return r.store.RecordSelection(sel)
	}
	return nil
}

func (r *Recorder) selectionFor(ev session.Event) (*Selection, error) {
	rec := ev.Record
	analysis, err := json.Marshal(rec.Analysis)
	if err != nil {
		return nil, fmt.Errorf("encode analysis for %s: %w", rec.Frame.ID, err)
	}
	return &Selection{
		RunID:          r.runID,
		FrameIndex:     rec.FrameIndex,
		FrameID:        rec.Frame.ID,
		Uncertainty:    rec.Uncertainty(),
		Disagreement:   rec.Output.Metrics.ModelDisagreement,
		Threshold:      ev.Threshold,
		BudgetUsed:     ev.UsedBudget,
		Recommendation: explain.Recommendation(rec.Uncertainty()),
		AnalysisJSON:   string(analysis),
		SelectedAt:     r.clock.Now().UnixNano(),
	}, nil
}

// Run consumes events until ctx is cancelled or events is closed, then
// closes the open run. Write failures are logged and do not stop the loop.
func (r *Recorder) Run(ctx context.Context, events <-chan session.Event) error {
	defer func() {
		if err := r.End(); err != nil {
			logf("close run: %v", err)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := r.Handle(ev); err != nil {
				logf("record %s event: %v", ev.Kind, err)
			}
		}
	}
}

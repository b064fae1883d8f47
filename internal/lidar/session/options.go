package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/lidar-active-learning/internal/config"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/ensemble"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/timeutil"
)

var (
	// ErrInvalidControl wraps a rejected speed or threshold value.
	ErrInvalidControl = errors.New("invalid control value")
	// ErrOutOfRange is returned for a frame index outside the catalog.
	ErrOutOfRange = errors.New("frame index out of range")
	// ErrNotSelected is returned when opening the report of a frame that was
	// not selected for labeling.
	ErrNotSelected = errors.New("frame not selected for labeling")
)

// Options configures a Runner. Catalog and Rand are required.
type Options struct {
	Catalog     *catalog.Catalog
	Rand        catalog.Rand
	Clock       timeutil.Clock      // defaults to timeutil.RealClock
	Simulator   *ensemble.Simulator // defaults to ensemble.NewSimulator()
	Budget      int
	Threshold   float64
	Speed       time.Duration
	HistorySize int
	ShowDetails bool
	LabelCost   float64
}

// OptionsFromConfig builds Options from a session config, generating the
// catalog from the configured (or clock-derived) seed. The seed is returned
// so callers can log and persist it.
func OptionsFromConfig(cfg *config.SessionConfig) (Options, int64) {
	seed, _ := cfg.GetSeed()
	rng := catalog.NewRand(seed)
	return Options{
		Catalog:     catalog.New(cfg.GetCatalogSize(), rng),
		Rand:        rng,
		Budget:      cfg.GetLabelingBudget(),
		Threshold:   cfg.GetUncertaintyThreshold(),
		Speed:       cfg.GetProcessingSpeed(),
		HistorySize: cfg.GetHistorySize(),
		ShowDetails: cfg.GetShowEnsembleDetails(),
		LabelCost:   cfg.GetLabelCostPerFrame(),
	}, seed
}

func (o *Options) applyDefaults() error {
	if o.Catalog == nil || o.Catalog.Len() == 0 {
		return fmt.Errorf("session requires a non-empty catalog")
	}
	if o.Rand == nil {
		return fmt.Errorf("session requires a random source")
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	if o.Simulator == nil {
		o.Simulator = ensemble.NewSimulator()
	}
	if o.Speed == 0 {
		o.Speed = 500 * time.Millisecond
	}
	if err := validateSpeed(o.Speed); err != nil {
		return err
	}
	if o.Budget < 0 {
		return fmt.Errorf("labeling budget must be non-negative, got %d", o.Budget)
	}
	if o.HistorySize <= 0 {
		o.HistorySize = selection.DefaultHistorySize
	}
	if o.LabelCost == 0 {
		o.LabelCost = selection.DefaultLabelCost
	}
	return nil
}

func validateSpeed(d time.Duration) error {
	if d%time.Millisecond != 0 {
		return fmt.Errorf("%w: speed must be whole milliseconds, got %v", ErrInvalidControl, d)
	}
	if err := config.ValidateSpeed(int(d / time.Millisecond)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidControl, err)
	}
	return nil
}

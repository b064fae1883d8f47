package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical session defaults file.
const DefaultConfigPath = "config/session.defaults.json"

// Control ranges exposed to the user. The threshold moves on a 0.05 grid.
const (
	MinThreshold     = 0.30
	MaxThreshold     = 0.90
	ThresholdStep    = 0.05
	MinSpeedMs       = 100
	MaxSpeedMs       = 1000
	thresholdGridEps = 1e-9
)

// SessionConfig represents the startup configuration of an active-learning
// session. Every field is optional; the Get* methods supply defaults for
// anything left out of the JSON file.
type SessionConfig struct {
	// Catalog params
	CatalogSize *int   `json:"catalog_size,omitempty"`
	Seed        *int64 `json:"seed,omitempty"` // nil seeds from the wall clock

	// Selection params
	LabelingBudget       *int     `json:"labeling_budget,omitempty"`
	UncertaintyThreshold *float64 `json:"uncertainty_threshold,omitempty"`

	// Runner params
	ProcessingSpeedMs *int `json:"processing_speed_ms,omitempty"`
	HistorySize       *int `json:"history_size,omitempty"`

	// Presentation params
	ShowEnsembleDetails *bool    `json:"show_ensemble_details,omitempty"`
	LabelCostPerFrame   *float64 `json:"label_cost_per_frame,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptySessionConfig returns a SessionConfig with all fields unset.
func EmptySessionConfig() *SessionConfig {
	return &SessionConfig{}
}

// DefaultSessionConfig returns a SessionConfig with every field populated
// from the built-in defaults. Seed stays nil.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		CatalogSize:          ptrInt(100),
		LabelingBudget:       ptrInt(100),
		UncertaintyThreshold: ptrFloat64(0.65),
		ProcessingSpeedMs:    ptrInt(500),
		HistorySize:          ptrInt(10),
		ShowEnsembleDetails:  ptrBool(false),
		LabelCostPerFrame:    ptrFloat64(25),
	}
}

// LoadSessionConfig loads a SessionConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the file fall back to defaults through the Get* accessors.
func LoadSessionConfig(path string) (*SessionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySessionConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that every set field is within its allowed range.
func (c *SessionConfig) Validate() error {
	if c.CatalogSize != nil && *c.CatalogSize < 1 {
		return fmt.Errorf("catalog_size must be at least 1, got %d", *c.CatalogSize)
	}
	if c.LabelingBudget != nil && *c.LabelingBudget < 0 {
		return fmt.Errorf("labeling_budget must be non-negative, got %d", *c.LabelingBudget)
	}
	if c.UncertaintyThreshold != nil {
		if err := ValidateThreshold(*c.UncertaintyThreshold); err != nil {
			return err
		}
	}
	if c.ProcessingSpeedMs != nil {
		if err := ValidateSpeed(*c.ProcessingSpeedMs); err != nil {
			return err
		}
	}
	if c.HistorySize != nil && *c.HistorySize < 1 {
		return fmt.Errorf("history_size must be at least 1, got %d", *c.HistorySize)
	}
	if c.LabelCostPerFrame != nil && *c.LabelCostPerFrame < 0 {
		return fmt.Errorf("label_cost_per_frame must be non-negative, got %f", *c.LabelCostPerFrame)
	}
	return nil
}

// ValidateThreshold checks an uncertainty threshold against the slider range
// [0.30, 0.90] and its 0.05 grid.
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t < MinThreshold-thresholdGridEps || t > MaxThreshold+thresholdGridEps {
		return fmt.Errorf("uncertainty_threshold must be between %.2f and %.2f, got %v", MinThreshold, MaxThreshold, t)
	}
	steps := t / ThresholdStep
	if math.Abs(steps-math.Round(steps)) > 1e-6 {
		return fmt.Errorf("uncertainty_threshold must be a multiple of %.2f, got %v", ThresholdStep, t)
	}
	return nil
}

// ValidateSpeed checks a tick interval in milliseconds against [100, 1000].
func ValidateSpeed(ms int) error {
	if ms < MinSpeedMs || ms > MaxSpeedMs {
		return fmt.Errorf("processing_speed_ms must be between %d and %d, got %d", MinSpeedMs, MaxSpeedMs, ms)
	}
	return nil
}

// GetCatalogSize returns the catalog_size value or the default.
func (c *SessionConfig) GetCatalogSize() int {
	if c.CatalogSize == nil {
		return 100
	}
	return *c.CatalogSize
}

// GetSeed returns the configured seed, or one derived from the wall clock.
// The second return reports whether the seed came from the config.
func (c *SessionConfig) GetSeed() (int64, bool) {
	if c.Seed == nil {
		return time.Now().UnixNano(), false
	}
	return *c.Seed, true
}

// GetLabelingBudget returns the labeling_budget value or the default.
func (c *SessionConfig) GetLabelingBudget() int {
	if c.LabelingBudget == nil {
		return 100
	}
	return *c.LabelingBudget
}

// GetUncertaintyThreshold returns the uncertainty_threshold value or the default.
func (c *SessionConfig) GetUncertaintyThreshold() float64 {
	if c.UncertaintyThreshold == nil {
		return 0.65
	}
	return *c.UncertaintyThreshold
}

// GetProcessingSpeed returns the tick interval.
func (c *SessionConfig) GetProcessingSpeed() time.Duration {
	if c.ProcessingSpeedMs == nil {
		return 500 * time.Millisecond
	}
	return time.Duration(*c.ProcessingSpeedMs) * time.Millisecond
}

// GetHistorySize returns the history_size value or the default.
func (c *SessionConfig) GetHistorySize() int {
	if c.HistorySize == nil {
		return 10
	}
	return *c.HistorySize
}

// GetShowEnsembleDetails returns the show_ensemble_details value or the default.
func (c *SessionConfig) GetShowEnsembleDetails() bool {
	if c.ShowEnsembleDetails == nil {
		return false
	}
	return *c.ShowEnsembleDetails
}

// GetLabelCostPerFrame returns the label_cost_per_frame value or the default.
func (c *SessionConfig) GetLabelCostPerFrame() float64 {
	if c.LabelCostPerFrame == nil {
		return 25
	}
	return *c.LabelCostPerFrame
}

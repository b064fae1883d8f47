// Package main runs an active-learning session headlessly for a fixed
// number of ticks and reports what was selected.
//
// It writes a PNG of frame uncertainty per tick with the threshold line and
// the selected frames highlighted, plus an optional JSON summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/lidar-active-learning/internal/config"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
)

// Config holds configuration for a replay.
type Config struct {
	ConfigPath string
	Seed       int64
	Ticks      int
	Budget     int
	Threshold  float64
	OutputPNG  string
	OutputJSON string
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.ConfigPath, "config", "", "Session config JSON file (defaults when empty)")
	flag.Int64Var(&cfg.Seed, "seed", 42, "Catalog and simulation seed")
	flag.IntVar(&cfg.Ticks, "ticks", 0, "Ticks to run (0 = one pass over the catalog)")
	flag.IntVar(&cfg.Budget, "budget", -1, "Override the labeling budget (-1 uses the config)")
	flag.Float64Var(&cfg.Threshold, "threshold", 0, "Override the uncertainty threshold (0 uses the config)")
	flag.StringVar(&cfg.OutputPNG, "png", "al-replay.png", "Uncertainty plot output (empty disables)")
	flag.StringVar(&cfg.OutputJSON, "json", "", "JSON summary output (empty disables)")
	flag.Parse()

	result, err := replay(cfg)
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	if cfg.OutputPNG != "" {
		if err := savePlot(result, cfg.OutputPNG); err != nil {
			log.Fatalf("failed to write plot: %v", err)
		}
		log.Printf("wrote %s", cfg.OutputPNG)
	}
	if cfg.OutputJSON != "" {
		if err := writeJSON(result, cfg.OutputJSON); err != nil {
			log.Fatalf("failed to write summary: %v", err)
		}
		log.Printf("wrote %s", cfg.OutputJSON)
	}
	printSummary(os.Stdout, result)
}

func sessionConfig(cfg Config) (*config.SessionConfig, error) {
	sc := config.DefaultSessionConfig()
	if cfg.ConfigPath != "" {
		loaded, err := config.LoadSessionConfig(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		sc = loaded
	}
	seed := cfg.Seed
	sc.Seed = &seed
	if cfg.Budget >= 0 {
		b := cfg.Budget
		sc.LabelingBudget = &b
	}
	if cfg.Threshold != 0 {
		th := cfg.Threshold
		sc.UncertaintyThreshold = &th
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// replay steps a fresh session cfg.Ticks times.
func replay(cfg Config) (*Result, error) {
	sc, err := sessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts, seed := session.OptionsFromConfig(sc)
	runner, err := session.NewRunner(opts)
	if err != nil {
		return nil, err
	}

	ticks := cfg.Ticks
	if ticks <= 0 {
		ticks = runner.Catalog().Len()
	}

	res := &Result{
		Seed:        seed,
		CatalogSize: runner.Catalog().Len(),
		Budget:      sc.GetLabelingBudget(),
		Threshold:   sc.GetUncertaintyThreshold(),
		Ticks:       make([]Tick, 0, ticks),
	}
	for i := 0; i < ticks; i++ {
		rec, decision := runner.Step()
		res.Ticks = append(res.Ticks, Tick{
			Tick:        i,
			FrameIndex:  rec.FrameIndex,
			FrameID:     rec.Frame.ID,
			Uncertainty: rec.Uncertainty(),
			Decision:    string(decision),
		})
	}
	res.summarise(runner.Snapshot())
	return res, nil
}

func writeJSON(res *Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func printSummary(w io.Writer, res *Result) {
	fmt.Fprintf(w, "seed=%d catalog=%d budget=%d threshold=%.2f\n", res.Seed, res.CatalogSize, res.Budget, res.Threshold)
	fmt.Fprintf(w, "processed %d frames, selected %d (%.1f%%)\n", res.Stats.ProcessedFrames, res.Stats.SelectedFrames, res.Stats.SelectionRate)
	fmt.Fprintf(w, "uncertainty mean %.3f, stddev %.3f\n", res.MeanUncertainty, res.StdDevUncertainty)
	fmt.Fprintf(w, "model performance %.1f%%, potential savings $%.0f\n", res.Stats.ModelPerformance, res.Stats.PotentialSavings)
	for _, tier := range res.TierOrder {
		fmt.Fprintf(w, "  %-12s %d\n", tier, res.Tiers[tier])
	}
	if len(res.Selected) > 0 {
		fmt.Fprintf(w, "selected frames: %v\n", res.Selected)
	}
}

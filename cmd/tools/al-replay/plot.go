package main

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
)

var (
	lineColor      = color.RGBA{R: 66, G: 165, B: 245, A: 255}
	selectedColor  = color.RGBA{R: 239, G: 83, B: 80, A: 255}
	thresholdColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}
)

// buildPlot draws uncertainty per tick, the threshold and the ticks that
// selected a frame.
func buildPlot(res *Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Frame uncertainty (seed %d, %d selected)", res.Seed, len(res.Selected))
	p.X.Label.Text = "Tick"
	p.Y.Label.Text = "Uncertainty"
	p.Y.Min = 0
	p.Y.Max = 1

	all := make(plotter.XYs, len(res.Ticks))
	selected := make(plotter.XYs, 0, len(res.Selected))
	for i, t := range res.Ticks {
		all[i] = plotter.XY{X: float64(t.Tick), Y: t.Uncertainty}
		if t.Decision == string(selection.DecisionSelected) {
			selected = append(selected, all[i])
		}
	}

	line, err := plotter.NewLine(all)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("uncertainty", line)

	threshold := plotter.NewFunction(func(float64) float64 { return res.Threshold })
	threshold.Color = thresholdColor
	threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(threshold)
	p.Legend.Add(fmt.Sprintf("threshold %.2f", res.Threshold), threshold)

	if len(selected) > 0 {
		sc, err := plotter.NewScatter(selected)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = selectedColor
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("selected", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func savePlot(res *Result, path string) error {
	p, err := buildPlot(res)
	if err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

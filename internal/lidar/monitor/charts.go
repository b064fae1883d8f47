package monitor

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/ensemble"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
)

// echartsAssetsPrefix is where the rendered pages load echarts.min.js from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

var markerColors = map[selection.Marker]string{
	selection.MarkerAnalyzing:       "#7e57c2",
	selection.MarkerCurrent:         "#ffca28",
	selection.MarkerSelected:        "#ef5350",
	selection.MarkerHighUncertainty: "#ffa726",
	selection.MarkerProcessed:       "#66bb6a",
	selection.MarkerPending:         "#bdbdbd",
}

var tierColors = map[ensemble.Tier]string{
	ensemble.TierHigh:   "#ef5350",
	ensemble.TierMedium: "#ffa726",
	ensemble.TierLow:    "#66bb6a",
}

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle:  title,
		Width:      "100%",
		Height:     "360px",
		AssetsHost: echartsAssetsPrefix,
	})
}

// uncertaintyTimelineChart plots each timeline frame's recorded uncertainty,
// coloured by marker, with the selection threshold as a mark line.
func uncertaintyTimelineChart(v session.View) *charts.Bar {
	x := make([]string, len(v.Timeline))
	y := make([]opts.BarData, len(v.Timeline))
	for i, m := range v.Timeline {
		x[i] = fmt.Sprintf("%d", i)
		u := v.State.Uncertainties[i]
		y[i] = opts.BarData{
			Name:      fmt.Sprintf("%06d %s", i, m),
			Value:     u,
			ItemStyle: &opts.ItemStyle{Color: markerColors[m]},
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Frame Uncertainty"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Frame Uncertainty",
			Subtitle: fmt.Sprintf("threshold=%.2f processed=%d selected=%d", v.State.Threshold, v.State.ProcessedFrames, len(v.State.Selected)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "uncertainty"}),
	)
	bar.SetXAxis(x).AddSeries("uncertainty", y,
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
			Name:  "threshold",
			YAxis: v.State.Threshold,
		}),
	)
	return bar
}

// modelChart compares per-model uncertainty and confidence for one frame.
func modelChart(rec selection.TickRecord) *charts.Bar {
	preds := rec.Output.ModelPredictions
	x := make([]string, len(preds))
	unc := make([]opts.BarData, len(preds))
	conf := make([]opts.BarData, len(preds))
	for i, p := range preds {
		x[i] = p.ModelName
		unc[i] = opts.BarData{Value: p.Uncertainty}
		conf[i] = opts.BarData{Value: p.Confidence}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Ensemble Models"),
		charts.WithTitleOpts(opts.Title{Title: "Ensemble Models", Subtitle: "frame " + rec.Frame.ID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(x).
		AddSeries("uncertainty", unc, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ef5350"})).
		AddSeries("confidence", conf, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#42a5f5"}))
	return bar
}

// metricsChart shows the four ensemble metrics for one frame.
func metricsChart(rec selection.TickRecord) *charts.Bar {
	m := rec.Output.Metrics
	x := []string{"Avg Uncertainty", "Disagreement", "Entropy", "Mutual Info"}
	y := []opts.BarData{
		{Value: m.AvgUncertainty},
		{Value: m.ModelDisagreement},
		{Value: m.PredictiveEntropy},
		{Value: m.MutualInformation},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Ensemble Metrics"),
		charts.WithTitleOpts(opts.Title{Title: "Ensemble Metrics", Subtitle: "frame " + rec.Frame.ID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).AddSeries("metrics", y,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}

// objectChart shows per-object uncertainty coloured by tier.
func objectChart(rec selection.TickRecord) *charts.Bar {
	objs := rec.Output.ObjectUncertainties
	x := make([]string, len(objs))
	y := make([]opts.BarData, len(objs))
	for i, u := range objs {
		x[i] = fmt.Sprintf("obj %d", i+1)
		y[i] = opts.BarData{
			Value:     u,
			ItemStyle: &opts.ItemStyle{Color: tierColors[ensemble.ObjectTier(u)]},
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Object Uncertainty"),
		charts.WithTitleOpts(opts.Title{
			Title:    "Object Uncertainty",
			Subtitle: fmt.Sprintf("frame %s, %d objects, %s", rec.Frame.ID, len(objs), explain.Recommendation(rec.Uncertainty())),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(x).AddSeries("objects", y)
	return bar
}

// renderDashboard renders every chart that applies to v as one page. The
// metrics chart only appears when extended details are enabled.
func renderDashboard(v session.View) ([]byte, error) {
	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.PageTitle = "Active Learning Dashboard"
	page.AddCharts(uncertaintyTimelineChart(v))
	if v.Current != nil {
		page.AddCharts(modelChart(*v.Current), objectChart(*v.Current))
		if v.ShowDetails {
			page.AddCharts(metricsChart(*v.Current))
		}
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

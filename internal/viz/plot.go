package viz

import (
	"github.com/guptarohit/asciigraph"

	"oncosim/internal/sim"
)

// PlotTrajectory renders the total-volume series of a recorded trajectory as
// a static terminal chart.
func PlotTrajectory(points []sim.Point, caption string) string {
	if len(points) < 2 {
		return "(not enough data to plot)"
	}
	series := make([]float64, len(points))
	for i, p := range points {
		series[i] = p.State.Total()
	}
	return asciigraph.Plot(series,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption))
}

// PlotSeries renders several named series on one chart, one color per arm.
func PlotSeries(series [][]float64, legends []string) string {
	if len(series) == 0 {
		return "(no series)"
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Blue, asciigraph.Yellow),
		asciigraph.SeriesLegends(legends...))
}

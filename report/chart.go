package report

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/panchorivasf/tidyacoustics/models"
)

var highlightColor = color.RGBA{R: 0xd6, G: 0x2d, B: 0x20, A: 0xff}
var seriesColor = color.RGBA{R: 0x2b, G: 0x5c, B: 0x8a, A: 0xff}

// RenderChart writes a raster chart of the day series to path. The base
// series is drawn in the requested style; days for which corrupted
// returns true are overlaid as distinct red markers.
func RenderChart(path string, days []models.DaySummary, style models.ChartStyle, corrupted func(time.Time) bool) error {
	p := plot.New()
	p.Title.Text = "Mean recording size per day"
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Mean size (MB)"

	// Bar charts use a nominal axis, so x becomes the day index there;
	// lines and points plot real timestamps.
	xFor := func(i int) float64 { return float64(days[i].Date.Unix()) }
	if style == models.StyleBars {
		xFor = func(i int) float64 { return float64(i) }
	} else {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	}

	switch style {
	case models.StyleLines:
		line, err := plotter.NewLine(daySeries(days, xFor))
		if err != nil {
			return fmt.Errorf("cannot build line series: %w", err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = seriesColor
		p.Add(line)
	case models.StylePoints:
		sc, err := plotter.NewScatter(daySeries(days, xFor))
		if err != nil {
			return fmt.Errorf("cannot build point series: %w", err)
		}
		sc.GlyphStyle.Color = seriesColor
		sc.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(sc)
	case models.StyleBars:
		vals := make(plotter.Values, len(days))
		labels := make([]string, len(days))
		for i, d := range days {
			vals[i] = d.MeanSizeMB
			labels[i] = d.Date.Format("2006-01-02")
		}
		bars, err := plotter.NewBarChart(vals, vg.Points(18))
		if err != nil {
			return fmt.Errorf("cannot build bar series: %w", err)
		}
		bars.Color = seriesColor
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalX(labels...)
	}

	var bad plotter.XYs
	for i, d := range days {
		if corrupted(d.Date) {
			bad = append(bad, plotter.XY{X: xFor(i), Y: d.MeanSizeMB})
		}
	}
	if len(bad) > 0 {
		sc, err := plotter.NewScatter(bad)
		if err != nil {
			return fmt.Errorf("cannot build highlight series: %w", err)
		}
		sc.GlyphStyle.Color = highlightColor
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add("corrupted", sc)
	}

	if err := p.Save(9*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("cannot save chart: %w", err)
	}
	return nil
}

func daySeries(days []models.DaySummary, xFor func(int) float64) plotter.XYs {
	xys := make(plotter.XYs, len(days))
	for i, d := range days {
		xys[i] = plotter.XY{X: xFor(i), Y: d.MeanSizeMB}
	}
	return xys
}

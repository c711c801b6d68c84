// Package chart renders scaling results as log-log PNG charts.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/store"
)

var ErrEmptyTable = errors.New("chart: no positive timings to plot")

// Reference is a straight line on the log-log axes: y = Anchor * x^Slope.
type Reference struct {
	Slope  float64
	Anchor float64 // value at one worker
	Label  string
}

type Options struct {
	Title  string
	XLabel string
	YLabel string
	// SeriesLabel is a format string taking the series' variable.
	SeriesLabel string
	// Ticks are the worker counts marked on the x axis. The reference line
	// spans from the first to the last tick.
	Ticks     []int
	Reference *Reference

	Width  vg.Length
	Height vg.Length
	DPI    int
}

var DefaultTicks = []int{1, 2, 4, 8, 16, 32, 64}

// StrongOptions matches the strong-scaling chart: ideal-speedup line of
// slope -1 through 100 s at one worker.
func StrongOptions() Options {
	return Options{
		Title:       "Strong Scaling",
		XLabel:      "Number of Threads",
		YLabel:      "Time (s)",
		SeriesLabel: "#particles = %d",
		Ticks:       DefaultTicks,
		Reference:   &Reference{Slope: -1, Anchor: 100, Label: "Slope = -1"},
		Width:       10 * vg.Inch,
		Height:      6 * vg.Inch,
		DPI:         300,
	}
}

// WeakOptions omits the reference line; ideal weak scaling is flat.
func WeakOptions() Options {
	opts := StrongOptions()
	opts.Title = "Weak Scaling"
	opts.SeriesLabel = "#particles/#threads = %d"
	opts.Reference = nil
	return opts
}

func OptionsFor(kind campaign.Kind) Options {
	if kind == campaign.Weak {
		return WeakOptions()
	}
	return StrongOptions()
}

// Series is one plotted line: a variable's (workers, seconds) points in
// ascending worker order.
type Series struct {
	Variable int
	Points   plotter.XYs
}

// BuildSeries orders t for plotting. Non-positive timings cannot sit on a
// log axis and are dropped, as are series left empty.
func BuildSeries(t store.Table) []Series {
	var out []Series
	for _, v := range t.Variables() {
		var pts plotter.XYs
		for _, w := range t.Workers(v) {
			sec := t[v][w]
			if w <= 0 || sec <= 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(w), Y: sec})
		}
		if len(pts) > 0 {
			out = append(out, Series{Variable: v, Points: pts})
		}
	}
	return out
}

// Palette returns n series colors. Index i maps to the same color in every
// chart so a series keeps its color across strong and weak plots.
func Palette(n int) ([]color.Color, error) {
	pal, err := brewer.GetPalette(brewer.TypeQualitative, "Set1", 9)
	if err != nil {
		return nil, err
	}
	base := pal.Colors()
	colors := make([]color.Color, n)
	for i := range colors {
		colors[i] = base[i%len(base)]
	}
	return colors, nil
}

// Render writes the chart for t to path as PNG.
func Render(t store.Table, path string, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("chart: create %s: %w", path, err)
	}

	if err := WritePNG(f, t, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func WritePNG(w io.Writer, t store.Table, opts Options) error {
	series := BuildSeries(t)
	if len(series) == 0 {
		return ErrEmptyTable
	}
	opts = withDefaults(opts)

	fig, err := build(series, opts)
	if err != nil {
		return err
	}

	canvas := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(opts.DPI))
	dc := draw.New(canvas)

	// Legend goes in a strip right of the axes, outside the data area.
	strip := opts.Width * 0.24
	fig.plot.Draw(draw.Crop(dc, 0, -strip, 0, 0))
	fig.legend.Draw(draw.Crop(dc, opts.Width-strip, 0, 0, 0))

	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("chart: encode png: %w", err)
	}
	return nil
}

func withDefaults(opts Options) Options {
	def := StrongOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}
	if opts.SeriesLabel == "" {
		opts.SeriesLabel = "%d"
	}
	return opts
}

type figure struct {
	plot   *plot.Plot
	legend plot.Legend
	// lines holds one styled line per series, in series order.
	lines []*plotter.Line
}

func build(series []Series, opts Options) (*figure, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel

	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	if len(opts.Ticks) > 0 {
		ticks := make([]plot.Tick, len(opts.Ticks))
		for i, w := range opts.Ticks {
			ticks[i] = plot.Tick{Value: float64(w), Label: strconv.Itoa(w)}
		}
		p.X.Tick.Marker = plot.ConstantTicks(ticks)
	}

	grid := plotter.NewGrid()
	grid.Vertical.Color = color.Gray{Y: 220}
	grid.Horizontal.Color = color.Gray{Y: 220}
	p.Add(grid)

	legend := plot.NewLegend()
	legend.Top = true
	legend.Left = true

	colors, err := Palette(len(series))
	if err != nil {
		return nil, fmt.Errorf("chart: palette: %w", err)
	}

	lines := make([]*plotter.Line, len(series))

	for i, s := range series {
		line, points, err := plotter.NewLinePoints(s.Points)
		if err != nil {
			return nil, fmt.Errorf("chart: series %d: %w", s.Variable, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = colors[i]
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(4)

		p.Add(line, points)
		legend.Add(fmt.Sprintf(opts.SeriesLabel, s.Variable), line, points)
		lines[i] = line
	}

	if ref := opts.Reference; ref != nil {
		lo, hi := xRange(series, opts.Ticks)
		line, err := referenceLine(*ref, lo, hi)
		if err != nil {
			return nil, err
		}
		p.Add(line)
		legend.Add(ref.Label, line)
	}

	widenLogRange(&p.X)
	widenLogRange(&p.Y)

	return &figure{plot: p, legend: legend, lines: lines}, nil
}

// widenLogRange spreads a single-valued axis over a factor of two each way.
// Left alone, gonum pads it by one unit, which can reach zero on a log scale.
func widenLogRange(a *plot.Axis) {
	if a.Min == a.Max && a.Min > 0 {
		a.Min /= 2
		a.Max *= 2
	}
}

func xRange(series []Series, ticks []int) (lo, hi float64) {
	if len(ticks) > 0 {
		return float64(ticks[0]), float64(ticks[len(ticks)-1])
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		lo = math.Min(lo, s.Points[0].X)
		hi = math.Max(hi, s.Points[len(s.Points)-1].X)
	}
	return lo, hi
}

func referenceLine(ref Reference, lo, hi float64) (*plotter.Line, error) {
	pts := plotter.XYs{
		{X: lo, Y: ref.Anchor * math.Pow(lo, ref.Slope)},
		{X: hi, Y: ref.Anchor * math.Pow(hi, ref.Slope)},
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("chart: reference line: %w", err)
	}
	line.Color = color.Black
	line.Width = vg.Points(1.5)
	line.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	return line, nil
}

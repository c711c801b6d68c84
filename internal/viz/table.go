package viz

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/store"
)

func variableLabel(kind campaign.Kind) string {
	if kind == campaign.Weak {
		return "n/thread"
	}
	return "particles"
}

// Table renders seconds per (variable, workers) with one row per variable,
// one column per worker count and a trailing sparkline of the row.
func Table(t store.Table, kind campaign.Kind, theme Theme) string {
	return renderTable(t, kind, newStyles(theme))
}

func renderTable(t store.Table, kind campaign.Kind, s styles) string {
	if t.Len() == 0 {
		return s.muted.Render("no results yet")
	}

	workers := t.AllWorkers()
	headers := []string{variableLabel(kind)}
	for _, w := range workers {
		headers = append(headers, "t="+strconv.Itoa(w))
	}
	headers = append(headers, "trend")

	var rows [][]string
	for _, v := range t.Variables() {
		row := []string{strconv.Itoa(v)}
		var trend []float64
		for _, w := range workers {
			sec, ok := t.Get(store.Key{Variable: v, Workers: w})
			if !ok {
				row = append(row, "-")
				continue
			}
			row = append(row, formatSeconds(sec))
			trend = append(trend, sec)
		}
		rows = append(rows, append(row, Sparkline(trend)))
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.value
		})
	return tbl.Render()
}

func formatSeconds(sec float64) string {
	switch {
	case sec < 1e-3:
		return fmt.Sprintf("%.0fµs", sec*1e6)
	case sec < 1:
		return fmt.Sprintf("%.1fms", sec*1e3)
	}
	return fmt.Sprintf("%.2fs", sec)
}

// Preview plots log10(seconds) against worker step, one line per variable.
// Worker counts are evenly spaced, matching the log2 x axis of the PNG chart.
func Preview(t store.Table, kind campaign.Kind, theme Theme) string {
	workers := t.AllWorkers()
	if len(workers) < 2 {
		return ""
	}

	var (
		data    [][]float64
		legends []string
		colors  []asciigraph.AnsiColor
	)
	for i, v := range t.Variables() {
		series := make([]float64, len(workers))
		points := 0
		for j, w := range workers {
			sec, ok := t.Get(store.Key{Variable: v, Workers: w})
			if !ok || sec <= 0 {
				series[j] = math.NaN()
				continue
			}
			series[j] = math.Log10(sec)
			points++
		}
		if points == 0 {
			continue
		}
		data = append(data, series)
		legends = append(legends, fmt.Sprintf("%s=%d", variableLabel(kind), v))
		colors = append(colors, theme.Series[i%len(theme.Series)])
	}
	if len(data) == 0 {
		return ""
	}

	steps := make([]string, len(workers))
	for i, w := range workers {
		steps[i] = strconv.Itoa(w)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(10),
		asciigraph.Width(8*len(workers)),
		asciigraph.Precision(2),
		asciigraph.Caption("log10 seconds vs threads "+strings.Join(steps, ",")),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
}

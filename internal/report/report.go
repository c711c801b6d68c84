// Package report formats scaling results into speedup and efficiency tables.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/store"
)

var ErrNoResults = errors.New("no results to report")

// Row is one measured point with its derived ratios. Speedup and Efficiency
// are zero when the variable has no single-worker time.
type Row struct {
	Variable   int     `json:"variable"`
	Workers    int     `json:"workers"`
	Seconds    float64 `json:"seconds"`
	Speedup    float64 `json:"speedup"`
	Efficiency float64 `json:"efficiency"`
}

// Rows derives speedup T(v,1)/T(v,t) for every point. Strong efficiency is
// speedup/t; weak efficiency is T(v,1)/T(v,t) since the work grows with t.
func Rows(t store.Table, kind campaign.Kind) []Row {
	var rows []Row
	for _, v := range t.Variables() {
		base, hasBase := t.Get(store.Key{Variable: v, Workers: 1})
		for _, w := range t.Workers(v) {
			sec := t[v][w]
			row := Row{Variable: v, Workers: w, Seconds: sec}
			if hasBase && base > 0 && sec > 0 {
				row.Speedup = base / sec
				if kind == campaign.Weak {
					row.Efficiency = row.Speedup
				} else {
					row.Efficiency = row.Speedup / float64(w)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Generate writes one markdown table per variable.
func Generate(w io.Writer, t store.Table, kind campaign.Kind) error {
	rows := Rows(t, kind)
	if len(rows) == 0 {
		return ErrNoResults
	}

	title, column := "Strong Scaling", "Particles"
	if kind == campaign.Weak {
		title, column = "Weak Scaling", "Particles/Thread"
	}

	fmt.Fprintf(w, "## %s Results\n", title)

	current := -1
	for _, r := range rows {
		if r.Variable != current {
			current = r.Variable
			fmt.Fprintln(w)
			fmt.Fprintf(w, "### %s = %d\n\n", column, r.Variable)
			fmt.Fprintln(w, "| Threads | Time | Speedup | Efficiency |")
			fmt.Fprintln(w, "|---------|------|---------|------------|")
		}
		fmt.Fprintf(w, "| %d | %s | %s | %s |\n",
			r.Workers,
			formatSeconds(r.Seconds),
			formatRatio(r.Speedup, "x"),
			formatRatio(r.Efficiency*100, "%"),
		)
	}

	return nil
}

// GenerateJSON writes the derived rows as JSON to w.
func GenerateJSON(w io.Writer, t store.Table, kind campaign.Kind) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	rows := Rows(t, kind)
	if rows == nil {
		rows = []Row{}
	}
	return enc.Encode(rows)
}

func formatSeconds(s float64) string {
	if s < 1 {
		return fmt.Sprintf("%.1fms", s*1000)
	}

	return fmt.Sprintf("%.3fs", s)
}

func formatRatio(v float64, unit string) string {
	if v == 0 {
		return "-"
	}
	if unit == "%" {
		return fmt.Sprintf("%.1f%%", v)
	}

	return fmt.Sprintf("%.2f%s", v, unit)
}

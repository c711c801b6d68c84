package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/scaling/internal/store"
	"github.com/san-kum/scaling/internal/trial"
)

type Driver struct {
	Runner   *trial.Runner
	Store    *store.Store
	Baseline trial.Program
	Parallel trial.Program
	// OutDir receives the per-trial output files the simulator writes.
	OutDir string
	Logger *slog.Logger
}

// Run measures every point of d and returns the table as last saved.
// The first failing point aborts the campaign; points recorded before it
// stay in the store.
func (d *Driver) Run(ctx context.Context, design Design) (store.Table, error) {
	log := d.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("campaign", string(design.Kind)))

	points := Plan(design)
	log.Info("starting campaign",
		slog.Int("points", len(points)),
		slog.String("results", d.Store.Path()),
	)

	table, err := d.Store.Load()
	if err != nil {
		return nil, err
	}

	if d.OutDir != "" {
		if err := os.MkdirAll(d.OutDir, 0755); err != nil {
			return table, fmt.Errorf("create output dir %s: %w", d.OutDir, err)
		}
	}

	start := time.Now()
	for i, pt := range points {
		prog := d.Parallel
		if pt.Baseline {
			prog = d.Baseline
		}

		params := trial.Params{
			Particles: pt.Particles,
			Seed:      design.Seed,
			Output:    d.outputPath(prog, pt),
			Workers:   pt.Workers,
		}

		avg, err := d.Runner.Repeat(ctx, prog, params, pt.Repeats)
		if err != nil {
			return table, fmt.Errorf("%s campaign: variable=%d workers=%d: %w",
				design.Kind, pt.Variable, pt.Workers, err)
		}

		table, err = d.Store.RecordPoint(store.Key{Variable: pt.Variable, Workers: pt.Workers}, avg)
		if err != nil {
			return table, fmt.Errorf("%s campaign: record point: %w", design.Kind, err)
		}

		log.Info("point recorded",
			slog.Int("point", i+1),
			slog.Int("of", len(points)),
			slog.String("program", prog.Name),
			slog.Int("variable", pt.Variable),
			slog.Int("workers", pt.Workers),
			slog.Int("particles", pt.Particles),
			slog.Int("repeats", pt.Repeats),
			slog.Float64("avg_seconds", avg),
		)
	}

	log.Info("campaign complete",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("entries", table.Len()),
	)
	return table, nil
}

// outputPath mirrors the out/serial-n1000.out, out/openmp-n1000-t8.out naming.
func (d *Driver) outputPath(prog trial.Program, pt Point) string {
	name := fmt.Sprintf("%s-n%d.out", prog.Name, pt.Particles)
	if !pt.Baseline {
		name = fmt.Sprintf("%s-n%d-t%d.out", prog.Name, pt.Particles, pt.Workers)
	}
	return filepath.Join(d.OutDir, name)
}

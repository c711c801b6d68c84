// Package trial runs the simulation executable and turns its output into
// timing samples.
package trial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/samber/lo"
	"github.com/san-kum/scaling/internal/metric"
)

var ErrNoRepeats = errors.New("trial: repeat count must be positive")

// Concurrency controls how many workers the executable uses.
type Concurrency interface {
	Env(workers int) []string
}

// EnvConcurrency passes the worker count through one environment variable,
// e.g. OMP_NUM_THREADS.
type EnvConcurrency struct {
	Var string
}

func (c EnvConcurrency) Env(workers int) []string {
	return []string{c.Var + "=" + strconv.Itoa(workers)}
}

// Program is an executable with a fixed argument prefix. A nil Concurrency
// marks a baseline program that takes no worker control: it adds no
// environment, so the baseline inherits the caller's, OMP_NUM_THREADS included.
type Program struct {
	Name        string
	Command     []string
	Concurrency Concurrency
}

// Params is the per-trial parameter set.
type Params struct {
	Particles int
	Seed      int64
	Output    string
	Workers   int
}

// Invocation builds the launch for p: prefix, then -n -s -o.
func (prog Program) Invocation(p Params) (Invocation, error) {
	if len(prog.Command) == 0 {
		return Invocation{}, fmt.Errorf("trial: program %q has no command", prog.Name)
	}

	args := make([]string, 0, len(prog.Command)-1+6)
	args = append(args, prog.Command[1:]...)
	args = append(args,
		"-n", strconv.Itoa(p.Particles),
		"-s", strconv.FormatInt(p.Seed, 10),
		"-o", p.Output,
	)

	var env []string
	if prog.Concurrency != nil {
		env = prog.Concurrency.Env(p.Workers)
	}

	return Invocation{Path: prog.Command[0], Args: args, Env: env}, nil
}

type Runner struct {
	exec   Executor
	logger *slog.Logger
}

func NewRunner(exec Executor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{exec: exec, logger: logger}
}

// Trial runs prog once and returns the reported seconds.
func (r *Runner) Trial(ctx context.Context, prog Program, p Params) (float64, error) {
	inv, err := prog.Invocation(p)
	if err != nil {
		return 0, err
	}

	out, err := r.exec.Run(ctx, inv)
	if err != nil {
		return 0, err
	}

	sec, err := metric.FromOutput(out)
	if err != nil {
		return 0, fmt.Errorf("trial: %s: %w", inv, err)
	}
	return sec, nil
}

// Repeat runs n trials back to back and returns their mean. The first
// failure aborts; no partial mean is produced.
func (r *Runner) Repeat(ctx context.Context, prog Program, p Params, n int) (float64, error) {
	if n <= 0 {
		return 0, ErrNoRepeats
	}

	log := r.logger.With(
		slog.String("program", prog.Name),
		slog.Int("particles", p.Particles),
		slog.Int("workers", p.Workers),
	)

	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		sec, err := r.Trial(ctx, prog, p)
		if err != nil {
			return 0, fmt.Errorf("run %d/%d: %w", i+1, n, err)
		}
		log.Debug("trial finished",
			slog.Int("run", i+1),
			slog.Int("of", n),
			slog.Float64("seconds", sec),
		)
		samples = append(samples, sec)
	}

	return Mean(samples), nil
}

func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return lo.Sum(samples) / float64(len(samples))
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/trial"
)

const (
	DefaultWorkerEnv = "OMP_NUM_THREADS"
	DefaultOutDir    = "out"
)

// DefaultWorkers is the candidate worker-count set and the chart's x ticks.
var DefaultWorkers = []int{1, 2, 4, 8, 16, 32, 64}

type Campaign struct {
	Kind           campaign.Kind `yaml:"kind"`
	Seed           int64         `yaml:"seed"`
	Variables      []int         `yaml:"variables"`
	Workers        []int         `yaml:"workers"`
	Repeats        int           `yaml:"repeats"`
	LargestRepeats int           `yaml:"largest_repeats"`
	Baseline       ProgramConfig `yaml:"baseline"`
	Parallel       ProgramConfig `yaml:"parallel"`
	Results        string        `yaml:"results"`
	Chart          string        `yaml:"chart"`
	OutDir         string        `yaml:"out_dir"`
}

type ProgramConfig struct {
	Name    string   `yaml:"name"`
	Command []string `yaml:"command"`
	// WorkerEnv names the variable carrying the worker count. Ignored for
	// the baseline program.
	WorkerEnv string `yaml:"worker_env"`
}

// DefaultStrong is the strong-scaling sweep: 1e3..1e6 particles, seed 99,
// three repeats, one for the million-particle baseline.
func DefaultStrong() *Campaign {
	return &Campaign{
		Kind:           campaign.Strong,
		Seed:           99,
		Variables:      []int{1000, 10000, 100000, 1000000},
		Workers:        append([]int(nil), DefaultWorkers...),
		Repeats:        3,
		LargestRepeats: 1,
		Baseline:       ProgramConfig{Name: "serial", Command: []string{"./serial"}},
		Parallel:       ProgramConfig{Name: "openmp", Command: []string{"./openmp"}, WorkerEnv: DefaultWorkerEnv},
		Results:        "strong_scaling_results.json",
		Chart:          "strong_scaling_plot.png",
		OutDir:         DefaultOutDir,
	}
}

// DefaultWeak is the weak-scaling sweep: 1000..10000 particles per worker,
// seed 100, two repeats.
func DefaultWeak() *Campaign {
	return &Campaign{
		Kind:      campaign.Weak,
		Seed:      100,
		Variables: []int{1000, 2000, 5000, 10000},
		Workers:   append([]int(nil), DefaultWorkers...),
		Repeats:   2,
		Baseline:  ProgramConfig{Name: "serial", Command: []string{"./serial"}},
		Parallel:  ProgramConfig{Name: "openmp", Command: []string{"./openmp"}, WorkerEnv: DefaultWorkerEnv},
		Results:   "weak_scaling_results.json",
		Chart:     "weak_scaling_plot.png",
		OutDir:    DefaultOutDir,
	}
}

func Default(kind campaign.Kind) *Campaign {
	if kind == campaign.Weak {
		return DefaultWeak()
	}
	return DefaultStrong()
}

// Load reads a yaml file over the defaults for its kind. The kind comes from
// the file, falling back to fallback when the file does not set one.
func Load(path string, fallback campaign.Kind) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var head struct {
		Kind campaign.Kind `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	kind := fallback
	if head.Kind != "" {
		if kind, err = campaign.ParseKind(string(head.Kind)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg := Default(kind)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Kind = kind
	return cfg, nil
}

// Merge reads a yaml file over cfg, so fields the file omits keep their
// current values. A kind in the file must match cfg.Kind.
func Merge(path string, cfg *Campaign) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	kind := cfg.Kind
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Kind != kind {
		return fmt.Errorf("parse %s: kind %q does not match %q", path, cfg.Kind, kind)
	}
	return nil
}

func Save(path string, cfg *Campaign) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Campaign) Design() campaign.Design {
	return campaign.Design{
		Kind:           c.Kind,
		Variables:      c.Variables,
		Workers:        c.Workers,
		Seed:           c.Seed,
		Repeats:        c.Repeats,
		LargestRepeats: c.LargestRepeats,
	}
}

func (c *Campaign) BaselineProgram() trial.Program {
	return trial.Program{Name: c.Baseline.Name, Command: c.Baseline.Command}
}

func (c *Campaign) ParallelProgram() trial.Program {
	env := c.Parallel.WorkerEnv
	if env == "" {
		env = DefaultWorkerEnv
	}
	return trial.Program{
		Name:        c.Parallel.Name,
		Command:     c.Parallel.Command,
		Concurrency: trial.EnvConcurrency{Var: env},
	}
}

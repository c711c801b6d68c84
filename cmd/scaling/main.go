package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/config"
	"github.com/san-kum/scaling/internal/viz"
)

var (
	verbose    bool
	configFile string
	preset     string
	themeName  string

	// Overrides for the campaign config.
	resultsFile string
	chartFile   string
	outDir      string
	seed        int64
	repeats     int
	workers     []int
	variables   []int

	dpi        int
	jsonOutput bool
	interval   time.Duration

	initFile string
	force    bool
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(logger, level)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	root := &cobra.Command{
		Use:   "scaling",
		Short: "strong and weak scaling campaigns for parallel simulators",
		Long: `scaling times a serial and a parallel build of a simulator across
particle counts and worker counts, records mean wall times in a JSON results
file and renders log-log scaling charts from it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				level.Set(slog.LevelDebug)
			}
			if !slices.Contains(viz.ThemeNames(), themeName) {
				return fmt.Errorf("unknown theme: %s (available: %v)", themeName, viz.ThemeNames())
			}
			return nil
		},
	}

	// Every flag below binds a package variable and resets it to its
	// default here, so each root command starts from a clean slate.
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every trial")
	root.PersistentFlags().StringVar(&configFile, "config", "", "campaign config file (yaml)")
	root.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")
	root.PersistentFlags().StringVar(&themeName, "theme", viz.ThemeDefault.Name, "terminal color theme")

	runCmd := &cobra.Command{
		Use:       "run [strong|weak]",
		Short:     "run a scaling campaign",
		Args:      kindArg,
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCampaign(cmd, args, logger)
		},
	}
	runCmd.Flags().StringVar(&resultsFile, "results", "", "results file")
	runCmd.Flags().StringVar(&outDir, "out-dir", "", "directory for simulator output files")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "simulator seed")
	runCmd.Flags().IntVar(&repeats, "repeats", 0, "trials per point")
	runCmd.Flags().IntSliceVar(&workers, "workers", nil, "worker counts")
	runCmd.Flags().IntSliceVar(&variables, "variables", nil, "particle counts (strong) or particles per worker (weak)")

	plotCmd := &cobra.Command{
		Use:       "plot [strong|weak]",
		Short:     "render the scaling chart as PNG",
		Args:      kindArg,
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotResults(cmd, args, logger)
		},
	}
	plotCmd.Flags().StringVar(&resultsFile, "results", "", "results file")
	plotCmd.Flags().StringVar(&chartFile, "out", "", "chart file")
	plotCmd.Flags().IntVar(&dpi, "dpi", 300, "chart resolution")

	showCmd := &cobra.Command{
		Use:       "show [strong|weak]",
		Short:     "print results as a table with a terminal chart",
		Args:      kindArg,
		ValidArgs: kinds,
		RunE:      showResults,
	}
	showCmd.Flags().StringVar(&resultsFile, "results", "", "results file")

	reportCmd := &cobra.Command{
		Use:       "report [strong|weak]",
		Short:     "speedup and efficiency tables",
		Args:      kindArg,
		ValidArgs: kinds,
		RunE:      reportResults,
	}
	reportCmd.Flags().StringVar(&resultsFile, "results", "", "results file")
	reportCmd.Flags().BoolVar(&jsonOutput, "json", false, "output JSON instead of markdown")

	watchCmd := &cobra.Command{
		Use:       "watch [strong|weak]",
		Short:     "follow a running campaign",
		Args:      kindArg,
		ValidArgs: kinds,
		RunE:      watchResults,
	}
	watchCmd.Flags().StringVar(&resultsFile, "results", "", "results file")
	watchCmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "reload interval")

	presetsCmd := &cobra.Command{
		Use:   "presets [strong|weak]",
		Short: "list available campaign presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := []campaign.Kind{campaign.Strong, campaign.Weak}
			if len(args) == 1 {
				kind, err := campaign.ParseKind(args[0])
				if err != nil {
					return err
				}
				list = []campaign.Kind{kind}
			}
			out := cmd.OutOrStdout()
			for _, kind := range list {
				fmt.Fprintf(out, "presets for %s:\n", kind)
				for _, p := range config.ListPresets(kind) {
					fmt.Fprintf(out, "  %s\n", p)
				}
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:       "init [strong|weak]",
		Short:     "write the resolved campaign config to a yaml file",
		Args:      kindArg,
		ValidArgs: kinds,
		RunE:      initConfig,
	}
	initCmd.Flags().StringVarP(&initFile, "file", "f", "", "config file to write (default <kind>_scaling.yaml)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&resultsFile, "results", "", "results file")
	initCmd.Flags().StringVar(&chartFile, "out", "", "chart file")
	initCmd.Flags().StringVar(&outDir, "out-dir", "", "directory for simulator output files")
	initCmd.Flags().Int64Var(&seed, "seed", 0, "simulator seed")
	initCmd.Flags().IntVar(&repeats, "repeats", 0, "trials per point")
	initCmd.Flags().IntSliceVar(&workers, "workers", nil, "worker counts")
	initCmd.Flags().IntSliceVar(&variables, "variables", nil, "particle counts (strong) or particles per worker (weak)")

	root.AddCommand(runCmd, plotCmd, showCmd, reportCmd, watchCmd, presetsCmd, initCmd)
	return root
}

var kinds = []string{string(campaign.Strong), string(campaign.Weak)}

func kindArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	_, err := campaign.ParseKind(args[0])
	return err
}

func theme() viz.Theme { return viz.GetTheme(themeName) }

// loadCampaign resolves the campaign for kind: defaults, then the preset,
// then the config file, then any flags set on the command line.
func loadCampaign(cmd *cobra.Command, arg string) (*config.Campaign, error) {
	kind, err := campaign.ParseKind(arg)
	if err != nil {
		return nil, err
	}

	var cfg *config.Campaign
	switch {
	case preset != "":
		cfg = config.GetPreset(kind, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(kind))
		}
		if configFile != "" {
			if err := config.Merge(configFile, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	case configFile != "":
		if cfg, err = config.Load(configFile, kind); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Kind != kind {
			return nil, fmt.Errorf("config %s is a %s campaign, not %s", configFile, cfg.Kind, kind)
		}
	default:
		cfg = config.Default(kind)
	}

	flags := cmd.Flags()
	if flags.Changed("results") {
		cfg.Results = resultsFile
	}
	if flags.Changed("out") {
		cfg.Chart = chartFile
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = outDir
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("repeats") {
		cfg.Repeats = repeats
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("variables") {
		cfg.Variables = variables
	}
	return cfg, nil
}

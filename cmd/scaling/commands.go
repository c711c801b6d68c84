package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/chart"
	"github.com/san-kum/scaling/internal/config"
	"github.com/san-kum/scaling/internal/report"
	"github.com/san-kum/scaling/internal/store"
	"github.com/san-kum/scaling/internal/trial"
	"github.com/san-kum/scaling/internal/viz"
)

func runCampaign(cmd *cobra.Command, args []string, logger *slog.Logger) error {
	cfg, err := loadCampaign(cmd, args[0])
	if err != nil {
		return err
	}
	if len(cfg.Baseline.Command) == 0 || len(cfg.Parallel.Command) == 0 {
		return errors.New("baseline and parallel commands must be set")
	}
	if cfg.Repeats < 1 {
		return fmt.Errorf("repeats must be at least 1, got %d", cfg.Repeats)
	}

	driver := &campaign.Driver{
		Runner:   trial.NewRunner(trial.ExecExecutor{}, logger),
		Store:    store.New(cfg.Results),
		Baseline: cfg.BaselineProgram(),
		Parallel: cfg.ParallelProgram(),
		OutDir:   cfg.OutDir,
		Logger:   logger,
	}

	table, err := driver.Run(cmd.Context(), cfg.Design())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), viz.Table(table, cfg.Kind, theme()))
	return nil
}

func loadResults(cmd *cobra.Command, args []string) (*config.Campaign, store.Table, error) {
	cfg, err := loadCampaign(cmd, args[0])
	if err != nil {
		return nil, nil, err
	}
	table, err := store.New(cfg.Results).Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, table, nil
}

func plotResults(cmd *cobra.Command, args []string, logger *slog.Logger) error {
	cfg, table, err := loadResults(cmd, args)
	if err != nil {
		return err
	}

	opts := chart.OptionsFor(cfg.Kind)
	opts.DPI = dpi
	if err := chart.Render(table, cfg.Chart, opts); err != nil {
		return err
	}

	logger.Info("chart written",
		slog.String("results", cfg.Results),
		slog.String("chart", cfg.Chart),
		slog.Int("points", table.Len()),
	)
	return nil
}

func showResults(cmd *cobra.Command, args []string) error {
	cfg, table, err := loadResults(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, viz.Table(table, cfg.Kind, theme()))
	if preview := viz.Preview(table, cfg.Kind, theme()); preview != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, preview)
	}
	return nil
}

func reportResults(cmd *cobra.Command, args []string) error {
	cfg, table, err := loadResults(cmd, args)
	if err != nil {
		return err
	}

	if jsonOutput {
		return report.GenerateJSON(cmd.OutOrStdout(), table, cfg.Kind)
	}
	return report.Generate(cmd.OutOrStdout(), table, cfg.Kind)
}

func watchResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadCampaign(cmd, args[0])
	if err != nil {
		return err
	}

	total := len(campaign.Plan(cfg.Design()))
	m := viz.NewWatch(store.New(cfg.Results), cfg.Kind, interval, total, theme())
	_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadCampaign(cmd, args[0])
	if err != nil {
		return err
	}

	path := initFile
	if path == "" {
		path = string(cfg.Kind) + "_scaling.yaml"
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s campaign to %s\n", cfg.Kind, path)
	return nil
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/scaling/internal/particles"
	"github.com/san-kum/scaling/internal/viz"
)

var (
	numParticles int
	seed         int64
	outputFile   string
	steps        int
	parallel     bool
	threadsEnv   string
	preview      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "particlesim",
		Short: "2D short-range particle simulation",
		Long: `particlesim runs the reference particle workload and reports its wall
time as "Simulation Time = <seconds> seconds for <n> particles." on stdout.
With --parallel the worker count comes from the environment, so one binary
serves as both the serial baseline and the parallel build.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         simulate,
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&numParticles, "n", "n", 1000, "number of particles")
	flags.Int64VarP(&seed, "s", "s", 0, "random seed")
	flags.StringVarP(&outputFile, "o", "o", "", "write final positions to this file")
	flags.IntVar(&steps, "steps", particles.DefaultSteps, "simulation steps")
	flags.BoolVar(&parallel, "parallel", false, "use the worker count from --threads-env")
	flags.StringVar(&threadsEnv, "threads-env", "OMP_NUM_THREADS", "variable holding the worker count")
	flags.BoolVar(&preview, "preview", false, "draw final positions on stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func simulate(cmd *cobra.Command, args []string) error {
	workers := 1
	if parallel {
		workers = particles.WorkersFromEnv(threadsEnv)
	}

	sim, err := particles.New(numParticles, seed, workers)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := sim.Run(cmd.Context(), steps); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(cmd.OutOrStdout(), "Simulation Time = %g seconds for %d particles.\n", elapsed.Seconds(), numParticles)

	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		if _, err := sim.WriteTo(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if preview {
		canvas := viz.NewCanvas(60, 20)
		for _, p := range sim.Particles {
			canvas.Plot(p.X, p.Y, sim.Size)
		}
		fmt.Fprint(cmd.ErrOrStderr(), canvas.String())
	}
	return nil
}

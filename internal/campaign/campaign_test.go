package campaign_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/metric"
	"github.com/san-kum/scaling/internal/store"
	"github.com/san-kum/scaling/internal/trial"
)

// recordingExecutor answers every launch with a fixed output and remembers
// what it was asked to run.
type recordingExecutor struct {
	output string
	failAt int
	calls  []trial.Invocation
}

func (r *recordingExecutor) Run(_ context.Context, inv trial.Invocation) (string, error) {
	r.calls = append(r.calls, inv)
	if r.failAt == len(r.calls) {
		return "", &trial.InvocationError{Command: inv.String(), Wrapped: errors.New("exit status 1")}
	}
	return r.output, nil
}

func argValue(inv trial.Invocation, flag string) string {
	for i := 0; i+1 < len(inv.Args); i++ {
		if inv.Args[i] == flag {
			return inv.Args[i+1]
		}
	}
	return ""
}

var (
	serial = trial.Program{Name: "serial", Command: []string{"./serial"}}
	openmp = trial.Program{
		Name:        "openmp",
		Command:     []string{"./openmp"},
		Concurrency: trial.EnvConcurrency{Var: "OMP_NUM_THREADS"},
	}
)

var _ = Describe("Plan", func() {
	It("runs the baseline phase before the parallel phase", func() {
		points := campaign.Plan(campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{10000, 1000},
			Workers:   []int{1, 2, 4},
			Repeats:   3,
		})

		Expect(points).To(HaveLen(6))
		Expect(points[0]).To(Equal(campaign.Point{Variable: 1000, Workers: 1, Particles: 1000, Repeats: 3, Baseline: true}))
		Expect(points[1]).To(Equal(campaign.Point{Variable: 10000, Workers: 1, Particles: 10000, Repeats: 3, Baseline: true}))
		Expect(points[2]).To(Equal(campaign.Point{Variable: 1000, Workers: 2, Particles: 1000, Repeats: 3}))
		Expect(points[5]).To(Equal(campaign.Point{Variable: 10000, Workers: 4, Particles: 10000, Repeats: 3}))
	})

	It("reduces repeats only for the largest baseline", func() {
		points := campaign.Plan(campaign.Design{
			Kind:           campaign.Strong,
			Variables:      []int{1000, 10000, 100000, 1000000},
			Workers:        []int{1, 2},
			Repeats:        3,
			LargestRepeats: 1,
		})

		for _, p := range points {
			if p.Baseline && p.Variable == 1000000 {
				Expect(p.Repeats).To(Equal(1))
			} else {
				Expect(p.Repeats).To(Equal(3), "point %+v", p)
			}
		}
	})

	It("scales total particles with workers for weak scaling", func() {
		points := campaign.Plan(campaign.Design{
			Kind:      campaign.Weak,
			Variables: []int{1000},
			Workers:   []int{1, 8},
			Repeats:   2,
		})

		Expect(points).To(HaveLen(2))
		Expect(points[0].Particles).To(Equal(1000))
		Expect(points[1].Workers).To(Equal(8))
		Expect(points[1].Particles).To(Equal(8000))
	})

	It("still runs a baseline when 1 is not a candidate worker count", func() {
		points := campaign.Plan(campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{500},
			Workers:   []int{4},
			Repeats:   1,
		})
		Expect(points).To(HaveLen(2))
		Expect(points[0].Baseline).To(BeTrue())
	})
})

var _ = Describe("Kind", func() {
	It("parses known kinds", func() {
		k, err := campaign.ParseKind("weak")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(campaign.Weak))

		_, err = campaign.ParseKind("medium")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Driver", func() {
	var (
		dir     string
		results *store.Store
		exec    *recordingExecutor
		driver  *campaign.Driver
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		results = store.New(filepath.Join(dir, "results.json"))
		exec = &recordingExecutor{output: "Simulation Time = 1.0 seconds for some particles.\n"}
		driver = &campaign.Driver{
			Runner:   trial.NewRunner(exec, nil),
			Store:    results,
			Baseline: serial,
			Parallel: openmp,
			OutDir:   filepath.Join(dir, "out"),
		}
	})

	It("records every strong-scaling combination", func() {
		table, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000, 10000},
			Workers:   []int{1, 2, 4},
			Seed:      99,
			Repeats:   2,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(table.Len()).To(Equal(6))
		for _, n := range []int{1000, 10000} {
			for _, w := range []int{1, 2, 4} {
				v, ok := table.Get(store.Key{Variable: n, Workers: w})
				Expect(ok).To(BeTrue(), "missing (%d, %d)", n, w)
				Expect(v).To(Equal(1.0))
			}
		}

		onDisk, err := results.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(onDisk).To(Equal(table))

		Expect(exec.calls).To(HaveLen(12))
		Expect(dir + "/out").To(BeADirectory())
	})

	It("uses the baseline program for one worker and the parallel program otherwise", func() {
		_, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000},
			Workers:   []int{1, 8},
			Seed:      99,
			Repeats:   1,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(exec.calls).To(HaveLen(2))

		base, par := exec.calls[0], exec.calls[1]
		Expect(base.Path).To(Equal("./serial"))
		Expect(base.Env).To(BeEmpty())
		Expect(argValue(base, "-o")).To(Equal(filepath.Join(dir, "out", "serial-n1000.out")))

		Expect(par.Path).To(Equal("./openmp"))
		Expect(par.Env).To(ConsistOf("OMP_NUM_THREADS=8"))
		Expect(argValue(par, "-s")).To(Equal("99"))
		Expect(argValue(par, "-o")).To(Equal(filepath.Join(dir, "out", "openmp-n1000-t8.out")))
	})

	It("requests r*t particles in a weak-scaling campaign", func() {
		table, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Weak,
			Variables: []int{1000},
			Workers:   []int{1, 8},
			Seed:      100,
			Repeats:   1,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(argValue(exec.calls[0], "-n")).To(Equal("1000"))
		Expect(argValue(exec.calls[1], "-n")).To(Equal("8000"))

		_, ok := table.Get(store.Key{Variable: 1000, Workers: 8})
		Expect(ok).To(BeTrue())
	})

	It("keeps points recorded before a failure and drops the failing point", func() {
		exec.failAt = 4
		_, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000, 10000},
			Workers:   []int{1, 2},
			Repeats:   2,
		})

		var ie *trial.InvocationError
		Expect(errors.As(err, &ie)).To(BeTrue())

		onDisk, loadErr := results.Load()
		Expect(loadErr).NotTo(HaveOccurred())
		Expect(onDisk.Len()).To(Equal(1))
		_, ok := onDisk.Get(store.Key{Variable: 1000, Workers: 1})
		Expect(ok).To(BeTrue())
	})

	It("aborts on unparsable output without recording anything", func() {
		exec.output = "finished\n"
		_, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000},
			Workers:   []int{1},
			Repeats:   1,
		})
		Expect(err).To(MatchError(metric.ErrNoDelimiter))

		_, statErr := os.Stat(results.Path())
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("merges into results from an interrupted run and overwrites re-measured points", func() {
		_, err := results.RecordPoint(store.Key{Variable: 1000, Workers: 1}, 7.5)
		Expect(err).NotTo(HaveOccurred())
		_, err = results.RecordPoint(store.Key{Variable: 42, Workers: 64}, 3.0)
		Expect(err).NotTo(HaveOccurred())

		table, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000},
			Workers:   []int{1, 2},
			Repeats:   1,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(table).To(Equal(store.Table{
			42:   {64: 3.0},
			1000: {1: 1.0, 2: 1.0},
		}))
	})

	It("refuses to start on a malformed results file", func() {
		Expect(os.WriteFile(results.Path(), []byte("{not json"), 0644)).To(Succeed())

		_, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000},
			Workers:   []int{1},
			Repeats:   1,
		})
		var re *store.ReadError
		Expect(errors.As(err, &re)).To(BeTrue())
		Expect(exec.calls).To(BeEmpty())
	})
})

var _ = Describe("Driver with a real executable", func() {
	It("runs a stub simulator end to end", func() {
		dir := GinkgoT().TempDir()
		stub := filepath.Join(dir, "sim.sh")
		script := "#!/bin/sh\n" +
			"echo \"$OMP_NUM_THREADS $*\" >> " + filepath.Join(dir, "calls.log") + "\n" +
			"echo 'time = 1.0 seconds'\n"
		Expect(os.WriteFile(stub, []byte(script), 0755)).To(Succeed())

		results := store.New(filepath.Join(dir, "strong_scaling_results.json"))
		driver := &campaign.Driver{
			Runner:   trial.NewRunner(trial.ExecExecutor{}, nil),
			Store:    results,
			Baseline: trial.Program{Name: "serial", Command: []string{stub}},
			Parallel: trial.Program{
				Name:        "openmp",
				Command:     []string{stub},
				Concurrency: trial.EnvConcurrency{Var: "OMP_NUM_THREADS"},
			},
			OutDir: filepath.Join(dir, "out"),
		}

		_, err := driver.Run(context.Background(), campaign.Design{
			Kind:      campaign.Strong,
			Variables: []int{1000, 10000},
			Workers:   []int{1, 2, 4},
			Seed:      99,
			Repeats:   1,
		})
		Expect(err).NotTo(HaveOccurred())

		table, err := results.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(table).To(Equal(store.Table{
			1000:  {1: 1.0, 2: 1.0, 4: 1.0},
			10000: {1: 1.0, 2: 1.0, 4: 1.0},
		}))

		log, err := os.ReadFile(filepath.Join(dir, "calls.log"))
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(string(log)), "\n")
		Expect(lines).To(HaveLen(6))
		Expect(lines[2]).To(HavePrefix("2 -n 1000 -s 99"))
	})
})

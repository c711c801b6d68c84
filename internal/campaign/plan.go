// Package campaign enumerates and runs strong- and weak-scaling experiments.
//
// A campaign has two phases. The baseline phase measures every independent
// variable with the single-worker baseline program. The parallel phase
// measures every variable at every other worker count with the parallel
// program. Points run one at a time, in plan order, and each averaged point
// is written to the store before the next one starts.
package campaign

import (
	"fmt"
	"slices"
)

type Kind string

const (
	Strong Kind = "strong"
	Weak   Kind = "weak"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Strong, Weak:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown campaign kind: %s (available: strong, weak)", s)
	}
}

// Particles returns the total particle count issued for (variable, workers).
// Strong scaling fixes the total; weak scaling fixes the per-worker share.
func (k Kind) Particles(variable, workers int) int {
	if k == Weak {
		return variable * workers
	}
	return variable
}

// Design is the experiment matrix and repeat policy.
type Design struct {
	Kind      Kind
	Variables []int // particle counts (strong) or particles per worker (weak)
	Workers   []int
	Seed      int64
	Repeats   int
	// LargestRepeats overrides Repeats for the baseline run of the largest
	// variable. Zero keeps Repeats.
	LargestRepeats int
}

// Point is one configuration to measure.
type Point struct {
	Variable  int
	Workers   int
	Particles int
	Repeats   int
	Baseline  bool
}

// Plan lists every point of d in execution order.
func Plan(d Design) []Point {
	vars := slices.Clone(d.Variables)
	slices.Sort(vars)
	workers := slices.Clone(d.Workers)
	slices.Sort(workers)

	largest := 0
	if len(vars) > 0 {
		largest = vars[len(vars)-1]
	}

	points := make([]Point, 0, len(vars)*(len(workers)+1))
	for _, v := range vars {
		repeats := d.Repeats
		if v == largest && d.LargestRepeats > 0 {
			repeats = d.LargestRepeats
		}
		points = append(points, Point{
			Variable:  v,
			Workers:   1,
			Particles: d.Kind.Particles(v, 1),
			Repeats:   repeats,
			Baseline:  true,
		})
	}

	for _, v := range vars {
		for _, w := range workers {
			if w == 1 {
				continue
			}
			points = append(points, Point{
				Variable:  v,
				Workers:   w,
				Particles: d.Kind.Particles(v, w),
				Repeats:   d.Repeats,
			})
		}
	}

	return points
}

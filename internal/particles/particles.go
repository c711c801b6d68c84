// Package particles is a 2D short-range particle simulation used as the
// reference workload for scaling campaigns.
//
// Particles repel inside a cutoff radius and bounce off the walls of a
// square box whose area grows with the particle count, so the density stays
// fixed. Forces are found through a uniform grid of cells at least one cutoff
// wide; each particle only visits its own and the eight surrounding cells.
package particles

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
)

const (
	Density      = 0.0005
	Mass         = 0.01
	Cutoff       = 0.01
	MinR         = Cutoff / 100
	DT           = 0.0005
	DefaultSteps = 1000
)

var (
	ErrNoParticles = errors.New("particles: particle count must be positive")
	ErrCanceled    = errors.New("particles: simulation canceled")
)

type Particle struct {
	X, Y   float64
	VX, VY float64
	AX, AY float64
}

// Sim holds particle state and the cell grid. A Sim is not safe for
// concurrent use; Step fans out internally.
type Sim struct {
	Particles []Particle
	Size      float64

	workers  int
	cellSize float64
	nx       int
	// cellStart[c]..cellStart[c+1] indexes cellItems for cell c.
	cellStart []int
	cellItems []int
	cursor    []int
}

// New places n particles on a shuffled lattice with velocities drawn from
// [-1, 1). The same seed gives the same initial state for any worker count.
func New(n int, seed int64, workers int) (*Sim, error) {
	if n <= 0 {
		return nil, ErrNoParticles
	}
	size := math.Sqrt(Density * float64(n))

	s := &Sim{
		Particles: make([]Particle, n),
		Size:      size,
		workers:   max(workers, 1),
		cellSize:  Cutoff * 2.5,
	}
	s.nx = int(size/s.cellSize) + 1
	cells := s.nx * s.nx
	s.cellStart = make([]int, cells+1)
	s.cursor = make([]int, cells)
	s.cellItems = make([]int, n)

	rng := rand.New(rand.NewPCG(uint64(seed), 0x5ca1e))
	sx := int(math.Ceil(math.Sqrt(float64(n))))
	sy := (n + sx - 1) / sx
	for i, k := range rng.Perm(n) {
		s.Particles[i] = Particle{
			X:  float64(1+k%sx) * size / float64(1+sx),
			Y:  float64(1+k/sx) * size / float64(1+sy),
			VX: rng.Float64()*2 - 1,
			VY: rng.Float64()*2 - 1,
		}
	}
	return s, nil
}

func (s *Sim) Workers() int { return s.workers }

func (s *Sim) cellCoord(v float64) int {
	return max(0, min(int(v/s.cellSize), s.nx-1))
}

// bin sorts particle indices by cell with a counting sort.
func (s *Sim) bin() {
	clear(s.cellStart)
	for i := range s.Particles {
		p := &s.Particles[i]
		c := s.cellCoord(p.Y)*s.nx + s.cellCoord(p.X)
		s.cellStart[c+1]++
	}
	for c := 1; c < len(s.cellStart); c++ {
		s.cellStart[c] += s.cellStart[c-1]
	}
	copy(s.cursor, s.cellStart[:len(s.cursor)])
	for i := range s.Particles {
		p := &s.Particles[i]
		c := s.cellCoord(p.Y)*s.nx + s.cellCoord(p.X)
		s.cellItems[s.cursor[c]] = i
		s.cursor[c]++
	}
}

// accelerate sums the forces on particles [start, end). Each particle only
// writes its own acceleration, so disjoint ranges run in parallel.
func (s *Sim) accelerate(start, end int) {
	for i := start; i < end; i++ {
		p := &s.Particles[i]
		p.AX, p.AY = 0, 0
		cx, cy := s.cellCoord(p.X), s.cellCoord(p.Y)

		for y := max(cy-1, 0); y <= min(cy+1, s.nx-1); y++ {
			for x := max(cx-1, 0); x <= min(cx+1, s.nx-1); x++ {
				c := y*s.nx + x
				for _, j := range s.cellItems[s.cellStart[c]:s.cellStart[c+1]] {
					if j != i {
						applyForce(p, &s.Particles[j])
					}
				}
			}
		}
	}
}

func applyForce(p, q *Particle) {
	dx := q.X - p.X
	dy := q.Y - p.Y
	r2 := dx*dx + dy*dy
	if r2 > Cutoff*Cutoff {
		return
	}

	r2 = math.Max(r2, MinR*MinR)
	r := math.Sqrt(r2)
	coef := (1 - Cutoff/r) / r2 / Mass
	p.AX += coef * dx
	p.AY += coef * dy
}

func (s *Sim) move(start, end int) {
	for i := start; i < end; i++ {
		p := &s.Particles[i]
		p.VX += p.AX * DT
		p.VY += p.AY * DT
		p.X += p.VX * DT
		p.Y += p.VY * DT

		for p.X < 0 || p.X > s.Size {
			if p.X < 0 {
				p.X = -p.X
			} else {
				p.X = 2*s.Size - p.X
			}
			p.VX = -p.VX
		}
		for p.Y < 0 || p.Y > s.Size {
			if p.Y < 0 {
				p.Y = -p.Y
			} else {
				p.Y = 2*s.Size - p.Y
			}
			p.VY = -p.VY
		}
	}
}

func (s *Sim) Step() {
	s.bin()
	parallelFor(len(s.Particles), s.workers, minChunk, s.accelerate)
	parallelFor(len(s.Particles), s.workers, minChunk, s.move)
}

// Run advances the simulation by steps, checking ctx between steps.
func (s *Sim) Run(ctx context.Context, steps int) error {
	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w at step %d: %w", ErrCanceled, step, err)
		}
		s.Step()
	}
	return nil
}

// WriteTo writes "n size" followed by one "x y" line per particle.
func (s *Sim) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64

	n, err := fmt.Fprintf(bw, "%d %g\n", len(s.Particles), s.Size)
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, p := range s.Particles {
		n, err := fmt.Fprintf(bw, "%g %g\n", p.X, p.Y)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, bw.Flush()
}

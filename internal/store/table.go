package store

import (
	"slices"

	"github.com/samber/lo"
)

// Key identifies one measured configuration.
type Key struct {
	Variable int // total particles (strong) or particles per worker (weak)
	Workers  int
}

// Table maps variable -> workers -> average seconds.
// Map order is meaningless; use Variables and Workers for sorted access.
type Table map[int]map[int]float64

// Put returns a copy of t with key set to v. t itself is not modified.
func (t Table) Put(key Key, v float64) Table {
	out := t.Clone()
	inner, ok := out[key.Variable]
	if !ok {
		inner = make(map[int]float64)
		out[key.Variable] = inner
	}
	inner[key.Workers] = v
	return out
}

// Get returns the value stored for key.
func (t Table) Get(key Key) (float64, bool) {
	inner, ok := t[key.Variable]
	if !ok {
		return 0, false
	}
	v, ok := inner[key.Workers]
	return v, ok
}

// Len counts (variable, workers) entries.
func (t Table) Len() int {
	n := 0
	for _, inner := range t {
		n += len(inner)
	}
	return n
}

// Variables returns the independent-variable values in ascending order.
func (t Table) Variables() []int {
	vars := lo.Keys(t)
	slices.Sort(vars)
	return vars
}

// Workers returns the worker counts recorded for variable, ascending.
func (t Table) Workers(variable int) []int {
	workers := lo.Keys(t[variable])
	slices.Sort(workers)
	return workers
}

// AllWorkers returns every worker count present in any series, ascending.
func (t Table) AllWorkers() []int {
	var all []int
	for _, inner := range t {
		all = append(all, lo.Keys(inner)...)
	}
	all = lo.Uniq(all)
	slices.Sort(all)
	return all
}

func (t Table) Clone() Table {
	out := make(Table, len(t))
	for v, inner := range t {
		c := make(map[int]float64, len(inner))
		for w, val := range inner {
			c[w] = val
		}
		out[v] = c
	}
	return out
}

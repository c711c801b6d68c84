package config

import (
	"slices"

	"github.com/samber/lo"

	"github.com/san-kum/scaling/internal/campaign"
)

// reference points both phases at the bundled particlesim binary.
func reference(c *Campaign) *Campaign {
	c.Baseline = ProgramConfig{Name: "particlesim-serial", Command: []string{"particlesim"}}
	c.Parallel = ProgramConfig{
		Name:      "particlesim-parallel",
		Command:   []string{"particlesim", "--parallel"},
		WorkerEnv: DefaultWorkerEnv,
	}
	return c
}

func quick(c *Campaign) *Campaign {
	c.Workers = []int{1, 2, 4}
	c.Repeats = 1
	c.LargestRepeats = 0
	if c.Kind == campaign.Weak {
		c.Variables = []int{500, 1000}
	} else {
		c.Variables = []int{1000, 5000}
	}
	return reference(c)
}

var Presets = map[campaign.Kind]map[string]func() *Campaign{
	campaign.Strong: {
		"default":   DefaultStrong,
		"reference": func() *Campaign { return reference(DefaultStrong()) },
		"quick":     func() *Campaign { return quick(DefaultStrong()) },
	},
	campaign.Weak: {
		"default":   DefaultWeak,
		"reference": func() *Campaign { return reference(DefaultWeak()) },
		"quick":     func() *Campaign { return quick(DefaultWeak()) },
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(kind campaign.Kind, name string) *Campaign {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	fn, ok := kindPresets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets(kind campaign.Kind) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := lo.Keys(kindPresets)
	slices.Sort(names)
	return names
}

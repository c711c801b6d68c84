package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/san-kum/scaling/internal/campaign"
	"github.com/san-kum/scaling/internal/trial"
)

func TestDefaultStrong(t *testing.T) {
	cfg := DefaultStrong()

	if cfg.Kind != campaign.Strong {
		t.Errorf("expected kind strong, got %s", cfg.Kind)
	}
	if cfg.Seed != 99 {
		t.Errorf("expected seed 99, got %d", cfg.Seed)
	}
	if !reflect.DeepEqual(cfg.Variables, []int{1000, 10000, 100000, 1000000}) {
		t.Errorf("unexpected particle counts %v", cfg.Variables)
	}
	if cfg.Repeats != 3 || cfg.LargestRepeats != 1 {
		t.Errorf("expected repeats 3/1, got %d/%d", cfg.Repeats, cfg.LargestRepeats)
	}
	if cfg.Results != "strong_scaling_results.json" {
		t.Errorf("unexpected results file %s", cfg.Results)
	}
}

func TestDefaultWeak(t *testing.T) {
	cfg := DefaultWeak()

	if cfg.Kind != campaign.Weak {
		t.Errorf("expected kind weak, got %s", cfg.Kind)
	}
	if cfg.Seed != 100 || cfg.Repeats != 2 || cfg.LargestRepeats != 0 {
		t.Errorf("unexpected seed/repeats %d/%d/%d", cfg.Seed, cfg.Repeats, cfg.LargestRepeats)
	}
	if cfg.Chart != "weak_scaling_plot.png" {
		t.Errorf("unexpected chart file %s", cfg.Chart)
	}
}

func TestDefaultsDoNotShareWorkers(t *testing.T) {
	a := DefaultStrong()
	a.Workers[0] = 99
	if DefaultWorkers[0] != 1 || DefaultWeak().Workers[0] != 1 {
		t.Error("defaults share the worker slice")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	content := `kind: weak
variables: [250, 500]
repeats: 4
parallel:
  name: threads
  command: ["./sim", "--threads"]
  worker_env: SIM_WORKERS
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path, campaign.Strong)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Kind != campaign.Weak {
		t.Errorf("expected kind from file, got %s", cfg.Kind)
	}
	if !reflect.DeepEqual(cfg.Variables, []int{250, 500}) {
		t.Errorf("expected variables from file, got %v", cfg.Variables)
	}
	if cfg.Repeats != 4 {
		t.Errorf("expected repeats 4, got %d", cfg.Repeats)
	}
	if cfg.Seed != 100 {
		t.Errorf("expected weak default seed 100, got %d", cfg.Seed)
	}
	if cfg.Results != "weak_scaling_results.json" {
		t.Errorf("expected weak default results, got %s", cfg.Results)
	}

	prog := cfg.ParallelProgram()
	if prog.Concurrency != (trial.EnvConcurrency{Var: "SIM_WORKERS"}) {
		t.Errorf("unexpected concurrency %v", prog.Concurrency)
	}
	if !reflect.DeepEqual(prog.Command, []string{"./sim", "--threads"}) {
		t.Errorf("unexpected command %v", prog.Command)
	}
}

func TestLoadFallbackKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	if err := os.WriteFile(path, []byte("seed: 7\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path, campaign.Weak)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Kind != campaign.Weak || cfg.Seed != 7 {
		t.Errorf("expected weak with seed 7, got %s/%d", cfg.Kind, cfg.Seed)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.yaml"), campaign.Strong); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("kind: sideways\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(bad, campaign.Strong); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	want := GetPreset(campaign.Strong, "quick")

	if err := Save(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path, campaign.Weak)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestDesign(t *testing.T) {
	d := DefaultStrong().Design()
	if d.Kind != campaign.Strong || d.Seed != 99 || d.LargestRepeats != 1 {
		t.Errorf("unexpected design %+v", d)
	}
	if n := len(campaign.Plan(d)); n != 4*7 {
		t.Errorf("expected 28 points, got %d", n)
	}
}

func TestBaselineProgramHasNoConcurrency(t *testing.T) {
	if prog := DefaultWeak().BaselineProgram(); prog.Concurrency != nil {
		t.Errorf("expected nil concurrency, got %v", prog.Concurrency)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset(campaign.Weak, "quick")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Repeats != 1 || cfg.Baseline.Command[0] != "particlesim" {
		t.Errorf("unexpected quick preset %+v", cfg)
	}

	cfg.Repeats = 50
	if again := GetPreset(campaign.Weak, "quick"); again.Repeats != 1 {
		t.Error("preset mutation leaked into later lookups")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset(campaign.Strong, "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset(campaign.Kind("diagonal"), "quick"); cfg != nil {
		t.Error("expected nil for nonexistent kind")
	}
}

func TestListPresets(t *testing.T) {
	got := ListPresets(campaign.Strong)
	if !reflect.DeepEqual(got, []string{"default", "quick", "reference"}) {
		t.Errorf("unexpected presets %v", got)
	}
	if ListPresets(campaign.Kind("diagonal")) != nil {
		t.Error("expected nil for nonexistent kind")
	}
}

func TestMergeOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	if err := os.WriteFile(path, []byte("seed: 7\nrepeats: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset(campaign.Weak, "quick")
	if err := Merge(path, cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Seed != 7 || cfg.Repeats != 5 {
		t.Errorf("expected seed 7 repeats 5, got %d/%d", cfg.Seed, cfg.Repeats)
	}
	if !reflect.DeepEqual(cfg.Workers, []int{1, 2, 4}) {
		t.Errorf("expected preset workers to survive, got %v", cfg.Workers)
	}
}

func TestMergeKindMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	if err := os.WriteFile(path, []byte("kind: strong\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Merge(path, DefaultWeak()); err == nil {
		t.Error("expected error for mismatched kind")
	}
}

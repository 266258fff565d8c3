package config

import (
	"os"
	"path/filepath"
	"testing"

	"oncosim/internal/integrators"
	"oncosim/internal/transfer"
	"oncosim/internal/treatment"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Preset != "default" || cfg.Duration != DefaultDuration || cfg.Dt != integrators.DefaultStepSize {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	profile, err := cfg.GetProfile()
	if err != nil {
		t.Fatal(err)
	}
	if err := profile.Validate(); err != nil {
		t.Errorf("default profile invalid: %v", err)
	}

	kind, err := cfg.GetTreatment()
	if err != nil || kind != treatment.None {
		t.Errorf("default treatment wrong: %v %v", kind, err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	content := `
patient:
  age: 66
  smoker: true
  pack_years: 40
  diet: poor
  genetic_factor: 1.1
init_state:
  sensitive: 8.0
  resistant: 0.4
treatment:
  kind: chemotherapy
  start_day: 14
duration: 365
history:
  snapshot_interval: 15
  max_deltas: 20
case: heavy-smoker
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Duration != 365 || cfg.Treatment.StartDay != 14 {
		t.Errorf("scalar fields not loaded: %+v", cfg)
	}
	// unset dt keeps the default
	if cfg.Dt != integrators.DefaultStepSize {
		t.Errorf("dt default lost: %f", cfg.Dt)
	}

	profile, err := cfg.GetProfile()
	if err != nil {
		t.Fatal(err)
	}
	if profile.Age != 66 || !profile.Smoker || profile.PackYears != 40 {
		t.Errorf("explicit patient block not used: %+v", profile)
	}

	kind, err := cfg.GetTreatment()
	if err != nil || kind != treatment.Chemotherapy {
		t.Errorf("treatment parse wrong: %v %v", kind, err)
	}

	sc, err := cfg.SessionConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Mode != transfer.ModeLibrary || sc.CaseID != "heavy-smoker" {
		t.Errorf("library mode not derived from case: %+v", sc)
	}
	if sc.Sensitive != 8.0 || sc.SnapshotInterval != 15 || sc.MaxDeltas != 20 {
		t.Errorf("session seed wrong: %+v", sc)
	}
}

func TestGetProfileFallsBackToPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Preset = "smoker"

	profile, err := cfg.GetProfile()
	if err != nil {
		t.Fatal(err)
	}
	if !profile.Smoker {
		t.Errorf("preset not resolved: %+v", profile)
	}

	cfg.Preset = "no-such-preset"
	if _, err := cfg.GetProfile(); err == nil {
		t.Error("unknown preset accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Duration = 90
	cfg.Treatment.Kind = "radiotherapy"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Duration != 90 || loaded.Treatment.Kind != "radiotherapy" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
}

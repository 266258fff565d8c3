package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"oncosim/internal/integrators"
	"oncosim/internal/patient"
	"oncosim/internal/session"
	"oncosim/internal/transfer"
	"oncosim/internal/treatment"
)

const (
	DefaultDuration  = 180.0
	DefaultSensitive = 5.0
	DefaultResistant = 0.1
)

type Config struct {
	Preset    string          `yaml:"preset"` // named patient preset, overridden by Patient when set
	Patient   PatientConfig   `yaml:"patient"`
	InitState InitStateConfig `yaml:"init_state"`

	Treatment TreatmentConfig `yaml:"treatment"`
	Duration  float64         `yaml:"duration"` // days
	Dt        float64         `yaml:"dt"`       // integration step, days

	History HistoryConfig `yaml:"history"`
	Case    string        `yaml:"case"` // library case id; empty means free mode
}

type PatientConfig struct {
	Age           int     `yaml:"age"`
	Smoker        bool    `yaml:"smoker"`
	PackYears     float64 `yaml:"pack_years"`
	Diet          string  `yaml:"diet"`
	GeneticFactor float64 `yaml:"genetic_factor"`
}

type InitStateConfig struct {
	Sensitive float64 `yaml:"sensitive"`
	Resistant float64 `yaml:"resistant"`
}

type TreatmentConfig struct {
	Kind     string  `yaml:"kind"`
	StartDay float64 `yaml:"start_day"`
}

type HistoryConfig struct {
	SnapshotInterval float64 `yaml:"snapshot_interval"` // days
	MaxDeltas        int     `yaml:"max_deltas"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset: "default",
		InitState: InitStateConfig{
			Sensitive: DefaultSensitive,
			Resistant: DefaultResistant,
		},
		Treatment: TreatmentConfig{Kind: "none"},
		Duration:  DefaultDuration,
		Dt:        integrators.DefaultStepSize,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetProfile resolves the patient: an explicit patient block wins, otherwise
// the named preset.
func (c *Config) GetProfile() (patient.Profile, error) {
	if c.Patient.Age != 0 {
		return patient.Profile{
			Age:           c.Patient.Age,
			Smoker:        c.Patient.Smoker,
			PackYears:     c.Patient.PackYears,
			Diet:          patient.Diet(c.Patient.Diet),
			GeneticFactor: c.Patient.GeneticFactor,
		}, nil
	}
	p, ok := patient.GetPreset(c.Preset)
	if !ok {
		return patient.Profile{}, fmt.Errorf("config: unknown preset %q", c.Preset)
	}
	return p, nil
}

// GetTreatment parses the configured treatment kind.
func (c *Config) GetTreatment() (treatment.Kind, error) {
	if c.Treatment.Kind == "" {
		return treatment.None, nil
	}
	return treatment.Parse(c.Treatment.Kind)
}

// SessionConfig assembles the session seed from the resolved profile.
func (c *Config) SessionConfig() (session.Config, error) {
	profile, err := c.GetProfile()
	if err != nil {
		return session.Config{}, err
	}

	mode := transfer.ModeFree
	if c.Case != "" {
		mode = transfer.ModeLibrary
	}
	return session.Config{
		Profile:          profile,
		Sensitive:        c.InitState.Sensitive,
		Resistant:        c.InitState.Resistant,
		StepSize:         c.Dt,
		SnapshotInterval: c.History.SnapshotInterval,
		MaxDeltas:        c.History.MaxDeltas,
		Mode:             mode,
		CaseID:           c.Case,
	}, nil
}

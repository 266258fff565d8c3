// Package cases is the built-in clinical case library for guided sessions,
// plus a loader for user-supplied case files.
package cases

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"oncosim/internal/patient"
)

// ErrUnknownCase reports a lookup miss against the catalog.
var ErrUnknownCase = errors.New("cases: unknown case")

// Case is one guided scenario: a patient, a starting tumor, and what the
// learner is meant to take away from it.
type Case struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	Age           int          `yaml:"age"`
	Smoker        bool         `yaml:"smoker"`
	PackYears     float64      `yaml:"pack_years"`
	Diet          patient.Diet `yaml:"diet"`
	GeneticFactor float64      `yaml:"genetic_factor"`

	SensitiveVolume float64 `yaml:"sensitive_volume"`
	ResistantVolume float64 `yaml:"resistant_volume"`

	Objectives []string `yaml:"objectives"`
	Source     string   `yaml:"source"`
}

// Profile maps the case demographics onto an engine-tier profile.
func (c Case) Profile() patient.Profile {
	return patient.Profile{
		Age:           c.Age,
		Smoker:        c.Smoker,
		PackYears:     c.PackYears,
		Diet:          c.Diet,
		GeneticFactor: c.GeneticFactor,
	}
}

// Validate checks that the case seeds a runnable session.
func (c Case) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrUnknownCase)
	}
	if err := c.Profile().Validate(); err != nil {
		return fmt.Errorf("case %s: %w", c.ID, err)
	}
	if c.SensitiveVolume < 0 || c.ResistantVolume < 0 || c.SensitiveVolume+c.ResistantVolume <= 0 {
		return fmt.Errorf("case %s: initial volumes must be >= 0 with positive total", c.ID)
	}
	return nil
}

var builtin = map[string]Case{
	"early-detection": {
		ID:          "early-detection",
		Title:       "Early Detection, Screening Find",
		Description: "Small stage IA lesion found on a routine low-dose CT. The tumor is almost entirely treatment-sensitive.",
		Age:         58, Diet: patient.DietNormal, GeneticFactor: 1.0,
		SensitiveVolume: 1.8, ResistantVolume: 0.01,
		Objectives: []string{
			"Observe Gompertz deceleration as the tumor grows toward capacity.",
			"Compare chemotherapy and radiotherapy response at low volume.",
		},
		Source: "SEER stage IA incidence tables",
	},
	"heavy-smoker": {
		ID:          "heavy-smoker",
		Title:       "Heavy Smoker, Reduced Capacity",
		Description: "Forty pack-year history. Smoking damage lowers the effective carrying capacity, changing the growth plateau.",
		Age:         66, Smoker: true, PackYears: 40, Diet: patient.DietPoor, GeneticFactor: 1.1,
		SensitiveVolume: 8.0, ResistantVolume: 0.4,
		Objectives: []string{
			"See how a reduced capacity reshapes the untreated trajectory.",
			"Watch diet and age modifiers compound on the sensitive growth rate.",
		},
		Source: "SEER smoking-stratified cohorts",
	},
	"resistant-relapse": {
		ID:          "resistant-relapse",
		Title:       "Relapse with Resistant Clone",
		Description: "Post-treatment relapse where the resistant population is already a third of the tumor. Chemotherapy alone will select for it.",
		Age:         61, Diet: patient.DietNormal, GeneticFactor: 1.2,
		SensitiveVolume: 10.0, ResistantVolume: 5.0,
		Objectives: []string{
			"Track the resistance fraction under sustained chemotherapy.",
			"Branch the timeline to compare immunotherapy against chemotherapy.",
		},
		Source: "resistance-evolution literature synthesis",
	},
	"young-aggressive": {
		ID:          "young-aggressive",
		Title:       "Young Patient, Genetic Predisposition",
		Description: "A 34-year-old with a strong family history. The genetic factor accelerates both populations.",
		Age:         34, Diet: patient.DietHealthy, GeneticFactor: 1.8,
		SensitiveVolume: 4.0, ResistantVolume: 0.1,
		Objectives: []string{
			"Quantify how the genetic factor shortens the doubling time.",
			"Find the treatment that delays stage III longest.",
		},
		Source: "hereditary-risk registry summaries",
	},
	"elderly-watchful": {
		ID:          "elderly-watchful",
		Title:       "Elderly Patient, Watchful Waiting",
		Description: "Slow-growing lesion in an 84-year-old. Is intervention worth it against age-slowed kinetics?",
		Age:         84, Diet: patient.DietNormal, GeneticFactor: 0.8,
		SensitiveVolume: 6.0, ResistantVolume: 0.2,
		Objectives: []string{
			"Compare untreated drift against radiotherapy over two years.",
			"Use checkpoints to revisit the decision point after each arm.",
		},
		Source: "geriatric oncology observation cohorts",
	},
}

// Get looks a case up by ID.
func Get(id string) (Case, error) {
	c, ok := builtin[id]
	if !ok {
		return Case{}, fmt.Errorf("%w: %q", ErrUnknownCase, id)
	}
	return c, nil
}

// List returns every built-in case sorted by ID.
func List() []Case {
	out := make([]Case, 0, len(builtin))
	for _, c := range builtin {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load reads additional cases from a YAML file, validating each.
func Load(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cases: read %s: %w", path, err)
	}

	var loaded []Case
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("cases: parse %s: %w", path, err)
	}
	for _, c := range loaded {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return loaded, nil
}

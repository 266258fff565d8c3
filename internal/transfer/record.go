// Package transfer defines the flat state-transfer record the engine
// exchanges with the orchestration and presentation layers. The record is
// the engine's only boundary contract; hosts move it over whatever
// request/response surface they own.
package transfer

import (
	"errors"
	"fmt"

	"oncosim/internal/growth"
	"oncosim/internal/patient"
	"oncosim/internal/treatment"
)

// Mode tags how the session was started. Informational only: engine behavior
// is identical either way.
type Mode string

const (
	ModeFree    Mode = "free"
	ModeLibrary Mode = "library"
)

// ErrInvalidRecord is the sentinel wrapped by every record validation failure.
var ErrInvalidRecord = errors.New("transfer: invalid record")

// Record is the flat state snapshot exchanged at the boundary.
type Record struct {
	Age         int     `json:"age"`
	IsSmoker    bool    `json:"isSmoker"`
	PackYears   float64 `json:"packYears"`
	DietQuality string  `json:"dietQuality"`

	SensitiveTumorVolume float64 `json:"sensitiveTumorVolume"`
	ResistantTumorVolume float64 `json:"resistantTumorVolume"`

	ActiveTreatment string `json:"activeTreatment"`
	TreatmentDays   int    `json:"treatmentDays"`

	Mode   Mode   `json:"mode"`
	CaseID string `json:"caseId,omitempty"`

	// Derived, read-only fields filled by FromEngine.
	TotalVolume      float64 `json:"totalVolume"`
	ApproximateStage string  `json:"approximateStage"`
}

// Validate checks every transfer-tier constraint and reports the first
// violation; a record is rejected as a whole.
func (r Record) Validate() error {
	// The transfer tier is stricter than the profile tier (18-120); the
	// mismatch is inherited from the upstream contract and kept visible
	// here rather than silently reconciled.
	if r.Age < 18 || r.Age > 100 {
		return fmt.Errorf("%w: age %d outside [18, 100]", ErrInvalidRecord, r.Age)
	}
	if r.PackYears < 0 || r.PackYears > 150 {
		return fmt.Errorf("%w: pack-years %.1f outside [0, 150]", ErrInvalidRecord, r.PackYears)
	}
	if !r.IsSmoker && r.PackYears != 0 {
		return fmt.Errorf("%w: pack-years %.1f on a non-smoker", ErrInvalidRecord, r.PackYears)
	}
	switch patient.Diet(r.DietQuality) {
	case patient.DietHealthy, patient.DietNormal, patient.DietPoor:
	default:
		return fmt.Errorf("%w: unknown diet quality %q", ErrInvalidRecord, r.DietQuality)
	}
	if r.SensitiveTumorVolume < 0 || r.ResistantTumorVolume < 0 {
		return fmt.Errorf("%w: negative tumor volume", ErrInvalidRecord)
	}
	if _, err := treatment.Parse(r.ActiveTreatment); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if r.TreatmentDays < 0 {
		return fmt.Errorf("%w: negative treatment days", ErrInvalidRecord)
	}
	switch r.Mode {
	case ModeFree, ModeLibrary:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRecord, r.Mode)
	}
	if r.CaseID != "" && r.Mode != ModeLibrary {
		return fmt.Errorf("%w: caseId present outside library mode", ErrInvalidRecord)
	}
	return nil
}

// FromEngine produces a record for the live engine state, derived fields
// included.
func FromEngine(eng *growth.Engine, mode Mode, caseID string) Record {
	p := eng.Profile()
	return Record{
		Age:                  p.Age,
		IsSmoker:             p.Smoker,
		PackYears:            p.PackYears,
		DietQuality:          string(p.Diet),
		SensitiveTumorVolume: eng.SensitiveVolume(),
		ResistantTumorVolume: eng.ResistantVolume(),
		ActiveTreatment:      eng.Treatment().String(),
		TreatmentDays:        eng.TreatmentDays(),
		Mode:                 mode,
		CaseID:               caseID,
		TotalVolume:          eng.TotalVolume(),
		ApproximateStage:     eng.Stage().String(),
	}
}

// Profile maps the record's demographic fields to an engine-tier profile.
// The transfer contract carries no genetic factor; it defaults to 1.0.
func (r Record) Profile() patient.Profile {
	return patient.Profile{
		Age:           r.Age,
		Smoker:        r.IsSmoker,
		PackYears:     r.PackYears,
		Diet:          patient.Diet(r.DietQuality),
		GeneticFactor: 1.0,
	}
}

// BuildEngine validates the record and constructs a live engine seeded from
// it, with the treatment clock offset so the recorded treatment days are
// preserved.
func BuildEngine(r Record) (*growth.Engine, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	eng, err := growth.New(r.Profile())
	if err != nil {
		return nil, err
	}
	if err := eng.SetInitialConditions(r.SensitiveTumorVolume, r.ResistantTumorVolume); err != nil {
		return nil, err
	}

	kind, _ := treatment.Parse(r.ActiveTreatment)
	if kind != treatment.None {
		eng.Restore(r.SensitiveTumorVolume, r.ResistantTumorVolume, 0, kind, -float64(r.TreatmentDays))
	}
	return eng, nil
}

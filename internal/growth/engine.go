// Package growth implements the two-population Gompertz tumor model:
//
//	dNs/dt = rs·Ns·ln(K/N) − β(t−t₀)·Ns − μ·Ns
//	dNr/dt = rr·Nr·ln(K/N) + μ·Ns
//
// where Ns and Nr are the treatment-sensitive and treatment-resistant
// volumes, K the patient-adjusted carrying capacity, β the active treatment's
// suppression intensity measured from the treatment start t₀, and μ the
// spontaneous sensitive→resistant conversion rate.
package growth

import (
	"errors"
	"fmt"
	"math"

	"oncosim/internal/integrators"
	"oncosim/internal/patient"
	"oncosim/internal/sim"
	"oncosim/internal/treatment"
)

// Model calibration (SEER-derived educational defaults).
const (
	baseCapacity      = 100.0 // cm³
	baseSensitiveRate = 0.012 // per day
	baseResistantRate = 0.008 // per day
	mutationRate      = 1e-6  // per day, sensitive -> resistant
)

var (
	// ErrInitialVolume indicates non-positive or negative initial conditions.
	ErrInitialVolume = errors.New("growth: initial volumes must be >= 0 with positive total")
)

// Engine owns the live tumor state and advances it deterministically. It is
// not safe for concurrent use; one caller drives one engine.
type Engine struct {
	profile patient.Profile

	state sim.State // [sensitive, resistant]
	t     float64   // simulated days

	capacity float64
	rs, rr   float64

	active         treatment.Kind
	treatmentStart float64

	integ *integrators.RK4
}

// New builds an engine for a validated patient profile with the default
// integration step.
func New(profile patient.Profile) (*Engine, error) {
	return NewWithStep(profile, integrators.DefaultStepSize)
}

// NewWithStep builds an engine with an explicit integration step in days.
func NewWithStep(profile patient.Profile, step float64) (*Engine, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	integ, err := integrators.NewRK4(step)
	if err != nil {
		return nil, err
	}

	return &Engine{
		profile:  profile,
		state:    sim.State{0, 0},
		capacity: baseCapacity * profile.SmokingCapacityModifier(),
		rs:       baseSensitiveRate * profile.AgeGrowthModifier() * profile.DietModifier() * profile.GeneticFactor,
		// resistant-clone growth is modeled as age-independent
		rr:    baseResistantRate * profile.DietModifier() * profile.GeneticFactor,
		integ: integ,
	}, nil
}

// SetInitialConditions seeds the two populations. Both must be >= 0 and the
// total strictly positive.
func (e *Engine) SetInitialConditions(sensitive, resistant float64) error {
	if sensitive < 0 || resistant < 0 || sensitive+resistant <= 0 {
		return fmt.Errorf("%w: sensitive=%.3f resistant=%.3f", ErrInitialVolume, sensitive, resistant)
	}
	e.state = sim.State{sensitive, resistant}
	return nil
}

// SetTreatment switches the active treatment and resets the treatment clock
// to the current simulated time: intensity is always measured from when the
// treatment was applied, never from simulation start.
func (e *Engine) SetTreatment(k treatment.Kind) {
	e.active = k
	e.treatmentStart = e.t
}

// Derive implements sim.System.
//
// Numeric domain guard: at N <= 0 the whole derivative is zero; at N >= K
// only the Gompertz log term is zeroed (growth halts at capacity) while the
// treatment-kill and mutation terms still apply.
func (e *Engine) Derive(x sim.State, t float64) sim.State {
	ns, nr := x[0], x[1]
	n := ns + nr

	if n <= 0 {
		return sim.State{0, 0}
	}

	gompertz := 0.0
	if n < e.capacity {
		gompertz = math.Log(e.capacity / n)
	}

	beta := e.active.Intensity(math.Max(0, t-e.treatmentStart))
	conversion := mutationRate * ns

	return sim.State{
		e.rs*ns*gompertz - beta*ns - conversion,
		e.rr*nr*gompertz + conversion,
	}
}

func (e *Engine) StateDim() int { return 2 }

// Simulate advances the live state by days. Non-positive spans are a no-op,
// not an error.
func (e *Engine) Simulate(days float64) error {
	if days <= 0 {
		return nil
	}
	next, err := e.integ.Integrate(e, e.state, e.t, e.t+days)
	if err != nil {
		return err
	}
	e.state = next
	e.t += days
	return nil
}

// Restore overwrites the live state from a recorded checkpoint. The caller
// passes copies; the engine never aliases timeline storage.
func (e *Engine) Restore(sensitive, resistant, t float64, k treatment.Kind, treatmentStart float64) {
	e.state = sim.State{sensitive, resistant}
	e.t = t
	e.active = k
	e.treatmentStart = treatmentStart
}

// Clone returns an independent engine with identical parameters and state,
// for counterfactual arms. The integrator is rebuilt rather than shared: it
// keeps a mutable stage buffer, and clones may step concurrently.
func (e *Engine) Clone() *Engine {
	c := *e
	c.state = e.state.Clone()
	// step size was validated when e was built
	c.integ, _ = integrators.NewRK4(e.integ.StepSize())
	return &c
}

func (e *Engine) SensitiveVolume() float64       { return e.state[0] }
func (e *Engine) ResistantVolume() float64       { return e.state[1] }
func (e *Engine) TotalVolume() float64           { return e.state.Total() }
func (e *Engine) CurrentTime() float64           { return e.t }
func (e *Engine) Capacity() float64              { return e.capacity }
func (e *Engine) Treatment() treatment.Kind      { return e.active }
func (e *Engine) TreatmentStart() float64        { return e.treatmentStart }
func (e *Engine) Profile() patient.Profile       { return e.profile }
func (e *Engine) AdjustedSensitiveRate() float64 { return e.rs }
func (e *Engine) AdjustedResistantRate() float64 { return e.rr }

// TreatmentDays is the whole number of days the active treatment has run.
func (e *Engine) TreatmentDays() int {
	if e.active == treatment.None {
		return 0
	}
	d := e.t - e.treatmentStart
	if d < 0 {
		return 0
	}
	return int(d)
}

// DoublingTime estimates the days for the total volume to double at the
// instantaneous growth rate; +Inf when the tumor is not growing.
func (e *Engine) DoublingTime() float64 {
	total := e.state.Total()
	d := e.Derive(e.state, e.t)
	rate := d[0] + d[1]
	if rate <= 0 || total <= 0 {
		return math.Inf(1)
	}
	return math.Ln2 * total / rate
}

// ResistanceFraction is the resistant share of the total volume, 0 for an
// empty tumor.
func (e *Engine) ResistanceFraction() float64 {
	total := e.state.Total()
	if total == 0 {
		return 0
	}
	return e.state[1] / total
}

// Stage returns the ordinal volume bucket of the current total volume.
func (e *Engine) Stage() Stage {
	return StageForVolume(e.state.Total())
}

package integrators

import (
	"math"

	"oncosim/internal/sim"
)

// Euler is a first-order baseline integrator, kept for order-of-convergence
// comparisons against RK4.
type Euler struct {
	h float64
}

func NewEuler(h float64) (*Euler, error) {
	if h <= 0 || h > 1.0 {
		return nil, sim.ErrStepSize
	}
	return &Euler{h: h}, nil
}

func (e *Euler) Step(dyn sim.System, x sim.State, t float64) (sim.State, error) {
	if len(x) != dyn.StateDim() {
		return nil, sim.ErrDimensionMismatch
	}
	dx := dyn.Derive(x, t)
	result := make(sim.State, len(x))
	for i := range x {
		result[i] = math.Max(x[i]+e.h*dx[i], 0.0)
	}
	return result, nil
}

package integrators

import (
	"math"

	"oncosim/internal/sim"
)

// DefaultStepSize is the fixed integration step in days.
const DefaultStepSize = 0.1

// RK4 is the classical fixed-step 4th-order Runge-Kutta integrator.
//
// Each component of the combined result is clamped to >= 0: a deliberate
// non-physical guard against numerical overshoot into negative populations.
type RK4 struct {
	h       float64
	scratch sim.State
}

// NewRK4 builds an integrator with step size h in days, h in (0, 1].
func NewRK4(h float64) (*RK4, error) {
	if h <= 0 || h > 1.0 {
		return nil, sim.ErrStepSize
	}
	return &RK4{h: h}, nil
}

func (r *RK4) StepSize() float64 { return r.h }

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) != n {
		r.scratch = make(sim.State, n)
	}
}

// Step advances the state by one full step of size h.
func (r *RK4) Step(dyn sim.System, x sim.State, t float64) (sim.State, error) {
	return r.step(dyn, x, t, r.h)
}

func (r *RK4) step(dyn sim.System, x sim.State, t, h float64) (sim.State, error) {
	n := dyn.StateDim()
	if len(x) != n {
		return nil, sim.ErrDimensionMismatch
	}
	r.ensureScratch(n)

	k1 := dyn.Derive(x, t)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*k1[i]
	}
	k2 := dyn.Derive(r.scratch, t+h*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*0.5*k2[i]
	}
	k3 := dyn.Derive(r.scratch, t+h*0.5)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + h*k3[i]
	}
	k4 := dyn.Derive(r.scratch, t+h)

	result := make(sim.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + h6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
		result[i] = math.Max(result[i], 0.0)
	}

	return result, nil
}

// Integrate advances from (t0, x0) to t1 by repeated fixed steps, with a
// shortened final step landing exactly on t1. Deterministic for a given
// (t0, x0, t1, h).
func (r *RK4) Integrate(dyn sim.System, x0 sim.State, t0, t1 float64) (sim.State, error) {
	if t1 < t0 {
		return nil, sim.ErrTimeOrder
	}
	if len(x0) != dyn.StateDim() {
		return nil, sim.ErrDimensionMismatch
	}

	x := x0.Clone()
	t := t0
	for t1-t > 1e-12 {
		h := r.h
		if t+h > t1 {
			h = t1 - t
		}
		next, err := r.step(dyn, x, t, h)
		if err != nil {
			return nil, err
		}
		x = next
		t += h
	}
	return x, nil
}

// IntegrateWithTrajectory samples the trajectory at `samples` evenly spaced
// boundaries between t0 and t1 (inclusive of both endpoints), integrating
// between consecutive boundaries.
func (r *RK4) IntegrateWithTrajectory(dyn sim.System, x0 sim.State, t0, t1 float64, samples int) ([]sim.Point, error) {
	if samples < 1 {
		return nil, sim.ErrTimeOrder
	}
	if t1 < t0 {
		return nil, sim.ErrTimeOrder
	}

	points := make([]sim.Point, 0, samples+1)
	x := x0.Clone()
	points = append(points, sim.Point{Time: t0, State: x.Clone()})

	span := (t1 - t0) / float64(samples)
	t := t0
	for i := 1; i <= samples; i++ {
		next := t0 + float64(i)*span
		var err error
		x, err = r.Integrate(dyn, x, t, next)
		if err != nil {
			return nil, err
		}
		t = next
		points = append(points, sim.Point{Time: t, State: x.Clone()})
	}
	return points, nil
}

package sim

import "math"

// State is a vector of cell-population volumes (cm³), one component per line.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Total() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is an ODE system dX/dt = f(X, t) in simulated days.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Integrator advances a system state by one fixed step.
type Integrator interface {
	Step(dyn System, x State, t float64) (State, error)
}

// Point is one sampled trajectory entry.
type Point struct {
	Time  float64
	State State
}

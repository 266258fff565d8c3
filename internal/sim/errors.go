package sim

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid values.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a state vector whose length does not
	// match the system's state dimension.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between state and system")

	// ErrStepSize indicates an integration step outside (0, 1] days.
	ErrStepSize = errors.New("sim: step size out of valid bounds")

	// ErrTimeOrder indicates an integration interval with t1 < t0.
	ErrTimeOrder = errors.New("sim: final time precedes initial time")
)

// Package sim provides core simulation primitives for the tumor-growth
// engine.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector of cell-population volumes
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator interface
//
// # Thread Safety
//
// None of the types in this package are thread-safe. A simulation engine is
// driven by exactly one caller at a time; hosts stepping from multiple
// goroutines must serialize calls externally.
package sim

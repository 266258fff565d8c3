// Package treatment defines the closed set of treatment kinds and their
// time-dependent suppression-intensity laws. The set is fixed; every switch
// over Kind is exhaustive.
package treatment

import (
	"fmt"
	"math"
)

// Kind identifies one of the four treatment variants.
type Kind uint8

const (
	None Kind = iota
	Chemotherapy
	Radiotherapy
	Immunotherapy
)

// Calibration constants per variant.
const (
	chemoCycleDays    = 21.0
	chemoMaxEfficacy  = 0.75
	chemoAccumulation = 0.15

	radioCourseDays  = 14.0
	radioMaxEfficacy = 0.85
	radioResidual    = 0.3
	radioDecayRate   = 0.1

	immunoMaxEfficacy  = 0.65
	immunoActivation   = 0.08
	immunoMidpointDays = 30.0
	immunoCycleDays    = 21.0
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Chemotherapy:
		return "chemotherapy"
	case Radiotherapy:
		return "radiotherapy"
	case Immunotherapy:
		return "immunotherapy"
	}
	return fmt.Sprintf("treatment.Kind(%d)", uint8(k))
}

// Parse maps a transfer-record code to its Kind.
func Parse(code string) (Kind, error) {
	switch code {
	case "none", "":
		return None, nil
	case "chemotherapy":
		return Chemotherapy, nil
	case "radiotherapy":
		return Radiotherapy, nil
	case "immunotherapy":
		return Immunotherapy, nil
	}
	return None, fmt.Errorf("treatment: unknown kind %q", code)
}

// Kinds lists every variant in declaration order.
func Kinds() []Kind {
	return []Kind{None, Chemotherapy, Radiotherapy, Immunotherapy}
}

// CycleDuration is the nominal treatment cycle length in days.
func (k Kind) CycleDuration() float64 {
	switch k {
	case Chemotherapy:
		return chemoCycleDays
	case Radiotherapy:
		return radioCourseDays
	case Immunotherapy:
		return immunoCycleDays
	default:
		return 0
	}
}

// MaxEfficacy is the peak suppression intensity the variant can reach.
func (k Kind) MaxEfficacy() float64 {
	switch k {
	case Chemotherapy:
		return chemoMaxEfficacy
	case Radiotherapy:
		return radioMaxEfficacy
	case Immunotherapy:
		return immunoMaxEfficacy
	default:
		return 0
	}
}

// Intensity computes the suppression intensity β(t) in [0, 1] for t days
// since the treatment started. Callers measure t from treatment start, never
// from simulation start; negative t is outside the contract and reports 0.
func (k Kind) Intensity(t float64) float64 {
	if t < 0 {
		return 0
	}

	switch k {
	case None:
		return 0

	case Chemotherapy:
		// within-cycle drug accumulation, cycle-over-cycle acquired
		// resistance floored at 50% residual efficacy
		cycle := math.Floor(t / chemoCycleDays)
		timeInCycle := math.Mod(t, chemoCycleDays)
		accumulation := 1.0 - math.Exp(-chemoAccumulation*timeInCycle)
		resistanceFactor := math.Max(0.5, 1.0-0.1*cycle)
		return chemoMaxEfficacy * accumulation * resistanceFactor

	case Radiotherapy:
		// session pulses during the course, residual decay afterwards
		if t < radioCourseDays {
			s := math.Sin(math.Pi * t / radioCourseDays)
			return radioMaxEfficacy * s * s
		}
		return radioMaxEfficacy * radioResidual * math.Exp(-radioDecayRate*(t-radioCourseDays))

	case Immunotherapy:
		// sigmoidal immune activation, durable response (no decay)
		return immunoMaxEfficacy / (1.0 + math.Exp(-immunoActivation*(t-immunoMidpointDays)))
	}

	return 0
}

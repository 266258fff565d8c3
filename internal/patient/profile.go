// Package patient models demographic and lifestyle risk factors as
// multiplicative growth modifiers. Profiles are validated once and never
// mutated afterwards.
package patient

import (
	"errors"
	"fmt"
)

// Diet classifies overall diet quality.
type Diet string

const (
	DietHealthy Diet = "healthy"
	DietNormal  Diet = "normal"
	DietPoor    Diet = "poor"
)

// ErrInvalidProfile is the sentinel wrapped by every validation failure.
var ErrInvalidProfile = errors.New("patient: invalid profile")

// Profile holds the patient attributes that calibrate the growth model.
type Profile struct {
	Age           int     `yaml:"age"`
	Smoker        bool    `yaml:"smoker"`
	PackYears     float64 `yaml:"pack_years"`
	Diet          Diet    `yaml:"diet"`
	GeneticFactor float64 `yaml:"genetic_factor"`
}

// Default returns the baseline profile (60-year-old non-smoker, normal diet).
func Default() Profile {
	return Profile{Age: 60, Diet: DietNormal, GeneticFactor: 1.0}
}

// Validate checks every constraint and reports the first violation. A profile
// is rejected as a whole; no partially valid profile is ever applied.
func (p Profile) Validate() error {
	if p.Age < 18 || p.Age > 120 {
		return fmt.Errorf("%w: age %d outside [18, 120]", ErrInvalidProfile, p.Age)
	}
	if p.PackYears < 0 || p.PackYears > 150 {
		return fmt.Errorf("%w: pack-years %.1f outside [0, 150]", ErrInvalidProfile, p.PackYears)
	}
	if !p.Smoker && p.PackYears != 0 {
		return fmt.Errorf("%w: pack-years %.1f on a non-smoker", ErrInvalidProfile, p.PackYears)
	}
	switch p.Diet {
	case DietHealthy, DietNormal, DietPoor:
	default:
		return fmt.Errorf("%w: unknown diet %q", ErrInvalidProfile, p.Diet)
	}
	if p.GeneticFactor < 0.5 || p.GeneticFactor > 2.0 {
		return fmt.Errorf("%w: genetic factor %.2f outside [0.5, 2.0]", ErrInvalidProfile, p.GeneticFactor)
	}
	return nil
}

// AgeGrowthModifier scales the sensitive growth rate; age 50 is baseline.
func (p Profile) AgeGrowthModifier() float64 {
	return clamp(1.0+0.005*float64(p.Age-50), 0.85, 1.2)
}

// SmokingCapacityModifier scales carrying capacity; pack-years reduce
// sustainable tissue volume, floored at 70%.
func (p Profile) SmokingCapacityModifier() float64 {
	if !p.Smoker {
		return 1.0
	}
	return clamp(1.0-0.003*p.PackYears, 0.7, 1.0)
}

func (p Profile) DietModifier() float64 {
	switch p.Diet {
	case DietHealthy:
		return 0.9
	case DietPoor:
		return 1.1
	default:
		return 1.0
	}
}

// CombinedModifier is the product of every modifier and the genetic factor.
func (p Profile) CombinedModifier() float64 {
	return p.AgeGrowthModifier() * p.SmokingCapacityModifier() * p.DietModifier() * p.GeneticFactor
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

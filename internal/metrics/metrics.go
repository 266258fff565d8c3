// Package metrics provides trajectory observers for simulation runs.
package metrics

import (
	"math"

	"oncosim/internal/growth"
)

// Metric accumulates a scalar over observed trajectory points.
type Metric interface {
	Name() string
	Observe(t, sensitive, resistant float64)
	Value() float64
	Reset()
}

// PeakVolume tracks the maximum total volume seen.
type PeakVolume struct {
	peak float64
}

func NewPeakVolume() *PeakVolume { return &PeakVolume{} }

func (p *PeakVolume) Name() string { return "peak_volume" }

func (p *PeakVolume) Observe(t, sensitive, resistant float64) {
	p.peak = math.Max(p.peak, sensitive+resistant)
}

func (p *PeakVolume) Value() float64 { return p.peak }
func (p *PeakVolume) Reset()         { p.peak = 0 }

// MeanResistanceFraction averages the resistant share across observations.
type MeanResistanceFraction struct {
	sum     float64
	samples int
}

func NewMeanResistanceFraction() *MeanResistanceFraction { return &MeanResistanceFraction{} }

func (m *MeanResistanceFraction) Name() string { return "mean_resistance_fraction" }

func (m *MeanResistanceFraction) Observe(t, sensitive, resistant float64) {
	total := sensitive + resistant
	if total > 0 {
		m.sum += resistant / total
	}
	m.samples++
}

func (m *MeanResistanceFraction) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanResistanceFraction) Reset() {
	m.sum = 0
	m.samples = 0
}

// TimeToStage records the first simulated time the total volume enters the
// target stage or beyond; +Inf while never reached.
type TimeToStage struct {
	target  growth.Stage
	reached float64
}

func NewTimeToStage(target growth.Stage) *TimeToStage {
	return &TimeToStage{target: target, reached: math.Inf(1)}
}

func (m *TimeToStage) Name() string { return "time_to_stage_" + m.target.String() }

func (m *TimeToStage) Observe(t, sensitive, resistant float64) {
	if !math.IsInf(m.reached, 1) {
		return
	}
	if growth.StageForVolume(sensitive+resistant) >= m.target {
		m.reached = t
	}
}

func (m *TimeToStage) Value() float64 { return m.reached }
func (m *TimeToStage) Reset()         { m.reached = math.Inf(1) }

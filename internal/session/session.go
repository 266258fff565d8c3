// Package session drives one interactive run: a live growth engine paired
// with a versioned history timeline. The session owns the daily stepping
// loop, records every advance in history, and keeps the engine and the
// timeline's current pointer in lockstep during navigation.
package session

import (
	"fmt"
	"math"

	"oncosim/internal/growth"
	"oncosim/internal/history"
	"oncosim/internal/integrators"
	"oncosim/internal/metrics"
	"oncosim/internal/patient"
	"oncosim/internal/transfer"
	"oncosim/internal/treatment"
)

// Config collects everything needed to start a session. Zero values fall
// back to defaults where a default exists.
type Config struct {
	Profile   patient.Profile
	Sensitive float64
	Resistant float64

	StepSize         float64 // integration step in days, 0 means default
	SnapshotInterval float64 // days between automatic checkpoints
	MaxDeltas        int     // deltas per checkpoint before forcing a new one

	Mode   transfer.Mode
	CaseID string
}

// Session is a single interactive run. Not safe for concurrent use.
type Session struct {
	eng *growth.Engine
	tl  *history.Timeline

	mode   transfer.Mode
	caseID string

	observers []metrics.Metric
}

// New validates the configuration, seeds the engine, and records the initial
// state as the timeline root.
func New(cfg Config) (*Session, error) {
	step := cfg.StepSize
	if step == 0 {
		step = integrators.DefaultStepSize
	}
	eng, err := growth.NewWithStep(cfg.Profile, step)
	if err != nil {
		return nil, err
	}
	if err := eng.SetInitialConditions(cfg.Sensitive, cfg.Resistant); err != nil {
		return nil, err
	}

	mode := cfg.Mode
	if mode == "" {
		mode = transfer.ModeFree
	}

	s := &Session{
		eng:    eng,
		tl:     history.New(cfg.SnapshotInterval, cfg.MaxDeltas),
		mode:   mode,
		caseID: cfg.CaseID,
	}
	s.tl.Initialize(s.snapshot("initial state"))
	return s, nil
}

// FromRecord starts a session from a boundary record, preserving its
// treatment clock.
func FromRecord(r transfer.Record) (*Session, error) {
	eng, err := transfer.BuildEngine(r)
	if err != nil {
		return nil, err
	}

	s := &Session{
		eng:    eng,
		tl:     history.New(0, 0),
		mode:   r.Mode,
		caseID: r.CaseID,
	}
	s.tl.Initialize(s.snapshot("restored state"))
	return s, nil
}

// Observe registers a metric fed on every recorded state, starting with the
// state at registration time so day-0 conditions are never missed.
func (s *Session) Observe(m metrics.Metric) {
	s.observers = append(s.observers, m)
	m.Observe(s.eng.CurrentTime(), s.eng.SensitiveVolume(), s.eng.ResistantVolume())
}

func (s *Session) observe() {
	for _, m := range s.observers {
		m.Observe(s.eng.CurrentTime(), s.eng.SensitiveVolume(), s.eng.ResistantVolume())
	}
}

func (s *Session) snapshot(desc string) history.Snapshot {
	return history.Snapshot{
		Time:           s.eng.CurrentTime(),
		Sensitive:      s.eng.SensitiveVolume(),
		Resistant:      s.eng.ResistantVolume(),
		Treatment:      s.eng.Treatment(),
		TreatmentStart: s.eng.TreatmentStart(),
		Description:    desc,
	}
}

func (s *Session) restore(snap history.Snapshot) {
	s.eng.Restore(snap.Sensitive, snap.Resistant, snap.Time, snap.Treatment, snap.TreatmentStart)
}

// Advance simulates the given span in whole-day increments, saving each day's
// state to history so the timeline's save policy decides between snapshots
// and deltas. Fractional remainders are simulated and saved as a final step.
// Non-positive spans are a no-op.
func (s *Session) Advance(days float64) error {
	if days <= 0 {
		return nil
	}

	whole := int(days)
	for i := 0; i < whole; i++ {
		if err := s.step(1.0); err != nil {
			return err
		}
	}
	if rem := days - float64(whole); rem > 1e-12 {
		return s.step(rem)
	}
	return nil
}

func (s *Session) step(span float64) error {
	if err := s.eng.Simulate(span); err != nil {
		return fmt.Errorf("session: advance at day %.1f: %w", s.eng.CurrentTime(), err)
	}
	s.observe()
	s.tl.SaveState(s.snapshot(""), false)
	return nil
}

// SetTreatment switches the active treatment and records the switch as a
// forced checkpoint, so every protocol change is a navigable point.
func (s *Session) SetTreatment(k treatment.Kind) string {
	s.eng.SetTreatment(k)
	_, id := s.tl.SaveState(s.snapshot("treatment: "+k.String()), true)
	return id
}

// SaveCheckpoint records the current state as a named, forced checkpoint.
func (s *Session) SaveCheckpoint(desc string) string {
	_, id := s.tl.SaveState(s.snapshot(desc), true)
	return id
}

// Rewind steps the timeline back one checkpoint and restores the engine to
// it. Reports false at the root.
func (s *Session) Rewind() bool {
	snap, ok := s.tl.Rewind()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// FastForward steps the timeline to the current checkpoint's first child and
// restores the engine to it.
func (s *Session) FastForward() bool {
	snap, ok := s.tl.FastForward()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// GoToCheckpoint jumps to a checkpoint by ID and restores the engine to it.
func (s *Session) GoToCheckpoint(id string) bool {
	snap, ok := s.tl.GoToCheckpoint(id)
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Branch labels the current checkpoint as a named branch point. Subsequent
// advances diverge under it; navigating back and advancing again grows a
// sibling arm.
func (s *Session) Branch(name string) (string, bool) {
	return s.tl.CreateBranch(name)
}

// Record exports the current state as a boundary record.
func (s *Session) Record() transfer.Record {
	return transfer.FromEngine(s.eng, s.mode, s.caseID)
}

// Engine exposes the live engine for read-side presentation.
func (s *Session) Engine() *growth.Engine { return s.eng }

// Timeline exposes the history tree for listings and footprint reports.
func (s *Session) Timeline() *history.Timeline { return s.tl }

// Summary is the end-of-run report.
type Summary struct {
	Days        float64
	TotalVolume float64
	Stage       growth.Stage
	Resistance  float64
	Treatment   treatment.Kind
	Footprint   history.Footprint
	Metrics     map[string]float64
}

// Summarize reports the run so far.
func (s *Session) Summarize() Summary {
	vals := make(map[string]float64, len(s.observers))
	for _, m := range s.observers {
		vals[m.Name()] = m.Value()
	}
	return Summary{
		Days:        s.eng.CurrentTime(),
		TotalVolume: s.eng.TotalVolume(),
		Stage:       s.eng.Stage(),
		Resistance:  s.eng.ResistanceFraction(),
		Treatment:   s.eng.Treatment(),
		Footprint:   s.tl.MemoryFootprint(),
		Metrics:     vals,
	}
}

// DoublingTime proxies the engine's instantaneous doubling-time estimate,
// rounded for display; +Inf passes through.
func (s *Session) DoublingTime() float64 {
	dt := s.eng.DoublingTime()
	if math.IsInf(dt, 1) {
		return dt
	}
	return math.Round(dt*10) / 10
}

// Package history records engine states in a git-like append-only tree of
// full snapshots and compact deltas, supporting rewind, fast-forward,
// branching, and checkpoint lookup without memory growing linearly with
// simulated duration.
//
// Nodes live in an arena and reference parent and children by index, so the
// tree is acyclic by construction and free of ownership cycles. Snapshots
// are plain values: everything handed out is a copy, and later engine
// mutation can never invalidate a recorded checkpoint.
package history

import (
	"time"

	"github.com/google/uuid"

	"oncosim/internal/treatment"
)

// Fixed per-record accounting costs in bytes, used for the compression-ratio
// report against a naive per-save full snapshot baseline.
const (
	snapshotCost = 100
	deltaCost    = 25
)

// Default session tuning.
const (
	DefaultSnapshotInterval = 30.0 // simulated days between checkpoints
	DefaultMaxDeltas        = 50   // deltas per node before forcing a checkpoint
)

// Snapshot is a complete, self-sufficient recorded engine state.
type Snapshot struct {
	Time           float64
	Sensitive      float64
	Resistant      float64
	Treatment      treatment.Kind
	TreatmentStart float64
	Description    string
	CreatedAt      time.Time
}

func (s Snapshot) TotalVolume() float64 {
	return s.Sensitive + s.Resistant
}

// Delta is the compact difference between a recorded state and the nearest
// ancestor snapshot. Deltas are never chained: each one is measured against
// the owning node's snapshot, so reconstruction applies exactly one delta.
type Delta struct {
	DTime            float64
	DSensitive       float64
	DResistant       float64
	TreatmentChanged bool
	NewTreatment     treatment.Kind
}

func deltaBetween(base, next Snapshot) Delta {
	d := Delta{
		DTime:      next.Time - base.Time,
		DSensitive: next.Sensitive - base.Sensitive,
		DResistant: next.Resistant - base.Resistant,
	}
	if next.Treatment != base.Treatment {
		d.TreatmentChanged = true
		d.NewTreatment = next.Treatment
	}
	return d
}

// Apply reconstructs the recorded state the delta encodes, forward from its
// base snapshot.
func (d Delta) Apply(base Snapshot) Snapshot {
	out := base
	out.Time += d.DTime
	out.Sensitive += d.DSensitive
	out.Resistant += d.DResistant
	if d.TreatmentChanged {
		out.Treatment = d.NewTreatment
	}
	return out
}

// RecordType tags what SaveState stored.
type RecordType int

const (
	RecordSnapshot RecordType = iota
	RecordDelta
)

func (r RecordType) String() string {
	if r == RecordSnapshot {
		return "snapshot"
	}
	return "delta"
}

type node struct {
	id       string
	snap     Snapshot
	deltas   []Delta
	parent   int // arena index, -1 for the root
	children []int
	branch   string // non-empty when labeled as a branch point
}

// Checkpoint describes one checkpoint node for listings.
type Checkpoint struct {
	ID          string
	Time        float64
	Description string
	TotalVolume float64
	Treatment   treatment.Kind
	Branch      string
}

// Footprint reports recorded memory against the naive per-save baseline.
type Footprint struct {
	Snapshots  int
	Deltas     int
	Bytes      int
	NaiveBytes int
	Ratio      float64 // Bytes / NaiveBytes, < 1 when deltas pay off
}

// Timeline is the versioned history tree with one current pointer. It is
// session-scoped: tuning arrives through the constructor, and the tree only
// ever grows.
type Timeline struct {
	snapshotInterval float64
	maxDeltas        int

	nodes   []node
	current int // arena index, -1 before initialization
}

// New builds an empty timeline. Non-positive tuning values fall back to the
// defaults.
func New(snapshotInterval float64, maxDeltas int) *Timeline {
	if snapshotInterval <= 0 {
		snapshotInterval = DefaultSnapshotInterval
	}
	if maxDeltas <= 0 {
		maxDeltas = DefaultMaxDeltas
	}
	return &Timeline{
		snapshotInterval: snapshotInterval,
		maxDeltas:        maxDeltas,
		current:          -1,
	}
}

func (t *Timeline) initialized() bool { return t.current >= 0 }

// Initialize records the root checkpoint and points current at it. Calling
// it on a non-empty timeline returns the existing root ID unchanged.
func (t *Timeline) Initialize(snap Snapshot) string {
	if t.initialized() {
		return t.nodes[0].id
	}
	snap.CreatedAt = time.Now()
	t.nodes = append(t.nodes, node{
		id:     uuid.NewString(),
		snap:   snap,
		parent: -1,
	})
	t.current = 0
	return t.nodes[0].id
}

// SaveState records the given state as a checkpoint child of current when
// force is set, the node's delta budget is exhausted, or enough simulated
// time has elapsed since the node's snapshot; otherwise it appends a delta
// relative to the node's own snapshot.
func (t *Timeline) SaveState(snap Snapshot, force bool) (RecordType, string) {
	if !t.initialized() {
		if snap.Description == "" {
			snap.Description = "auto-initialized"
		}
		return RecordSnapshot, t.Initialize(snap)
	}

	cur := &t.nodes[t.current]
	makeCheckpoint := force ||
		len(cur.deltas) >= t.maxDeltas ||
		snap.Time-cur.snap.Time >= t.snapshotInterval

	if makeCheckpoint {
		snap.CreatedAt = time.Now()
		idx := len(t.nodes)
		t.nodes = append(t.nodes, node{
			id:     uuid.NewString(),
			snap:   snap,
			parent: t.current,
		})
		t.nodes[t.current].children = append(t.nodes[t.current].children, idx)
		t.current = idx
		return RecordSnapshot, t.nodes[idx].id
	}

	cur.deltas = append(cur.deltas, deltaBetween(cur.snap, snap))
	return RecordDelta, cur.id
}

// Current returns a copy of the current node's snapshot.
func (t *Timeline) Current() (Snapshot, bool) {
	if !t.initialized() {
		return Snapshot{}, false
	}
	return t.nodes[t.current].snap, true
}

// CurrentID returns the current checkpoint's identifier.
func (t *Timeline) CurrentID() (string, bool) {
	if !t.initialized() {
		return "", false
	}
	return t.nodes[t.current].id, true
}

// Rewind moves current to its parent and returns that checkpoint's snapshot.
// Stepping back is checkpoint-granular; deltas are not replayed. A missing
// parent is an expected not-found outcome, never an error.
func (t *Timeline) Rewind() (Snapshot, bool) {
	if !t.initialized() || t.nodes[t.current].parent < 0 {
		return Snapshot{}, false
	}
	t.current = t.nodes[t.current].parent
	return t.nodes[t.current].snap, true
}

// FastForward moves current to its first child, if any.
func (t *Timeline) FastForward() (Snapshot, bool) {
	if !t.initialized() || len(t.nodes[t.current].children) == 0 {
		return Snapshot{}, false
	}
	t.current = t.nodes[t.current].children[0]
	return t.nodes[t.current].snap, true
}

// CreateBranch labels the current node as a branch point and returns its
// checkpoint ID. Divergent children accumulate under it through later
// SaveState calls after navigating back here.
func (t *Timeline) CreateBranch(name string) (string, bool) {
	if !t.initialized() {
		return "", false
	}
	t.nodes[t.current].branch = name
	return t.nodes[t.current].id, true
}

// GoToCheckpoint finds a checkpoint by ID via depth-first search, moves
// current there, and returns its snapshot. Not-found is a status, not an
// error.
func (t *Timeline) GoToCheckpoint(id string) (Snapshot, bool) {
	if !t.initialized() {
		return Snapshot{}, false
	}
	idx, ok := t.find(0, id)
	if !ok {
		return Snapshot{}, false
	}
	t.current = idx
	return t.nodes[idx].snap, true
}

func (t *Timeline) find(idx int, id string) (int, bool) {
	if t.nodes[idx].id == id {
		return idx, true
	}
	for _, child := range t.nodes[idx].children {
		if found, ok := t.find(child, id); ok {
			return found, true
		}
	}
	return 0, false
}

// Checkpoints lists every checkpoint node in depth-first order.
func (t *Timeline) Checkpoints() []Checkpoint {
	if !t.initialized() {
		return nil
	}
	out := make([]Checkpoint, 0, len(t.nodes))
	t.collect(0, &out)
	return out
}

func (t *Timeline) collect(idx int, out *[]Checkpoint) {
	n := &t.nodes[idx]
	*out = append(*out, Checkpoint{
		ID:          n.id,
		Time:        n.snap.Time,
		Description: n.snap.Description,
		TotalVolume: n.snap.TotalVolume(),
		Treatment:   n.snap.Treatment,
		Branch:      n.branch,
	})
	for _, child := range n.children {
		t.collect(child, out)
	}
}

// MemoryFootprint sums fixed-size record costs across the whole tree and
// reports the compression ratio against recording every save as a full
// snapshot.
func (t *Timeline) MemoryFootprint() Footprint {
	f := Footprint{Snapshots: len(t.nodes)}
	for i := range t.nodes {
		f.Deltas += len(t.nodes[i].deltas)
	}
	f.Bytes = f.Snapshots*snapshotCost + f.Deltas*deltaCost
	f.NaiveBytes = (f.Snapshots + f.Deltas) * snapshotCost
	if f.NaiveBytes > 0 {
		f.Ratio = float64(f.Bytes) / float64(f.NaiveBytes)
	}
	return f
}

// NodeCount reports the arena size (checkpoints only; deltas live inside
// their nodes).
func (t *Timeline) NodeCount() int { return len(t.nodes) }

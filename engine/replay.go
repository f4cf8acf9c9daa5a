package engine

import (
	"sync/atomic"

	"github.com/lixenwraith/protocell/events"
	"github.com/lixenwraith/protocell/genome"
	"github.com/lixenwraith/protocell/sim"
	"github.com/lixenwraith/protocell/status"
)

// Driver owns the canonical state and turns wall-clock frames or scrub
// requests into fixed ticks. It is the single writer: exactly one mutable
// reference to the state exists, and it never escapes.
//
// Live mode advances from the current time; scrub mode reaches an
// arbitrary target time, rebuilding from the initial state when the
// target lies in the past or when the genome was edited. The replay
// contract: the same (initial state, genome, seed, timestep, step count)
// always produces bit-identical state.
type Driver struct {
	Initial *sim.InitialState
	Genome  *genome.Genome
	State   *sim.State
	Clock   Clock

	frame sim.Frame
	queue *events.Queue
	snap  *SnapshotBuffer

	genomeDirty bool

	// Cached metric pointers; written every tick
	statTicks     *atomic.Int64
	statCells     *atomic.Int64
	statDivisions *atomic.Int64
	statBreaks    *atomic.Int64
	statAdhesions *atomic.Int64
	statTransport *status.AtomicFloat
	statTime      *status.AtomicFloat
}

// NewDriver builds the canonical state from the initial snapshot and
// wires the event queue and metrics registry. queue and registry may be
// shared with frontends; they are the only cross-thread surfaces.
func NewDriver(initial *sim.InitialState, g *genome.Genome, queue *events.Queue, reg *status.Registry) *Driver {
	d := &Driver{
		Initial: initial,
		Genome:  g,
		State:   initial.Build(g),
		Clock:   NewClock(initial.Config.FixedTimestep),
		queue:   queue,
		snap:    NewSnapshotBuffer(),

		statTicks:     reg.Ints.Get("sim.ticks"),
		statCells:     reg.Ints.Get("sim.cells"),
		statDivisions: reg.Ints.Get("sim.divisions"),
		statBreaks:    reg.Ints.Get("sim.breaks"),
		statAdhesions: reg.Ints.Get("sim.adhesions"),
		statTransport: reg.Floats.Get("sim.transport"),
		statTime:      reg.Floats.Get("sim.time"),
	}
	d.publish()
	return d
}

// Advance runs the live mode for one real frame: banks the delta on the
// clock and executes the due fixed steps, emitting events per tick and
// publishing a snapshot at the end of the batch. Returns the number of
// ticks executed.
func (d *Driver) Advance(realDt float64) int {
	n := d.Clock.Accumulate(realDt)
	for i := 0; i < n; i++ {
		d.stepOnce(true)
	}
	if n > 0 {
		d.publish()
	}
	return n
}

// ScrubTo reaches the target simulation time. Forward targets advance
// from the current state; backward targets (and any pending genome edit)
// rebuild from the initial snapshot and resimulate. Scrub ticks do not
// emit events; consumers resync from the published snapshot.
func (d *Driver) ScrubTo(target float32) {
	var steps int
	if target > d.Clock.CurrentTime && !d.genomeDirty {
		steps = d.Clock.StepsFrom(target)
	} else {
		d.rebuild()
		steps = d.Clock.StepsTo(target)
	}
	for i := 0; i < steps; i++ {
		d.stepOnce(false)
	}
	d.publish()
}

// SetGenome swaps the genome and flags replay invalidation: the next
// scrub (or Reset) rebuilds from the initial state so edits apply from
// time zero.
func (d *Driver) SetGenome(g *genome.Genome) {
	d.Genome = g
	d.genomeDirty = true
}

// Reset rebuilds from the initial state at time zero.
func (d *Driver) Reset() {
	d.rebuild()
	d.publish()
}

// Latest returns the most recent published snapshot.
func (d *Driver) Latest() *sim.Snapshot {
	return d.snap.Latest()
}

func (d *Driver) rebuild() {
	d.State = d.Initial.Build(d.Genome)
	d.Clock.Rewind()
	d.genomeDirty = false
}

// stepOnce executes exactly one fixed tick. The tick is the only
// suspension boundary: within it there is no I/O, no locking and no
// allocation beyond the pre-sized buffers.
func (d *Driver) stepOnce(emit bool) {
	d.Clock.Advance()
	d.frame.Reset()

	cfg := &d.Initial.Config
	d.State.Step(cfg, d.Genome, d.Clock.DtFixed, d.Clock.Tick, d.Clock.CurrentTime, &d.frame)

	if emit && d.queue != nil {
		for i := range d.frame.Divisions {
			d.queue.Push(events.Event{
				Type:    events.TypeDivision,
				Tick:    d.Clock.Tick,
				Time:    d.Clock.CurrentTime,
				Payload: d.frame.Divisions[i],
			})
		}
		for i := range d.frame.Breaks {
			d.queue.Push(events.Event{
				Type:    events.TypeAdhesionBreak,
				Tick:    d.Clock.Tick,
				Time:    d.Clock.CurrentTime,
				Payload: d.frame.Breaks[i],
			})
		}
	}

	d.statTicks.Store(int64(d.Clock.Tick))
	d.statCells.Store(int64(d.State.Count))
	d.statDivisions.Add(int64(len(d.frame.Divisions)))
	d.statBreaks.Add(int64(len(d.frame.Breaks)))
	d.statAdhesions.Store(int64(d.State.AdhesionHigh - d.State.FreeAdhesionCount()))
	d.statTransport.Add(float64(d.frame.TransportedMass))
	d.statTime.Set(float64(d.Clock.CurrentTime))
}

func (d *Driver) publish() {
	d.snap.Publish(d.State, d.Clock.CurrentTime, d.Clock.Tick)
}

// Package events provides the lock-free event infrastructure between the
// simulation driver and presentation-side consumers. The core pushes
// division and adhesion-break events at tick boundaries; a single consumer
// drains them to mirror state into its own representation.
package events

// Type identifies a simulation event.
type Type int

const (
	// TypeDivision: a parent cell was replaced by two children. Payload
	// is sim.DivisionEvent.
	TypeDivision Type = iota + 1

	// TypeAdhesionBreak: an adhesion slot was freed by break force.
	// Payload is sim.BreakEvent.
	TypeAdhesionBreak
)

// Event is one queued simulation event. Tick and Time locate it on the
// simulation timeline so consumers can discard stale events after a
// rewind.
type Event struct {
	Type    Type
	Tick    uint64
	Time    float32
	Payload any
}

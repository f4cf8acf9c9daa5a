package constants

// Simulation loop
const (
	// DefaultFixedTimestep is the canonical tick duration in seconds
	DefaultFixedTimestep float32 = 1.0 / 64.0

	// DampingTimescale makes damping exponents timestep-invariant:
	// factor = base^(dt * DampingTimescale), so halving dt halves the
	// per-tick decay but leaves per-second decay unchanged
	DampingTimescale float32 = 100
)

// Event infrastructure
const (
	// EventQueueSize is the fixed capacity of the event ring buffer
	EventQueueSize = 256

	// EventBufferMask is the bitmask for fast modulo (EventQueueSize - 1)
	EventBufferMask = 255
)

// Spatial grid defaults
const (
	// DefaultGridDim is the default per-axis bucket count
	DefaultGridDim = 32
)

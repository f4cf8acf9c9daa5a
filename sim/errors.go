package sim

import "errors"

var (
	// ErrAtCapacity reports a dropped cell or adhesion allocation. Soft:
	// the caller retries next tick or notifies the user.
	ErrAtCapacity = errors.New("at capacity")

	// ErrInvalidMode reports a cell whose mode index no longer resolves
	// against the genome. Soft: the cell keeps usable mode settings.
	ErrInvalidMode = errors.New("invalid mode index")

	// ErrNonFinite reports NaN or Inf in position or velocity. Fatal in
	// tests; the runtime clamps forces but does not recover from it.
	ErrNonFinite = errors.New("non-finite simulation state")
)

package vmath

// All simulation randomness is a pure function of (cellID, tick, seed,
// stream). There is no global RNG state, so draws are independent of cell
// iteration order and identical between live and scrubbed replays.

const (
	mixGamma = 0x9E3779B97F4A7C15
	mixB     = 0xBF58476D1CE4E5B9
	mixC     = 0x94D049BB133111EB
)

// splitmix64 finalizer; full-avalanche 64-bit mix
func mix64(x uint64) uint64 {
	x += mixGamma
	x = (x ^ (x >> 30)) * mixB
	x = (x ^ (x >> 27)) * mixC
	return x ^ (x >> 31)
}

// Hash01 returns a deterministic draw in [0, 1) for the given identity
// tuple. Stream ids separate independent per-cell draws; streams 0 and 1
// are reserved for split interval and split mass.
func Hash01(cellID uint32, tick uint64, seed uint64, stream uint32) float32 {
	x := seed
	x = mix64(x ^ uint64(cellID))
	x = mix64(x ^ tick)
	x = mix64(x ^ uint64(stream))
	// Top 24 bits give the full float32 mantissa range
	return float32(x>>40) / (1 << 24)
}

// HashRange maps Hash01 onto [lo, hi).
func HashRange(cellID uint32, tick uint64, seed uint64, stream uint32, lo, hi float32) float32 {
	return lo + (hi-lo)*Hash01(cellID, tick, seed, stream)
}

// FastRand is a xorshift64 generator for non-replay uses such as seeding
// demo populations. Not part of the deterministic tick path.
type FastRand struct {
	state uint64
}

func NewFastRand(seed uint64) *FastRand {
	if seed == 0 {
		seed = 1
	}
	return &FastRand{state: seed}
}

func (r *FastRand) Next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

func (r *FastRand) Float32() float32 {
	return float32(r.Next()>>40) / (1 << 24)
}

func (r *FastRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

package engine

import (
	"sync/atomic"

	"github.com/lixenwraith/protocell/sim"
)

// SnapshotBuffer publishes read-only state copies at tick boundaries.
// The writer alternates between two backing snapshots and swaps an atomic
// pointer, so presentation reads never race simulation writes.
//
// A pointer from Latest stays valid until two further publishes; frame
// loops that copy what they render within their frame are safe.
type SnapshotBuffer struct {
	bufs [2]sim.Snapshot
	back int
	cur  atomic.Pointer[sim.Snapshot]
}

func NewSnapshotBuffer() *SnapshotBuffer {
	return &SnapshotBuffer{}
}

// Publish captures the state into the back buffer and swaps it in.
// Called by the driver only, at tick boundaries.
func (b *SnapshotBuffer) Publish(s *sim.State, now float32, tick uint64) {
	dst := &b.bufs[b.back]
	s.Capture(dst, now, tick)
	b.cur.Store(dst)
	b.back ^= 1
}

// Latest returns the most recently published snapshot, or nil before the
// first publish.
func (b *SnapshotBuffer) Latest() *sim.Snapshot {
	return b.cur.Load()
}

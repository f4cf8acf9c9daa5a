package events

import (
	"sync/atomic"

	"github.com/lixenwraith/protocell/constants"
)

// Queue is a lock-free ring buffer carrying simulation events from the
// driver to a frontend. One producer (the driver tick loop), one
// consumer (the frame loop); the published flags keep a consumer that
// races an overflowing producer from reading a half-written slot.
//
// Overflow never blocks the simulation: the oldest unread events are
// overwritten.
type Queue struct {
	events    [constants.EventQueueSize]Event
	published [constants.EventQueueSize]atomic.Bool
	head      atomic.Uint64 // read index, consumer-owned except on overflow
	tail      atomic.Uint64 // write index, producer-owned
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends one event. Only the driver calls this, so the tail moves
// with a plain load/store pair; the published flag drops around the slot
// write so the consumer cannot observe a partial event.
func (q *Queue) Push(event Event) {
	tail := q.tail.Load()
	idx := tail & constants.EventBufferMask

	q.published[idx].Store(false)
	q.events[idx] = event
	q.published[idx].Store(true)
	q.tail.Store(tail + 1)

	// Once the ring laps the consumer, the oldest unread event is gone
	if head := q.head.Load(); tail+1-head > constants.EventQueueSize {
		q.head.CompareAndSwap(head, tail+1-constants.EventQueueSize)
	}
}

// Consume drains every published event in FIFO order. Single consumer;
// the CAS on head detects a producer that lapped the ring mid-drain and
// retries against the fresher window.
func (q *Queue) Consume() []Event {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if head == tail {
			return nil
		}
		if tail-head > constants.EventQueueSize {
			head = tail - constants.EventQueueSize
		}

		out := make([]Event, 0, tail-head)
		for i := head; i < tail; i++ {
			idx := i & constants.EventBufferMask
			if !q.published[idx].Load() {
				break // writer mid-slot
			}
			out = append(out, q.events[idx])
		}

		if q.head.CompareAndSwap(head, head+uint64(len(out))) {
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}
}

// Pending reports the number of unread events; approximate while a push
// is in flight.
func (q *Queue) Pending() int {
	d := q.tail.Load() - q.head.Load()
	if d > constants.EventQueueSize {
		d = constants.EventQueueSize
	}
	return int(d)
}

// Package ring implements the lock-free SPSC ring buffer of EventMessage
// records described in spec.md §4.6: power-of-two capacity, bitmask
// indexing, atomic head/tail with acquire/release ordering, and
// cache-line padding so the producer's tail writes never bounce the
// consumer's head cache line (and vice versa). Grounded directly on the
// teacher's order_ring_buffer.go — same head/tail-difference full/empty
// check — generalized to a configurable capacity and EventMessage values
// instead of *ZeroCopyOrder pointers, and extended with the padding the
// teacher's version omits.
package ring

import (
	"sync/atomic"

	"github.com/orbitbook/matchcore/internal/matching/types"
)

const cacheLineSize = 64

// Ring is a single-producer/single-consumer queue of fixed-size
// EventMessage records. Capacity must be a power of two; Enqueue/Dequeue
// never allocate.
type Ring struct {
	buffer []types.EventMessage
	mask   uint64

	_    [cacheLineSize - 8]byte
	head uint64 // atomic; only the consumer writes this

	_    [cacheLineSize - 8]byte
	tail uint64 // atomic; only the producer writes this

	_ [cacheLineSize - 8]byte
}

// New builds a Ring with the given capacity, which must be a power of
// two and at least 2.
func New(capacity int) *Ring {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		panic("matchcore: ring capacity must be a power of two")
	}
	return &Ring{
		buffer: make([]types.EventMessage, capacity),
		mask:   uint64(capacity - 1),
	}
}

// Capacity is the fixed number of slots in the ring.
func (r *Ring) Capacity() int { return len(r.buffer) }

// Enqueue copies msg into the ring. Returns false if the ring is full.
// Enqueue itself never blocks, retries or allocates, matching §5's
// no-blocking-allocation invariant; a caller that must not lose msg
// retries (the gateway spins until the consumer makes room).
func (r *Ring) Enqueue(msg types.EventMessage) bool {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head) // acquire: see the consumer's latest drain
	if tail-head >= uint64(len(r.buffer)) {
		return false
	}
	r.buffer[tail&r.mask] = msg
	atomic.StoreUint64(&r.tail, tail+1) // release: publish the write before advancing tail
	return true
}

// Dequeue removes and returns the oldest message. ok is false if the
// ring is empty.
func (r *Ring) Dequeue() (msg types.EventMessage, ok bool) {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail) // acquire: see the producer's latest publish
	if head == tail {
		return types.EventMessage{}, false
	}
	msg = r.buffer[head&r.mask]
	atomic.StoreUint64(&r.head, head+1) // release: free the slot before the producer can reuse it
	return msg, true
}

// Len is an instantaneous occupancy estimate, racy by design (read from
// the consumer or telemetry side without synchronizing with the
// producer); useful for backpressure gauges, not for correctness.
func (r *Ring) Len() int {
	tail := atomic.LoadUint64(&r.tail)
	head := atomic.LoadUint64(&r.head)
	return int(tail - head)
}

// Package arena implements the fixed-size slab allocator described in
// spec.md §4.1: a single preallocated slice of Order records with O(1)
// acquire/release via an intrusive free list. Grounded on the teacher's
// pools.go pre-warm pattern, but deliberately NOT sync.Pool-based — the
// spec's contract (capacity-bounded, deterministic allocation order,
// "exhausted" instead of growth) is incompatible with sync.Pool's
// unbounded, GC-driven semantics. See DESIGN.md.
package arena

import (
	"sync/atomic"

	"github.com/orbitbook/matchcore/internal/matching/types"
)

// Arena owns a fixed number of types.Order slots. It never grows: once
// capacity is exhausted, Acquire returns (NilRef, false) and the caller
// must reject the inbound order rather than block or allocate.
type Arena struct {
	records  []types.Order
	freeNext []types.Ref
	freeHead types.Ref

	inUse     int32 // atomic, for telemetry gauges read from another goroutine
	highWater int32 // atomic
	capacity  int32
}

// New preallocates an Arena with room for exactly capacity records. The
// free list is built back-to-front so the first Acquire deterministically
// returns the lowest-addressed slot (ref 0), which this package's tests
// check.
func New(capacity int) *Arena {
	a := &Arena{
		records:  make([]types.Order, capacity),
		freeNext: make([]types.Ref, capacity),
		freeHead: types.NilRef,
		capacity: int32(capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		a.freeNext[i] = a.freeHead
		a.freeHead = types.Ref(i)
	}
	return a
}

// Acquire reserves a slot and returns its Ref. ok is false when the arena
// is exhausted; the caller must not retry in a loop on the hot path.
func (a *Arena) Acquire() (ref types.Ref, ok bool) {
	if a.freeHead == types.NilRef {
		return types.NilRef, false
	}
	ref = a.freeHead
	a.freeHead = a.freeNext[ref]
	a.records[ref] = types.Order{}

	inUse := atomic.AddInt32(&a.inUse, 1)
	for {
		hw := atomic.LoadInt32(&a.highWater)
		if inUse <= hw || atomic.CompareAndSwapInt32(&a.highWater, hw, inUse) {
			break
		}
	}
	return ref, true
}

// Release returns ref's slot to the free list. The caller must not use
// the Ref again afterward; Get on a released Ref is undefined.
func (a *Arena) Release(ref types.Ref) {
	a.freeNext[ref] = a.freeHead
	a.freeHead = ref
	atomic.AddInt32(&a.inUse, -1)
}

// Get returns a pointer to ref's record. The pointer is stable for the
// arena's lifetime because the backing slice never reallocates.
func (a *Arena) Get(ref types.Ref) *types.Order {
	return &a.records[ref]
}

// Capacity is the fixed number of slots this arena was built with.
func (a *Arena) Capacity() int { return int(a.capacity) }

// InUse is the current number of acquired, unreleased slots.
func (a *Arena) InUse() int { return int(atomic.LoadInt32(&a.inUse)) }

// HighWater is the largest InUse value observed since construction.
func (a *Arena) HighWater() int { return int(atomic.LoadInt32(&a.highWater)) }

// Exhausted reports whether the arena currently has no free slots.
func (a *Arena) Exhausted() bool { return a.freeHead == types.NilRef }

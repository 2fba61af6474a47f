package book

import "github.com/orbitbook/matchcore/internal/matching/types"

// orderIndexEntry is one slot of the open-addressed table. occupied marks
// whether the slot holds a key; there is no tombstone state, because
// deletion shifts later entries down instead of tombstoning, which keeps
// lookups from having to skip tombstones (§4.3).
type orderIndexEntry struct {
	occupied bool
	key      uint64
	ref      types.Ref
}

// OrderIndex maps an order ID to its arena Ref with open addressing and
// linear probing. Deletion uses backward-shift so probe chains never need
// tombstones.
type OrderIndex struct {
	slots []orderIndexEntry
	mask  uint64
	size  int
}

// NewOrderIndex sizes the table to the next power of two at least twice
// expectedMax, keeping the load factor under 50% for short probe chains.
func NewOrderIndex(expectedMax int) *OrderIndex {
	capacity := nextPow2(2 * expectedMax)
	if capacity < 8 {
		capacity = 8
	}
	return &OrderIndex{
		slots: make([]orderIndexEntry, capacity),
		mask:  uint64(capacity - 1),
	}
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// hash is a multiplicative hash using the 64-bit golden-ratio constant,
// cheap and good enough for the dense uint64 order-id keyspace.
func hash(key uint64) uint64 {
	return key * 0x9E3779B97F4A7C15
}

// Insert adds key -> ref. Returns false if key is already present (callers
// must Erase first) or the table is full.
func (idx *OrderIndex) Insert(key uint64, ref types.Ref) bool {
	if idx.size >= len(idx.slots) {
		return false
	}
	i := hash(key) & idx.mask
	for {
		s := &idx.slots[i]
		if !s.occupied {
			s.occupied = true
			s.key = key
			s.ref = ref
			idx.size++
			return true
		}
		if s.key == key {
			return false
		}
		i = (i + 1) & idx.mask
	}
}

// Find returns the Ref stored for key, if present.
func (idx *OrderIndex) Find(key uint64) (types.Ref, bool) {
	i := hash(key) & idx.mask
	for {
		s := &idx.slots[i]
		if !s.occupied {
			return types.NilRef, false
		}
		if s.key == key {
			return s.ref, true
		}
		i = (i + 1) & idx.mask
	}
}

// Erase removes key, backward-shifting later entries in its probe chain
// into the gap so future lookups never need to skip a tombstone.
func (idx *OrderIndex) Erase(key uint64) bool {
	i := hash(key) & idx.mask
	for {
		s := &idx.slots[i]
		if !s.occupied {
			return false
		}
		if s.key == key {
			idx.deleteAt(i)
			idx.size--
			return true
		}
		i = (i + 1) & idx.mask
	}
}

// deleteAt clears slot i and shifts subsequent entries in the same probe
// chain backward so no gap breaks a later lookup.
func (idx *OrderIndex) deleteAt(i uint64) {
	idx.slots[i].occupied = false
	j := i
	for {
		j = (j + 1) & idx.mask
		s := &idx.slots[j]
		if !s.occupied {
			return
		}
		home := hash(s.key) & idx.mask
		// Move s into slot i's gap if i lies within [home, j) on the ring,
		// i.e. s's own probe chain would still find it there.
		if inProbeRange(home, i, j, idx.mask) {
			idx.slots[i] = *s
			s.occupied = false
			i = j
		}
	}
}

// inProbeRange reports whether slot i lies on the cyclic path from home to
// j (exclusive of j), i.e. an entry with home address `home` could have
// probed through i on its way to its current slot j.
func inProbeRange(home, i, j, mask uint64) bool {
	if home <= j {
		return home <= i && i < j
	}
	return i >= home || i < j
}

// Len is the number of keys currently stored.
func (idx *OrderIndex) Len() int { return idx.size }

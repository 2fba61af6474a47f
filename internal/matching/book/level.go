package book

import (
	"github.com/orbitbook/matchcore/internal/matching/arena"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// PriceLevel is an intrusive FIFO of orders resting at one price tick.
// Head/Tail are arena Refs; the order records themselves carry the
// Prev/Next links, so appending or unlinking never touches the heap.
type PriceLevel struct {
	Price         types.Price
	TotalQuantity uint64
	OrderCount    int32
	Head          types.Ref
	Tail          types.Ref
}

func emptyLevel() PriceLevel {
	return PriceLevel{Head: types.NilRef, Tail: types.NilRef}
}

// Empty reports whether the level currently holds no orders.
func (pl *PriceLevel) Empty() bool { return pl.OrderCount == 0 }

// Front returns the Ref of the oldest resting order at this level, the
// next one matching will consume under price-time priority.
func (pl *PriceLevel) Front() types.Ref { return pl.Head }

// Append links ref onto the tail of the level's FIFO.
func (pl *PriceLevel) Append(a *arena.Arena, ref types.Ref) {
	o := a.Get(ref)
	o.Prev = pl.Tail
	o.Next = types.NilRef
	if pl.Tail != types.NilRef {
		a.Get(pl.Tail).Next = ref
	} else {
		pl.Head = ref
	}
	pl.Tail = ref
	pl.OrderCount++
	pl.TotalQuantity += o.RemainingQuantity()
}

// Unlink removes ref from the level's FIFO. The caller is responsible for
// releasing ref back to the arena and removing it from the order index;
// Unlink only fixes up the intrusive links and the level's aggregates.
func (pl *PriceLevel) Unlink(a *arena.Arena, ref types.Ref) {
	o := a.Get(ref)
	pl.TotalQuantity -= o.RemainingQuantity()
	pl.OrderCount--

	if o.Prev != types.NilRef {
		a.Get(o.Prev).Next = o.Next
	} else {
		pl.Head = o.Next
	}
	if o.Next != types.NilRef {
		a.Get(o.Next).Prev = o.Prev
	} else {
		pl.Tail = o.Prev
	}
	o.Prev = types.NilRef
	o.Next = types.NilRef
}

// ReduceQuantity adjusts the level's total resting quantity after ref has
// been partially filled in place (ref stays linked).
func (pl *PriceLevel) ReduceQuantity(delta uint64) {
	pl.TotalQuantity -= delta
}

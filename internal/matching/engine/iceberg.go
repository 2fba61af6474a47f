package engine

import (
	"github.com/orbitbook/matchcore/internal/matching/book"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// replenishIceberg exposes the next visible slice of an iceberg maker
// whose current slice has just been fully consumed, and re-queues it at
// the tail of its price level. Per spec.md §9, visible quantity is
// tracked cumulatively: VisibleQuantity = FilledQuantity + newVisible, so
// RemainingVisible() always reports the size of the currently exposed
// slice regardless of how many replenishments have happened before it.
// Losing time priority on replenishment matches how real iceberg orders
// behave: the refreshed slice is a new arrival from the book's point of
// view.
func (e *Engine) replenishIceberg(level *book.PriceLevel, ref types.Ref, o *types.Order) {
	level.Unlink(e.arena, ref)

	remaining := o.Quantity - o.FilledQuantity
	slice := minU64(o.IcebergSliceQty, remaining)
	o.VisibleQuantity = o.FilledQuantity + slice
	o.Status = types.StatusPartialFill

	level.Append(e.arena, ref)
}

// Package book implements the flat-array, tick-indexed order book (§4.2–
// §4.4): an array of PriceLevel per side, an OrderIndex for O(1) id
// lookup, and cached best-bid/best-ask indices that rescan outward only
// when the occupied level they point at empties.
package book

import (
	"fmt"

	"github.com/orbitbook/matchcore/internal/matching/arena"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// OrderBook is one instrument's resting-order state. Prices are ticks of
// TickSize starting at MinPrice; levels are stored in a flat array so
// "the level at this price" is an O(1) index computation, not a tree
// lookup.
type OrderBook struct {
	InstrumentID uint32
	MinPrice     types.Price
	MaxPrice     types.Price
	TickSize     types.Price

	bidLevels []PriceLevel // ticks ascending; best bid is the highest occupied index
	askLevels []PriceLevel // ticks ascending; best ask is the lowest occupied index

	bestBidIdx int // -1 if no resting bids
	bestAskIdx int // -1 if no resting asks

	index *OrderIndex
	arena *arena.Arena
}

// New builds an OrderBook covering [minPrice, maxPrice] at tickSize
// increments, backed by the given arena and sized for expectedOrders
// distinct ids in the id index.
func New(instrumentID uint32, minPrice, maxPrice, tickSize types.Price, a *arena.Arena, expectedOrders int) (*OrderBook, error) {
	if tickSize <= 0 {
		return nil, fmt.Errorf("matchcore: tick size must be positive: %w", types.ErrPriceNotAligned)
	}
	if maxPrice <= minPrice {
		return nil, fmt.Errorf("matchcore: max price must exceed min price: %w", types.ErrPriceOutOfRange)
	}
	ticks := int((maxPrice-minPrice)/tickSize) + 1
	ob := &OrderBook{
		InstrumentID: instrumentID,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		TickSize:     tickSize,
		bidLevels:    make([]PriceLevel, ticks),
		askLevels:    make([]PriceLevel, ticks),
		bestBidIdx:   -1,
		bestAskIdx:   -1,
		index:        NewOrderIndex(expectedOrders),
		arena:        a,
	}
	for i := range ob.bidLevels {
		ob.bidLevels[i] = emptyLevel()
		ob.askLevels[i] = emptyLevel()
	}
	return ob, nil
}

// ValidPrice reports whether p lies in [MinPrice, MaxPrice] and aligns to
// TickSize.
func (ob *OrderBook) ValidPrice(p types.Price) bool {
	if p < ob.MinPrice || p > ob.MaxPrice {
		return false
	}
	return (p-ob.MinPrice)%ob.TickSize == 0
}

func (ob *OrderBook) priceIndex(p types.Price) int {
	return int((p - ob.MinPrice) / ob.TickSize)
}

func (ob *OrderBook) levelsFor(side types.Side) []PriceLevel {
	if side == types.Buy {
		return ob.bidLevels
	}
	return ob.askLevels
}

// Add links ref (already populated in the arena) into its side's level at
// its Price, updates the id index, and refreshes the best-price cache.
func (ob *OrderBook) Add(ref types.Ref) error {
	o := ob.arena.Get(ref)
	if !ob.ValidPrice(o.Price) {
		return types.ErrPriceOutOfRange
	}
	if _, exists := ob.index.Find(o.ID); exists {
		return types.ErrDuplicateOrderID
	}
	idx := ob.priceIndex(o.Price)
	levels := ob.levelsFor(o.Side)
	if levels[idx].Empty() {
		levels[idx].Price = o.Price
	}
	levels[idx].Append(ob.arena, ref)
	ob.index.Insert(o.ID, ref)

	if o.Side == types.Buy {
		if ob.bestBidIdx == -1 || idx > ob.bestBidIdx {
			ob.bestBidIdx = idx
		}
	} else {
		if ob.bestAskIdx == -1 || idx < ob.bestAskIdx {
			ob.bestAskIdx = idx
		}
	}
	return nil
}

// Cancel removes the resting order with the given id. Returns its Ref so
// the caller can release it back to the arena.
func (ob *OrderBook) Cancel(id uint64) (types.Ref, bool) {
	ref, ok := ob.index.Find(id)
	if !ok {
		return types.NilRef, false
	}
	ob.removeRef(ref)
	return ref, true
}

// Remove unlinks ref (already known to the caller, e.g. after a full
// fill) from its level and the id index. The caller owns releasing ref
// back to the arena.
func (ob *OrderBook) Remove(ref types.Ref) {
	ob.removeRef(ref)
}

func (ob *OrderBook) removeRef(ref types.Ref) {
	o := ob.arena.Get(ref)
	idx := ob.priceIndex(o.Price)
	levels := ob.levelsFor(o.Side)
	levels[idx].Unlink(ob.arena, ref)
	ob.index.Erase(o.ID)

	if o.Side == types.Buy && idx == ob.bestBidIdx && levels[idx].Empty() {
		ob.rescanBid(idx - 1)
	} else if o.Side == types.Sell && idx == ob.bestAskIdx && levels[idx].Empty() {
		ob.rescanAsk(idx + 1)
	}
}

// rescanBid walks downward (toward worse, lower prices) from startIdx
// looking for the next occupied bid level.
func (ob *OrderBook) rescanBid(startIdx int) {
	for i := startIdx; i >= 0; i-- {
		if !ob.bidLevels[i].Empty() {
			ob.bestBidIdx = i
			return
		}
	}
	ob.bestBidIdx = -1
}

// rescanAsk walks upward (toward worse, higher prices) from startIdx
// looking for the next occupied ask level.
func (ob *OrderBook) rescanAsk(startIdx int) {
	for i := startIdx; i < len(ob.askLevels); i++ {
		if !ob.askLevels[i].Empty() {
			ob.bestAskIdx = i
			return
		}
	}
	ob.bestAskIdx = -1
}

// BestBid returns the highest-priced occupied bid level.
func (ob *OrderBook) BestBid() (*PriceLevel, bool) {
	if ob.bestBidIdx == -1 {
		return nil, false
	}
	return &ob.bidLevels[ob.bestBidIdx], true
}

// BestAsk returns the lowest-priced occupied ask level.
func (ob *OrderBook) BestAsk() (*PriceLevel, bool) {
	if ob.bestAskIdx == -1 {
		return nil, false
	}
	return &ob.askLevels[ob.bestAskIdx], true
}

// LevelAt returns the level for side at price, if it falls within range.
func (ob *OrderBook) LevelAt(side types.Side, price types.Price) (*PriceLevel, bool) {
	if !ob.ValidPrice(price) {
		return nil, false
	}
	idx := ob.priceIndex(price)
	levels := ob.levelsFor(side)
	return &levels[idx], true
}

// FindOrder resolves an order id to its arena Ref.
func (ob *OrderBook) FindOrder(id uint64) (types.Ref, bool) {
	return ob.index.Find(id)
}

// Arena exposes the backing arena so callers (the matching engine) can
// dereference Refs returned by this book.
func (ob *OrderBook) Arena() *arena.Arena { return ob.arena }

// AvailableQuantity sums resting quantity on the opposite side that would
// cross against a hypothetical order of side/limitPrice, walking outward
// from the best price and stopping at the first level that does not
// cross. This resolves spec.md's FOK-walk open question: the walk never
// passes a non-crossing level, so a limit that does not cross at all
// yields exactly 0 (internal/matching/book/book_test.go verifies this).
func (ob *OrderBook) AvailableQuantity(side types.Side, limitPrice types.Price, hasLimit bool) uint64 {
	var total uint64
	if side == types.Buy {
		// Buy crosses asks at or below limitPrice, walking from the best
		// (lowest) ask upward. Empty levels are gaps, not stop points;
		// the walk only stops at the first OCCUPIED level that fails to
		// cross.
		if ob.bestAskIdx == -1 {
			return 0
		}
		for i := ob.bestAskIdx; i < len(ob.askLevels); i++ {
			lvl := &ob.askLevels[i]
			if lvl.Empty() {
				continue
			}
			if hasLimit && lvl.Price > limitPrice {
				break
			}
			total += lvl.TotalQuantity
		}
		return total
	}
	// Sell crosses bids at or above limitPrice, walking from the best
	// (highest) bid downward.
	if ob.bestBidIdx == -1 {
		return 0
	}
	for i := ob.bestBidIdx; i >= 0; i-- {
		lvl := &ob.bidLevels[i]
		if lvl.Empty() {
			continue
		}
		if hasLimit && lvl.Price < limitPrice {
			break
		}
		total += lvl.TotalQuantity
	}
	return total
}

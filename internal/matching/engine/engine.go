// Package engine implements price-time-priority matching over a single
// instrument's book.OrderBook (§4.5): submit, modify, cancel, order-type
// semantics (Limit/Market/IOC/FOK/GTC/Iceberg), self-trade prevention, and
// iceberg replenishment. Grounded on the teacher's orderbook.go AddOrder
// matching loop (maker-scan, passive-price trade, remove-when-filled),
// restructured for the spec's fixed trade bound and FOK pre-check.
package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/orbitbook/matchcore/internal/matching/arena"
	"github.com/orbitbook/matchcore/internal/matching/book"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// Engine matches orders against one book.OrderBook. It holds no clock of
// its own (§5 non-goal: no clock sync) — every call is given the caller's
// timestamp.
type Engine struct {
	book        *book.OrderBook
	arena       *arena.Arena
	nextTradeID uint64 // atomic
}

// New builds an Engine over b, whose arena it shares.
func New(b *book.OrderBook) *Engine {
	return &Engine{book: b, arena: b.Arena()}
}

func (e *Engine) allocTradeID() uint64 {
	return atomic.AddUint64(&e.nextTradeID, 1)
}

// Submit validates and matches a new order. spec is the caller-supplied
// order description; it is copied into the arena, never retained by
// reference from the caller's struct.
func (e *Engine) Submit(spec types.Order, now int64) (types.MatchResult, error) {
	var result types.MatchResult

	if err := e.validateNew(spec); err != nil {
		return result, err
	}

	if spec.Type == types.TypeFOK {
		// FOK always carries a real limit price (validateNew rejected a
		// non-Market order with an unaligned/out-of-range one already).
		avail := e.book.AvailableQuantity(spec.Side, spec.Price, true)
		if avail < spec.Quantity {
			return result, types.ErrFOKInfeasible
		}
	}

	ref, ok := e.arena.Acquire()
	if !ok {
		return result, types.ErrArenaExhausted
	}
	o := e.arena.Get(ref)
	*o = spec
	o.FilledQuantity = 0
	o.Timestamp = now
	o.Status = types.StatusNew
	if o.Type == types.TypeIceberg {
		o.VisibleQuantity = minU64(o.IcebergSliceQty, o.Quantity)
	} else {
		o.VisibleQuantity = o.Quantity
	}

	e.match(ref, &result, now)
	return e.finalize(ref, o, &result, false), nil
}

// Modify changes a resting order's price and/or quantity. The order loses
// its time priority unconditionally (re-queued at the tail of its new
// price level) — a deliberate simplification over "amend in place when
// only quantity shrinks at the same price".
func (e *Engine) Modify(id uint64, newPrice types.Price, newQuantity uint64, now int64) (types.MatchResult, error) {
	var result types.MatchResult

	ref, ok := e.book.FindOrder(id)
	if !ok {
		return result, types.ErrOrderNotFound
	}
	o := e.arena.Get(ref)
	if newQuantity <= o.FilledQuantity {
		return result, types.ErrQuantityInvalid
	}
	if !e.book.ValidPrice(newPrice) {
		return result, types.ErrPriceOutOfRange
	}

	e.book.Remove(ref)
	o.Price = newPrice
	o.Quantity = newQuantity
	if o.Type == types.TypeIceberg {
		o.VisibleQuantity = o.FilledQuantity + minU64(o.IcebergSliceQty, newQuantity-o.FilledQuantity)
	} else {
		o.VisibleQuantity = newQuantity
	}
	o.Timestamp = now
	o.Status = types.StatusNew

	e.match(ref, &result, now)
	return e.finalize(ref, o, &result, true), nil
}

// Cancel removes a resting order entirely, returning a snapshot of its
// final state.
func (e *Engine) Cancel(id uint64) (types.Order, error) {
	ref, ok := e.book.Cancel(id)
	if !ok {
		return types.Order{}, types.ErrOrderNotFound
	}
	snapshot := *e.arena.Get(ref)
	snapshot.Status = types.StatusCancelled
	e.arena.Release(ref)
	return snapshot, nil
}

func (e *Engine) validateNew(spec types.Order) error {
	if spec.Quantity == 0 {
		return types.ErrQuantityInvalid
	}
	if spec.Type == types.TypeIceberg {
		if spec.IcebergSliceQty == 0 || spec.IcebergSliceQty > spec.Quantity {
			return types.ErrQuantityInvalid
		}
	}
	if spec.Type != types.TypeMarket {
		if !e.book.ValidPrice(spec.Price) {
			return types.ErrPriceOutOfRange
		}
	}
	if _, exists := e.book.FindOrder(spec.ID); exists {
		return types.ErrDuplicateOrderID
	}
	return nil
}

// finalize applies the post-match disposition: rest the remainder, cancel
// it, or leave the order fully filled, and sets result.Status
// accordingly.
func (e *Engine) finalize(ref types.Ref, o *types.Order, result *types.MatchResult, isModify bool) types.MatchResult {
	result.FilledQuantity = o.FilledQuantity
	result.RemainingQuantity = o.RemainingQuantity()

	switch {
	case o.RemainingQuantity() == 0:
		o.Status = types.StatusFilled
		result.Status = types.MatchFilled
		e.arena.Release(ref)

	case result.SelfTradeTriggered:
		o.Status = types.StatusSelfTradePrevented
		result.Status = types.MatchSelfTradePrevented
		e.arena.Release(ref)

	case restsOnBook(o.Type):
		if err := e.book.Add(ref); err != nil {
			// Only reachable on a programming error (duplicate id, bad
			// price) since validateNew already checked both; surface it
			// loudly rather than silently dropping the order.
			panic(fmt.Errorf("matchcore: engine invariant violated re-adding order %d: %w", o.ID, err))
		}
		if isModify {
			o.Status = types.StatusModified
			result.Status = types.MatchModified
		} else if o.FilledQuantity > 0 {
			o.Status = types.StatusPartialFill
			result.Status = types.MatchPartialFill
		} else {
			o.Status = types.StatusAccepted
			result.Status = types.MatchResting
		}

	default: // Market, IOC, FOK: remainder is cancelled, never rests
		if o.FilledQuantity > 0 {
			o.Status = types.StatusPartialFill
			result.Status = types.MatchPartialFill
		} else {
			o.Status = types.StatusCancelled
			result.Status = types.MatchCancelled
		}
		e.arena.Release(ref)
	}
	return *result
}

func restsOnBook(t types.OrderType) bool {
	return t == types.TypeLimit || t == types.TypeGTC || t == types.TypeIceberg
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

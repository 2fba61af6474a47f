package engine

import (
	"github.com/orbitbook/matchcore/internal/matching/book"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// match consumes opposite-side liquidity against the order at ref until it
// is filled, the book stops crossing, the trade bound is reached, or
// self-trade prevention halts the taker. Trades execute at the resting
// (maker) order's price — price-time priority, passive price improvement
// for the aggressor.
func (e *Engine) match(ref types.Ref, result *types.MatchResult, now int64) {
	taker := e.arena.Get(ref)
	oppSide := opposite(taker.Side)

	for taker.RemainingQuantity() > 0 {
		if result.TradeCount >= types.MaxTradesPerSubmission {
			return // hit the per-submission trade bound (§6)
		}
		level, ok := e.bestLevel(oppSide)
		if !ok {
			return
		}
		if !crosses(taker, level.Price) {
			return
		}
		makerRef := level.Front()
		if makerRef == types.NilRef {
			return
		}
		maker := e.arena.Get(makerRef)

		if selfTrade(taker, maker) {
			if e.handleSelfTrade(taker, maker, makerRef, level, result, now) {
				return // taker was cancelled by STP, or matching must stop
			}
			continue // maker was cancelled instead; retry this level
		}

		tradeQty := minU64(taker.RemainingQuantity(), maker.RemainingVisible())
		if tradeQty == 0 {
			return
		}
		price := maker.Price

		taker.FilledQuantity += tradeQty
		maker.FilledQuantity += tradeQty
		level.ReduceQuantity(tradeQty)

		trade := types.Trade{
			TradeID:   e.allocTradeID(),
			Price:     price,
			Quantity:  tradeQty,
			Timestamp: now,
		}
		if taker.Side == types.Buy {
			trade.BuyOrderID, trade.SellOrderID = taker.ID, maker.ID
		} else {
			trade.BuyOrderID, trade.SellOrderID = maker.ID, taker.ID
		}
		if !result.AppendTrade(trade) {
			return // hit the per-submission trade bound (§6)
		}

		if maker.RemainingVisible() == 0 {
			if maker.RemainingQuantity() > 0 {
				e.replenishIceberg(level, makerRef, maker)
			} else {
				e.book.Remove(makerRef) // unlinks, fixes best-price cache + index
				e.arena.Release(makerRef)
			}
		}
	}
}

// bestLevel returns the best resting level on the side opposite side,
// i.e. the side an incoming order of `side` would match against.
func (e *Engine) bestLevel(side types.Side) (*book.PriceLevel, bool) {
	if side == types.Buy {
		return e.book.BestAsk()
	}
	return e.book.BestBid()
}

func opposite(s types.Side) types.Side {
	if s == types.Buy {
		return types.Sell
	}
	return types.Buy
}

// crosses reports whether an incoming order crosses a resting level at
// levelPrice. Market orders always cross; everything else compares its
// own limit against the level.
func crosses(taker *types.Order, levelPrice types.Price) bool {
	if taker.Type == types.TypeMarket {
		return true
	}
	if taker.Side == types.Buy {
		return taker.Price >= levelPrice
	}
	return taker.Price <= levelPrice
}

func selfTrade(taker, maker *types.Order) bool {
	return taker.ParticipantID == maker.ParticipantID
}

// handleSelfTrade applies the taker's self-trade-prevention mode. It
// returns true if the taker itself must stop matching (CancelNewest,
// CancelBoth), false if only the maker was removed and matching should
// continue (CancelOldest). With STPNone it executes the leg as an
// ordinary match and returns true only when matching must stop.
func (e *Engine) handleSelfTrade(taker, maker *types.Order, makerRef types.Ref, level *book.PriceLevel, result *types.MatchResult, now int64) bool {
	switch taker.STP {
	case types.STPNone:
		// No prevention: execute this leg exactly as an ordinary match
		// would, including removing or replenishing a consumed maker.
		return e.matchOneAsIfNotSelfTrade(taker, maker, makerRef, level, result, now)

	case types.STPCancelNewest:
		result.SelfTradeTriggered = true
		return true

	case types.STPCancelOldest:
		e.cancelMakerForSTP(makerRef, level, result)
		return false

	case types.STPCancelBoth:
		e.cancelMakerForSTP(makerRef, level, result)
		result.SelfTradeTriggered = true
		return true

	default:
		result.SelfTradeTriggered = true
		return true
	}
}

// matchOneAsIfNotSelfTrade executes exactly one trade leg when STP is
// disabled and a self-trade was merely detected, not prevented.
func (e *Engine) matchOneAsIfNotSelfTrade(taker, maker *types.Order, makerRef types.Ref, level *book.PriceLevel, result *types.MatchResult, now int64) bool {
	tradeQty := minU64(taker.RemainingQuantity(), maker.RemainingVisible())
	if tradeQty == 0 {
		return true
	}
	price := maker.Price
	taker.FilledQuantity += tradeQty
	maker.FilledQuantity += tradeQty
	level.ReduceQuantity(tradeQty)

	trade := types.Trade{TradeID: e.allocTradeID(), Price: price, Quantity: tradeQty, Timestamp: now}
	if taker.Side == types.Buy {
		trade.BuyOrderID, trade.SellOrderID = taker.ID, maker.ID
	} else {
		trade.BuyOrderID, trade.SellOrderID = maker.ID, taker.ID
	}
	if !result.AppendTrade(trade) {
		return true
	}
	if maker.RemainingVisible() == 0 {
		if maker.RemainingQuantity() > 0 {
			e.replenishIceberg(level, makerRef, maker)
		} else {
			e.book.Remove(makerRef)
			e.arena.Release(makerRef)
		}
	}
	return false
}

// cancelMakerForSTP removes maker from the book as a side effect of
// self-trade prevention and records its id in the result.
func (e *Engine) cancelMakerForSTP(makerRef types.Ref, level *book.PriceLevel, result *types.MatchResult) {
	maker := e.arena.Get(makerRef)
	maker.Status = types.StatusSelfTradePrevented
	e.book.Remove(makerRef)
	result.AppendSTPCancelled(maker.ID)
	e.arena.Release(makerRef)
}

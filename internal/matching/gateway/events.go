package gateway

import (
	"errors"
	"strconv"

	"github.com/orbitbook/matchcore/internal/matching/telemetry"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// publishResult decomposes a MatchResult into sequenced events: one per
// trade, one per self-trade-prevention cancellation, and exactly one
// order-lifecycle event for the submitting/modifying order's final
// disposition.
func (g *OrderGateway) publishResult(orderID uint64, result types.MatchResult, now int64) error {
	for i := 0; i < result.TradeCount; i++ {
		trade := result.Trades[i]
		msg := types.EventMessage{
			Sequence:     g.nextSequence(),
			InstrumentID: g.instrumentID,
			Tag:          types.EventTrade,
		}
		msg.SetTrade(trade)
		if err := g.publish(msg); err != nil {
			return err
		}
		telemetry.TradesExecuted.WithLabelValues(instrumentLabel(g.instrumentID)).Inc()
	}

	for i := 0; i < result.STPCancelledCount; i++ {
		g.publishOrderEventByID(types.EventOrderCancelled, result.STPCancelledIDs[i], types.StatusSelfTradePrevented, 0, 0, now)
	}

	tag, status := eventTagForMatchStatus(result.Status)
	return g.publishOrderEventByID(tag, orderID, status, result.FilledQuantity, result.RemainingQuantity, now)
}

// publishOrderEvent publishes a lifecycle event for a full Order
// snapshot (used by CancelOrder, which has the order record in hand).
func (g *OrderGateway) publishOrderEvent(tag types.EventTag, o types.Order, now int64) {
	_ = g.publishOrderEventByID(tag, o.ID, o.Status, o.FilledQuantity, o.RemainingQuantity(), now)
}

func (g *OrderGateway) publishOrderEventByID(tag types.EventTag, orderID uint64, status types.OrderStatus, filled, remaining uint64, now int64) error {
	msg := types.EventMessage{
		Sequence:     g.nextSequence(),
		InstrumentID: g.instrumentID,
		Tag:          tag,
	}
	msg.SetOrderEvent(types.OrderEventPayload{
		OrderID:           orderID,
		Status:            status,
		FilledQuantity:    filled,
		RemainingQuantity: remaining,
		Timestamp:         now,
	})
	return g.publish(msg)
}

func eventTagForMatchStatus(s types.MatchStatus) (types.EventTag, types.OrderStatus) {
	switch s {
	case types.MatchFilled:
		return types.EventOrderFilled, types.StatusFilled
	case types.MatchPartialFill:
		return types.EventOrderPartialFill, types.StatusPartialFill
	case types.MatchResting:
		return types.EventOrderAccepted, types.StatusAccepted
	case types.MatchCancelled:
		return types.EventOrderCancelled, types.StatusCancelled
	case types.MatchSelfTradePrevented:
		return types.EventOrderCancelled, types.StatusSelfTradePrevented
	case types.MatchModified:
		return types.EventOrderModified, types.StatusModified
	default:
		return types.EventOrderRejected, types.StatusRejected
	}
}

func outcomeLabel(s types.MatchStatus) string {
	switch s {
	case types.MatchFilled:
		return "filled"
	case types.MatchPartialFill:
		return "partial_fill"
	case types.MatchResting:
		return "resting"
	case types.MatchCancelled:
		return "cancelled"
	case types.MatchSelfTradePrevented:
		return "self_trade_prevented"
	case types.MatchModified:
		return "modified"
	default:
		return "unknown"
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, types.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, types.ErrDuplicateOrderID):
		return "duplicate_order_id"
	case errors.Is(err, types.ErrArenaExhausted):
		return "arena_exhausted"
	case errors.Is(err, types.ErrPriceOutOfRange):
		return "price_out_of_range"
	case errors.Is(err, types.ErrPriceNotAligned):
		return "price_not_aligned"
	case errors.Is(err, types.ErrQuantityInvalid):
		return "quantity_invalid"
	case errors.Is(err, types.ErrFOKInfeasible):
		return "fok_infeasible"
	case errors.Is(err, types.ErrUnknownInstrument):
		return "unknown_instrument"
	default:
		return "other"
	}
}

func instrumentLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

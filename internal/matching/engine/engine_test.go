package engine

import (
	"testing"

	"github.com/orbitbook/matchcore/internal/matching/arena"
	"github.com/orbitbook/matchcore/internal/matching/book"
	"github.com/orbitbook/matchcore/internal/matching/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, capacity int) *Engine {
	a := arena.New(capacity)
	ob, err := book.New(1, 100*types.PriceScale, 200*types.PriceScale, types.PriceScale, a, capacity)
	require.NoError(t, err)
	return New(ob)
}

func TestEngine_LimitOrderRestsWhenNoCross(t *testing.T) {
	e := newTestEngine(t, 8)
	res, err := e.Submit(types.Order{ID: 1, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	assert.Equal(t, types.MatchResting, res.Status)
	assert.Equal(t, 0, res.TradeCount)
}

func TestEngine_LimitOrdersCrossAndTradeAtMakerPrice(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	res, err := e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeLimit, Price: 155 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)

	require.Equal(t, 1, res.TradeCount)
	assert.Equal(t, types.MatchFilled, res.Status)
	assert.Equal(t, types.Price(150*types.PriceScale), res.Trades[0].Price, "trade executes at the resting maker's price")
	assert.Equal(t, uint64(10), res.Trades[0].Quantity)
}

func TestEngine_PartialFillLeavesRemainderResting(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 4}, 1)
	require.NoError(t, err)

	res, err := e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)

	assert.Equal(t, types.MatchPartialFill, res.Status)
	assert.Equal(t, uint64(4), res.FilledQuantity)
	assert.Equal(t, uint64(6), res.RemainingQuantity)
}

func TestEngine_IOCCancelsUnfilledRemainder(t *testing.T) {
	e := newTestEngine(t, 8)
	res, err := e.Submit(types.Order{ID: 1, Side: types.Buy, Type: types.TypeIOC, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	assert.Equal(t, types.MatchCancelled, res.Status)
	assert.Equal(t, 0, res.TradeCount)
}

func TestEngine_FOKRejectedWhenInsufficientLiquidity(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 3}, 1)
	require.NoError(t, err)

	_, err = e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeFOK, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	assert.ErrorIs(t, err, types.ErrFOKInfeasible)

	// The book must be untouched: the resting maker still has its full
	// quantity, and the FOK order was never admitted to the arena.
	lvl, ok := e.book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(3), lvl.TotalQuantity)
}

func TestEngine_FOKFillsCompletelyWhenLiquiditySuffices(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 20}, 1)
	require.NoError(t, err)

	res, err := e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeFOK, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, types.MatchFilled, res.Status)
	assert.Equal(t, uint64(10), res.FilledQuantity)
}

func TestEngine_SelfTradePreventionCancelNewest(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, ParticipantID: 99, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	res, err := e.Submit(types.Order{ID: 2, ParticipantID: 99, STP: types.STPCancelNewest, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, types.MatchSelfTradePrevented, res.Status)
	assert.Equal(t, 0, res.TradeCount)

	lvl, ok := e.book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(10), lvl.TotalQuantity, "the resting maker must be untouched")
}

func TestEngine_SelfTradePreventionCancelOldestContinuesMatching(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, ParticipantID: 99, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	_, err = e.Submit(types.Order{ID: 2, ParticipantID: 7, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 5}, 2)
	require.NoError(t, err)

	res, err := e.Submit(types.Order{ID: 3, ParticipantID: 99, STP: types.STPCancelOldest, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 5}, 3)
	require.NoError(t, err)

	require.Equal(t, 1, res.STPCancelledCount)
	assert.Equal(t, uint64(1), res.STPCancelledIDs[0])
	require.Equal(t, 1, res.TradeCount)
	assert.Equal(t, uint64(2), res.Trades[0].SellOrderID, "must trade against the non-self-trading maker")
	assert.Equal(t, types.MatchFilled, res.Status)
}

func TestEngine_IcebergReplenishesVisibleSliceAndLosesPriority(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Sell, Type: types.TypeIceberg, Price: 150 * types.PriceScale, Quantity: 30, IcebergSliceQty: 10}, 1)
	require.NoError(t, err)
	_, err = e.Submit(types.Order{ID: 4, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)

	res1, err := e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 3)
	require.NoError(t, err)
	require.Equal(t, 1, res1.TradeCount)
	assert.Equal(t, uint64(10), res1.Trades[0].Quantity)
	assert.Equal(t, uint64(1), res1.Trades[0].SellOrderID, "the iceberg is first in time at its level")

	lvl, ok := e.book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint64(30), lvl.TotalQuantity, "total_quantity tracks the order's full remaining quantity, hidden iceberg size included (20 iceberg + 10 order 4)")

	res2, err := e.Submit(types.Order{ID: 3, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 4)
	require.NoError(t, err)
	require.Equal(t, 1, res2.TradeCount)
	assert.Equal(t, uint64(4), res2.Trades[0].SellOrderID, "the replenished iceberg is requeued behind order 4")
}

func TestEngine_ModifyLosesTimePriority(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	_, err = e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 5}, 2)
	require.NoError(t, err)

	res, err := e.Modify(1, 150*types.PriceScale, 20, 3)
	require.NoError(t, err)
	assert.Equal(t, types.MatchModified, res.Status)

	lvl, ok := e.book.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(2), e.arena.Get(lvl.Front()).ID, "order 1 must now be behind order 2")
}

func TestEngine_CancelReturnsFinalSnapshot(t *testing.T) {
	e := newTestEngine(t, 8)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	snap, err := e.Cancel(1)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, snap.Status)

	_, err = e.Cancel(1)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestEngine_ArenaExhaustionRejectsNewOrders(t *testing.T) {
	e := newTestEngine(t, 1)
	_, err := e.Submit(types.Order{ID: 1, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	_, err = e.Submit(types.Order{ID: 2, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	assert.ErrorIs(t, err, types.ErrArenaExhausted)
}

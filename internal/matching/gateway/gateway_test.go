package gateway

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/matching/arena"
	"github.com/orbitbook/matchcore/internal/matching/book"
	"github.com/orbitbook/matchcore/internal/matching/engine"
	"github.com/orbitbook/matchcore/internal/matching/ring"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

func newTestGateway(t *testing.T, capacity int, ringCapacity int) (*OrderGateway, *ring.Ring) {
	a := arena.New(capacity)
	ob, err := book.New(7, 100*types.PriceScale, 200*types.PriceScale, types.PriceScale, a, capacity)
	require.NoError(t, err)
	eng := engine.New(ob)
	r := ring.New(ringCapacity)
	gw := New(7, eng, r, zap.NewNop())
	return gw, r
}

func TestGateway_SubmitPublishesAcceptedEvent(t *testing.T) {
	gw, r := newTestGateway(t, 8, 8)
	_, err := gw.SubmitOrder(types.Order{ID: 1, InstrumentID: 7, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	msg, ok := r.Dequeue()
	require.True(t, ok)
	assert.Equal(t, types.EventOrderAccepted, msg.Tag)
	assert.Equal(t, uint64(1), msg.AsOrderEvent().OrderID)
}

func TestGateway_SubmitPublishesTradeThenFillEvent(t *testing.T) {
	gw, r := newTestGateway(t, 8, 8)
	_, err := gw.SubmitOrder(types.Order{ID: 1, InstrumentID: 7, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	_, ok := r.Dequeue()
	require.True(t, ok) // drain order-1's resting event

	_, err = gw.SubmitOrder(types.Order{ID: 2, InstrumentID: 7, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)

	tradeMsg, ok := r.Dequeue()
	require.True(t, ok)
	assert.Equal(t, types.EventTrade, tradeMsg.Tag)

	fillMsg, ok := r.Dequeue()
	require.True(t, ok)
	assert.Equal(t, types.EventOrderFilled, fillMsg.Tag)
}

func TestGateway_WrongInstrumentRejected(t *testing.T) {
	gw, _ := newTestGateway(t, 8, 8)
	_, err := gw.SubmitOrder(types.Order{ID: 1, InstrumentID: 99, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	assert.ErrorIs(t, err, types.ErrUnknownInstrument)
}

func TestGateway_BackpressureRetriesUntilRingDrainsInsteadOfDropping(t *testing.T) {
	gw, r := newTestGateway(t, 8, 2)
	// Fill the ring directly so even the first resting-order event can't
	// be published immediately.
	require.True(t, r.Enqueue(types.EventMessage{}))
	require.True(t, r.Enqueue(types.EventMessage{}))

	done := make(chan struct{})
	go func() {
		_, err := gw.SubmitOrder(types.Order{ID: 1, InstrumentID: 7, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
		assert.NoError(t, err)
		close(done)
	}()

	// SubmitOrder must still be spinning with the ring full.
	select {
	case <-done:
		t.Fatal("SubmitOrder returned before the ring was drained")
	case <-time.After(20 * time.Millisecond):
	}

	_, _ = r.Dequeue()
	_, _ = r.Dequeue()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("SubmitOrder did not complete after the ring drained")
	}
}

func TestGateway_SubmitOrderExternalDerivesParticipantIDFromUUID(t *testing.T) {
	gw, _ := newTestGateway(t, 8, 8)
	participant := uuid.New()

	res, err := gw.SubmitOrderExternal(participant, types.Order{ID: 1, InstrumentID: 7, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	assert.Equal(t, types.MatchResting, res.Status)

	// The same UUID maps to the same participant, so self-trade
	// prevention cancels a crossing order from it.
	res, err = gw.SubmitOrderExternal(participant, types.Order{ID: 2, InstrumentID: 7, STP: types.STPCancelNewest, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, types.MatchSelfTradePrevented, res.Status)

	// A different UUID maps to a different participant and trades.
	res, err = gw.SubmitOrderExternal(uuid.New(), types.Order{ID: 3, InstrumentID: 7, STP: types.STPCancelNewest, Side: types.Sell, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 3)
	require.NoError(t, err)
	assert.Equal(t, types.MatchFilled, res.Status)
}

func TestGateway_CancelPublishesCancelledEvent(t *testing.T) {
	gw, r := newTestGateway(t, 8, 8)
	_, err := gw.SubmitOrder(types.Order{ID: 1, InstrumentID: 7, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
	_, _ = r.Dequeue()

	_, err = gw.CancelOrder(1, 2)
	require.NoError(t, err)

	msg, ok := r.Dequeue()
	require.True(t, ok)
	assert.Equal(t, types.EventOrderCancelled, msg.Tag)
}

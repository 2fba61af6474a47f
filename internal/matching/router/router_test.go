package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/config"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

func testConfigs() []config.InstrumentConfig {
	return []config.InstrumentConfig{
		{ID: 1, Symbol: "AAA", MinPrice: 100 * types.PriceScale, MaxPrice: 200 * types.PriceScale, TickSize: types.PriceScale, OrderCapacity: 64, RingCapacity: 64},
		{ID: 3, Symbol: "BBB", MinPrice: 1 * types.PriceScale, MaxPrice: 10 * types.PriceScale, TickSize: types.PriceScale, OrderCapacity: 64, RingCapacity: 64},
	}
}

func TestRouter_DispatchesByInstrumentID(t *testing.T) {
	r, err := New(testConfigs(), zap.NewNop())
	require.NoError(t, err)

	_, err = r.SubmitOrder(types.Order{ID: 1, InstrumentID: 1, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	_, err = r.SubmitOrder(types.Order{ID: 2, InstrumentID: 3, Side: types.Buy, Type: types.TypeLimit, Price: 5 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)
}

func TestRouter_UnknownInstrumentRejected(t *testing.T) {
	r, err := New(testConfigs(), zap.NewNop())
	require.NoError(t, err)

	_, err = r.SubmitOrder(types.Order{ID: 1, InstrumentID: 2, Side: types.Buy, Type: types.TypeLimit, Price: 5 * types.PriceScale, Quantity: 10}, 1)
	assert.ErrorIs(t, err, types.ErrUnknownInstrument)

	_, err = r.CancelOrder(2, 1, 1)
	assert.ErrorIs(t, err, types.ErrUnknownInstrument)
}

func TestRouter_DuplicateInstrumentIDRejected(t *testing.T) {
	configs := append(testConfigs(), config.InstrumentConfig{ID: 1, Symbol: "DUP", MinPrice: 1 * types.PriceScale, MaxPrice: 10 * types.PriceScale, TickSize: types.PriceScale, OrderCapacity: 8, RingCapacity: 8})
	_, err := New(configs, zap.NewNop())
	assert.Error(t, err)
}

func TestRouter_EventsFlowThroughSharedChannel(t *testing.T) {
	r, err := New(testConfigs(), zap.NewNop())
	require.NoError(t, err)

	r.Start(5 * time.Millisecond)
	defer r.Stop()

	_, err = r.SubmitOrder(types.Order{ID: 1, InstrumentID: 1, Side: types.Buy, Type: types.TypeLimit, Price: 150 * types.PriceScale, Quantity: 10}, 1)
	require.NoError(t, err)

	select {
	case msg := <-r.Events():
		assert.Equal(t, uint32(1), msg.InstrumentID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for routed event")
	}
}

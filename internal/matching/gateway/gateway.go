// Package gateway implements the order gateway (§4.7): validates inbound
// commands, submits them to the matching engine, decomposes the result
// into sequenced EventMessage records, and publishes them to the shared
// event ring, spinning under back-pressure rather than dropping an event
// when the ring is full. Grounded on the teacher's high_performance_engine.go
// ProcessOrderHighThroughput/eventProcessorLoop shape, stripped of its
// DB/settlement/risk dependencies (out of scope per spec.md's Non-goals).
package gateway

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/matching/engine"
	"github.com/orbitbook/matchcore/internal/matching/ring"
	"github.com/orbitbook/matchcore/internal/matching/telemetry"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// OrderGateway is the single-writer entry point for one instrument's
// matching engine (§5: multi-writer gateways are a non-goal). It owns
// sequencing of outbound events.
type OrderGateway struct {
	instrumentID uint32
	engine       *engine.Engine
	ring         *ring.Ring
	logger       *zap.Logger
	sequence     uint64 // atomic
}

// New builds a gateway for instrumentID, matching against eng and
// publishing into r.
func New(instrumentID uint32, eng *engine.Engine, r *ring.Ring, logger *zap.Logger) *OrderGateway {
	return &OrderGateway{
		instrumentID: instrumentID,
		engine:       eng,
		ring:         r,
		logger:       logger.Named("gateway"),
	}
}

// SubmitOrder validates and submits a new order, then publishes the
// resulting trade and order-lifecycle events.
func (g *OrderGateway) SubmitOrder(spec types.Order, now int64) (types.MatchResult, error) {
	if spec.InstrumentID != g.instrumentID {
		return types.MatchResult{}, types.ErrUnknownInstrument
	}

	result, err := g.engine.Submit(spec, now)
	if err != nil {
		telemetry.Rejections.WithLabelValues(instrumentLabel(g.instrumentID), rejectReason(err)).Inc()
		return result, err
	}

	telemetry.OrdersProcessed.WithLabelValues(instrumentLabel(g.instrumentID), outcomeLabel(result.Status)).Inc()
	if err := g.publishResult(spec.ID, result, now); err != nil {
		return result, err
	}
	return result, nil
}

// CancelOrder cancels a resting order and publishes its cancellation
// event.
func (g *OrderGateway) CancelOrder(id uint64, now int64) (types.Order, error) {
	snapshot, err := g.engine.Cancel(id)
	if err != nil {
		telemetry.Rejections.WithLabelValues(instrumentLabel(g.instrumentID), rejectReason(err)).Inc()
		return snapshot, err
	}
	g.publishOrderEvent(types.EventOrderCancelled, snapshot, now)
	return snapshot, nil
}

// ModifyOrder modifies a resting order's price/quantity and publishes the
// resulting events, exactly like SubmitOrder.
func (g *OrderGateway) ModifyOrder(id uint64, newPrice types.Price, newQuantity uint64, now int64) (types.MatchResult, error) {
	result, err := g.engine.Modify(id, newPrice, newQuantity, now)
	if err != nil {
		telemetry.Rejections.WithLabelValues(instrumentLabel(g.instrumentID), rejectReason(err)).Inc()
		return result, err
	}
	telemetry.OrdersProcessed.WithLabelValues(instrumentLabel(g.instrumentID), outcomeLabel(result.Status)).Inc()
	if err := g.publishResult(id, result, now); err != nil {
		return result, err
	}
	return result, nil
}

func (g *OrderGateway) nextSequence() uint64 {
	return atomic.AddUint64(&g.sequence, 1)
}

// publish spins until msg is enqueued. Events are never dropped (§4.7/§7):
// a full ring means the publisher hasn't drained it yet, not a reason to
// lose the event, so the only way out of this loop is the consumer side
// making room. Every missed attempt increments the backpressure counter,
// which is what operational monitoring watches instead of an error return.
func (g *OrderGateway) publish(msg types.EventMessage) error {
	for !g.ring.Enqueue(msg) {
		telemetry.BackpressureSpins.WithLabelValues(instrumentLabel(g.instrumentID)).Inc()
	}
	return nil
}

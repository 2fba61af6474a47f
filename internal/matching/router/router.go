// Package router implements the multi-instrument router (§4.9): an O(1)
// dense lookup table from instrument id to its InstrumentPipeline, all of
// them publishing into one shared event ring drained by exactly one
// publisher goroutine, whose output fans into one shared channel so a
// downstream consumer can observe every instrument's events without
// knowing how many instruments exist. This mirrors spec.md §5's "exactly
// two threads in the core hot path" contract: every pipeline's gateway is
// called from the caller's own thread (there is no per-instrument matching
// goroutine), and the one publisher goroutine is the only consumer of the
// one shared ring, so the ring's single-producer/single-consumer contract
// holds regardless of how many instruments are configured. Instrument
// configuration itself is loaded by internal/config; this package only
// wires the resulting InstrumentConfig values into full pipelines.
package router

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/config"
	"github.com/orbitbook/matchcore/internal/matching/arena"
	"github.com/orbitbook/matchcore/internal/matching/book"
	"github.com/orbitbook/matchcore/internal/matching/engine"
	"github.com/orbitbook/matchcore/internal/matching/gateway"
	"github.com/orbitbook/matchcore/internal/matching/publisher"
	"github.com/orbitbook/matchcore/internal/matching/ring"
	"github.com/orbitbook/matchcore/internal/matching/types"
)

// InstrumentPipeline bundles one instrument's matching stack: its arena,
// book, engine, and gateway. The ring and publisher are not per-pipeline —
// every pipeline's gateway publishes into the Router's single shared ring.
type InstrumentPipeline struct {
	Config  config.InstrumentConfig
	Arena   *arena.Arena
	Book    *book.OrderBook
	Engine  *engine.Engine
	Gateway *gateway.OrderGateway
}

// Router dispatches by instrument id in O(1) via a dense slice indexed by
// id. Every pipeline shares one ring.Ring and one MarketDataPublisher;
// the publisher fans every instrument's events into one shared channel.
type Router struct {
	pipelines []*InstrumentPipeline // index == instrument id; nil where unconfigured
	logger    *zap.Logger
	ring      *ring.Ring
	publisher *publisher.MarketDataPublisher
	events    chan types.EventMessage
}

// EventChannelCapacity is the shared channel's buffer size. Sized
// generously relative to the shared ring so a burst does not immediately
// apply backpressure to channel readers.
const EventChannelCapacity = 16384

// New builds a Router with one pipeline per config, all sharing a single
// event ring sized to the sum of every instrument's configured
// RingCapacity (rounded up to the next power of two, per ring.Ring's
// capacity contract). Instrument ids must be distinct; the dense table is
// sized to the largest id plus one, so ids should be small and roughly
// contiguous (the spec's O(1) dispatch contract, §4.9).
func New(configs []config.InstrumentConfig, logger *zap.Logger) (*Router, error) {
	maxID := uint32(0)
	sharedRingCapacity := 0
	for _, c := range configs {
		if c.ID > maxID {
			maxID = c.ID
		}
		sharedRingCapacity += c.RingCapacity
	}

	r := &Router{
		pipelines: make([]*InstrumentPipeline, maxID+1),
		logger:    logger.Named("router"),
		ring:      ring.New(nextPow2(sharedRingCapacity)),
		events:    make(chan types.EventMessage, EventChannelCapacity),
	}
	r.publisher = publisher.New(r.ring, r.logger)
	r.publisher.Subscribe(func(msg types.EventMessage) {
		r.events <- msg
	})

	for _, c := range configs {
		if int(c.ID) < len(r.pipelines) && r.pipelines[c.ID] != nil {
			return nil, fmt.Errorf("matchcore: duplicate instrument id %d", c.ID)
		}
		p, err := r.buildPipeline(c)
		if err != nil {
			return nil, fmt.Errorf("matchcore: instrument %d (%s): %w", c.ID, c.Symbol, err)
		}
		r.pipelines[c.ID] = p
	}
	r.logger.Info("router constructed", zap.Int("instruments", len(configs)), zap.Int("shared_ring_capacity", r.ring.Capacity()))
	return r, nil
}

func (r *Router) buildPipeline(c config.InstrumentConfig) (*InstrumentPipeline, error) {
	a := arena.New(c.OrderCapacity)
	ob, err := book.New(c.ID, c.MinPrice, c.MaxPrice, c.TickSize, a, c.OrderCapacity)
	if err != nil {
		return nil, err
	}
	eng := engine.New(ob)
	gw := gateway.New(c.ID, eng, r.ring, r.logger)
	return &InstrumentPipeline{
		Config:  c,
		Arena:   a,
		Book:    ob,
		Engine:  eng,
		Gateway: gw,
	}, nil
}

// nextPow2 rounds n up to the next power of two, with a floor of 2 (the
// minimum ring.Ring capacity).
func nextPow2(n int) int {
	p := 2
	for p < n {
		p <<= 1
	}
	return p
}

// Pipeline returns the pipeline for instrumentID, if configured.
func (r *Router) Pipeline(instrumentID uint32) (*InstrumentPipeline, bool) {
	if int(instrumentID) >= len(r.pipelines) {
		return nil, false
	}
	p := r.pipelines[instrumentID]
	return p, p != nil
}

// Events returns the channel every instrument's events are fanned into,
// in the shared ring's FIFO order (no cross-instrument fair-queuing
// guarantee beyond that single ordering, per spec.md's non-goal on
// cross-instrument fair queuing).
func (r *Router) Events() <-chan types.EventMessage {
	return r.events
}

// SubmitOrder routes spec to its instrument's gateway.
func (r *Router) SubmitOrder(spec types.Order, now int64) (types.MatchResult, error) {
	p, ok := r.Pipeline(spec.InstrumentID)
	if !ok {
		return types.MatchResult{}, types.ErrUnknownInstrument
	}
	return p.Gateway.SubmitOrder(spec, now)
}

// CancelOrder routes a cancel to instrumentID's gateway.
func (r *Router) CancelOrder(instrumentID uint32, orderID uint64, now int64) (types.Order, error) {
	p, ok := r.Pipeline(instrumentID)
	if !ok {
		return types.Order{}, types.ErrUnknownInstrument
	}
	return p.Gateway.CancelOrder(orderID, now)
}

// ModifyOrder routes a modify to instrumentID's gateway.
func (r *Router) ModifyOrder(instrumentID uint32, orderID uint64, newPrice types.Price, newQuantity uint64, now int64) (types.MatchResult, error) {
	p, ok := r.Pipeline(instrumentID)
	if !ok {
		return types.MatchResult{}, types.ErrUnknownInstrument
	}
	return p.Gateway.ModifyOrder(orderID, newPrice, newQuantity, now)
}

// Start begins draining the shared ring on the router's one publisher
// goroutine (§5: a single publisher thread services every instrument).
func (r *Router) Start(pollInterval time.Duration) {
	r.publisher.Start(pollInterval)
}

// Stop stops the publisher goroutine and closes the shared event channel.
// Stop must only be called after Start.
func (r *Router) Stop() {
	r.publisher.Stop()
	close(r.events)
}

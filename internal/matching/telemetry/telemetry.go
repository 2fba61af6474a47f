// Package telemetry holds the prometheus metrics every matchcore
// component records into, grounded on the teacher's pkg/metrics/metrics.go
// CounterVec/Histogram/GaugeVec-plus-init()-MustRegister pattern. The
// matching thread only ever touches the cheap atomic-increment path of
// these metrics (OrdersProcessed, TradesExecuted, Rejections,
// BackpressureSpins). RingOccupancy is set by the publisher after each
// drain, off the hot path. ArenaInUse, ArenaHighWater and SubmitLatency
// are registered, but no component in this module updates them.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	// OrdersProcessed counts submits and modifies the engine accepted, by
	// instrument and outcome tag ("filled", "partial_fill", "resting",
	// "cancelled", "self_trade_prevented", "modified"). Rejected calls are
	// counted in Rejections instead.
	OrdersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_orders_processed_total",
			Help: "Total number of orders processed by the matching engine",
		},
		[]string{"instrument", "outcome"},
	)

	// TradesExecuted counts trades by instrument.
	TradesExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_trades_executed_total",
			Help: "Total number of trades executed",
		},
		[]string{"instrument"},
	)

	// Rejections counts rejected submissions by reason.
	Rejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_order_rejections_total",
			Help: "Total number of rejected order submissions by reason",
		},
		[]string{"instrument", "reason"},
	)

	// BackpressureSpins counts gateway retries caused by a full ring.
	BackpressureSpins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_gateway_backpressure_spins_total",
			Help: "Total number of times the gateway observed a full event ring",
		},
		[]string{"instrument"},
	)

	// ArenaInUse is the current number of acquired arena slots.
	ArenaInUse = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchcore_arena_in_use",
			Help: "Number of currently acquired order-arena slots",
		},
		[]string{"instrument"},
	)

	// ArenaHighWater is the peak number of acquired arena slots observed.
	ArenaHighWater = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchcore_arena_high_water",
			Help: "Peak number of acquired order-arena slots observed",
		},
		[]string{"instrument"},
	)

	// RingOccupancy is the current occupancy of the router's shared event
	// ring (§5: one matching thread, one publisher thread, one ring for
	// the whole router — not one ring per instrument).
	RingOccupancy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchcore_ring_occupancy",
			Help: "Current number of unread messages in the shared event ring",
		},
	)

	// SubmitLatency is a histogram for the wall-clock latency of a single
	// Submit call. Nothing in this module observes into it.
	SubmitLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcore_submit_latency_seconds",
			Help:    "Latency in seconds of a single order submission",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		OrdersProcessed,
		TradesExecuted,
		Rejections,
		BackpressureSpins,
		ArenaInUse,
		ArenaHighWater,
		RingOccupancy,
		SubmitLatency,
	)
}

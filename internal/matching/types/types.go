// Package types holds the data model shared by every matching-core package:
// fixed-point prices, the order/trade records, the cache-aligned wire
// messages, and the sentinel errors callers match against with errors.Is.
package types

// PriceScale is the fixed-point scale applied to every Price. A Price of
// 1_00000000 represents 1.0 in decimal terms.
const PriceScale = 100_000_000

// Price is a fixed-point price: an integer count of 1/PriceScale units.
// Matching and book code never compares floats; every price comparison is a
// plain int64 comparison.
type Price int64

// Ref addresses a record inside an arena.Arena by slot index. NilRef marks
// "no record" the way a nil pointer would in a pointer-based structure.
type Ref int32

// NilRef is the sentinel Ref value meaning "absent".
const NilRef Ref = -1

// Side is which side of the book an order rests on.
type Side uint8

const (
	Buy Side = iota
	Sell
)

// OrderType selects the order's matching semantics.
type OrderType uint8

const (
	TypeLimit OrderType = iota
	TypeMarket
	TypeIOC     // immediate-or-cancel
	TypeFOK     // fill-or-kill
	TypeGTC     // good-till-cancel (resting limit, no expiry handling here)
	TypeIceberg // limit order with a visible slice smaller than total quantity
)

// SelfTradePrevention selects how the engine resolves a match between two
// orders from the same participant.
type SelfTradePrevention uint8

const (
	STPNone SelfTradePrevention = iota
	STPCancelNewest
	STPCancelOldest
	STPCancelBoth
)

// OrderStatus is the order's persistent lifecycle state.
type OrderStatus uint8

const (
	StatusNew OrderStatus = iota
	StatusAccepted
	StatusPartialFill
	StatusFilled
	StatusCancelled
	StatusRejected
	StatusSelfTradePrevented
	StatusModified
)

// MatchStatus is the outcome disposition of a single submit/modify call,
// distinct from OrderStatus because it describes what one call did, not
// the order's persistent lifecycle state.
type MatchStatus uint8

const (
	MatchFilled MatchStatus = iota
	MatchPartialFill
	MatchResting
	MatchCancelled
	MatchRejected
	MatchSelfTradePrevented
	MatchModified
)

// Order is the arena-resident order record. Its layout is deliberately
// narrow: two cache lines is the budget (§4.1), and Prev/Next are arena
// Refs rather than pointers so the record stays relocation-safe and the
// arena stays a single contiguous slice.
type Order struct {
	ID              uint64
	ParticipantID   uint64
	InstrumentID    uint32
	Side            Side
	Type            OrderType
	STP             SelfTradePrevention
	Status          OrderStatus
	Price           Price
	Quantity        uint64
	VisibleQuantity uint64 // cumulative: filled + currently-visible slice, per iceberg semantics
	IcebergSliceQty uint64 // 0 for non-iceberg orders
	FilledQuantity  uint64
	Timestamp       int64 // nanoseconds, assigned by the caller (no clock sync, §5 non-goal)
	Prev            Ref
	Next            Ref
}

// RemainingQuantity is the total quantity not yet filled.
func (o *Order) RemainingQuantity() uint64 {
	return o.Quantity - o.FilledQuantity
}

// RemainingVisible is the quantity still exposed at the current visible
// slice, per the cumulative iceberg bookkeeping in spec.md §9:
// visible_quantity = filled_quantity + new_visible.
func (o *Order) RemainingVisible() uint64 {
	if o.VisibleQuantity <= o.FilledQuantity {
		return 0
	}
	return o.VisibleQuantity - o.FilledQuantity
}

// Trade is a single execution. Exactly 48 bytes: six uint64-sized fields,
// no padding, safe to place directly in an EventMessage payload.
type Trade struct {
	TradeID     uint64
	BuyOrderID  uint64
	SellOrderID uint64
	Price       Price
	Quantity    uint64
	Timestamp   int64
}

// MaxTradesPerSubmission bounds the trades a single submit/modify call can
// produce, per spec.md §6. The array is fixed-size so a MatchResult never
// allocates on the hot path.
const MaxTradesPerSubmission = 64

// MaxSTPCancellations bounds how many resting orders a single submit can
// cancel as a side effect of self-trade prevention (STPCancelOldest /
// STPCancelBoth), keeping MatchResult allocation-free like Trades.
const MaxSTPCancellations = 8

// MatchResult is the outcome of Submit/Modify: a disposition, the trades
// generated (if any), and the order's post-call fill state.
type MatchResult struct {
	Status             MatchStatus
	Trades             [MaxTradesPerSubmission]Trade
	TradeCount         int
	FilledQuantity     uint64
	RemainingQuantity  uint64
	STPCancelledIDs    [MaxSTPCancellations]uint64
	STPCancelledCount  int
	SelfTradeTriggered bool
}

// AppendTrade records t in the result. Returns false if the bound is
// already reached (the caller is expected to stop matching at that point;
// §6 mandates at most MaxTradesPerSubmission trades per call).
func (r *MatchResult) AppendTrade(t Trade) bool {
	if r.TradeCount >= MaxTradesPerSubmission {
		return false
	}
	r.Trades[r.TradeCount] = t
	r.TradeCount++
	return true
}

// AppendSTPCancelled records the id of a resting order cancelled as a
// side effect of self-trade prevention. Returns false if the bound is
// already reached.
func (r *MatchResult) AppendSTPCancelled(id uint64) bool {
	if r.STPCancelledCount >= MaxSTPCancellations {
		return false
	}
	r.STPCancelledIDs[r.STPCancelledCount] = id
	r.STPCancelledCount++
	return true
}

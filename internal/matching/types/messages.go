package types

import "unsafe"

// EventTag discriminates the payload carried by an EventMessage.
type EventTag uint8

const (
	EventTrade EventTag = iota
	EventOrderAccepted
	EventOrderPartialFill
	EventOrderFilled
	EventOrderCancelled
	EventOrderRejected
	EventOrderModified
)

// OrderEventPayload carries an order-lifecycle event (everything but a
// trade). It is exactly 48 bytes, matching Trade's size, so both fit the
// same EventMessage.Payload slot.
type OrderEventPayload struct {
	OrderID           uint64
	Status            OrderStatus
	_                 [7]byte // pad Status to the next uint64 boundary
	FilledQuantity    uint64
	RemainingQuantity uint64
	Price             Price
	Timestamp         int64
}

// EventMessage is the fixed-size, trivially-copyable record the matching
// engine writes into the SPSC ring (§4.6). 64 bytes total: one cache line.
// Payload is a union in spirit — Trade or OrderEventPayload reinterpreted
// in place via unsafe.Pointer — the same technique the teacher's
// zero_copy_order.go uses to avoid an interface{} or a second allocation.
type EventMessage struct {
	Sequence     uint64
	InstrumentID uint32
	Tag          EventTag
	_            [3]byte
	Payload      [48]byte
}

// SetTrade stores t as this message's payload.
func (e *EventMessage) SetTrade(t Trade) {
	*(*Trade)(unsafe.Pointer(&e.Payload[0])) = t
}

// AsTrade reinterprets the payload as a Trade. Callers must check Tag ==
// EventTrade first.
func (e *EventMessage) AsTrade() Trade {
	return *(*Trade)(unsafe.Pointer(&e.Payload[0]))
}

// SetOrderEvent stores p as this message's payload.
func (e *EventMessage) SetOrderEvent(p OrderEventPayload) {
	*(*OrderEventPayload)(unsafe.Pointer(&e.Payload[0])) = p
}

// AsOrderEvent reinterprets the payload as an OrderEventPayload. Callers
// must check Tag != EventTrade first.
func (e *EventMessage) AsOrderEvent() OrderEventPayload {
	return *(*OrderEventPayload)(unsafe.Pointer(&e.Payload[0]))
}

// OrderCommandTag discriminates an inbound OrderMessage.
type OrderCommandTag uint8

const (
	CmdAdd OrderCommandTag = iota
	CmdCancel
	CmdModify
)

// OrderMessage is the fixed-size inbound command the gateway hands to the
// matching engine: an add, a cancel, or a modify. 128 bytes budget (§4.1):
// one cache line's worth of command metadata plus the full Order record
// for CmdAdd, or the (id, new price, new quantity) triple for CmdModify
// packed into the same Order-shaped fields.
type OrderMessage struct {
	Tag          OrderCommandTag
	InstrumentID uint32
	_            [3]byte
	Order        Order
}

package types

import "errors"

// Sentinel errors for every rejection path named in spec.md §7. Callers
// compare with errors.Is rather than string-matching.
var (
	ErrOrderNotFound     = errors.New("matchcore: order not found")
	ErrDuplicateOrderID  = errors.New("matchcore: duplicate order id")
	ErrArenaExhausted    = errors.New("matchcore: arena exhausted")
	ErrPriceOutOfRange   = errors.New("matchcore: price out of range")
	ErrPriceNotAligned   = errors.New("matchcore: price not aligned to tick size")
	ErrQuantityInvalid   = errors.New("matchcore: quantity invalid")
	ErrFOKInfeasible     = errors.New("matchcore: fill-or-kill order cannot be fully filled")
	ErrUnknownInstrument = errors.New("matchcore: unknown instrument")
	ErrRingFull          = errors.New("matchcore: ring buffer full")
)

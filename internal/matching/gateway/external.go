package gateway

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/orbitbook/matchcore/internal/matching/types"
)

// ParticipantIDFromUUID derives the internal uint64 ParticipantID from an
// external-facing participant UUID. Internal order/trade identity stays
// uint64 throughout the hot path (§4.1's cache-line budget has no room for
// a 16-byte UUID); uuid.UUID is used only at this gateway boundary, per
// SPEC_FULL.md §10.
func ParticipantIDFromUUID(id uuid.UUID) uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

// SubmitOrderExternal is SubmitOrder for callers that identify
// participants by UUID rather than the internal uint64 id, the shape an
// external order-entry API would actually expose.
func (g *OrderGateway) SubmitOrderExternal(participant uuid.UUID, spec types.Order, now int64) (types.MatchResult, error) {
	spec.ParticipantID = ParticipantIDFromUUID(participant)
	return g.SubmitOrder(spec, now)
}

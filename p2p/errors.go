// Package p2p adapts the canonical chaintypes/codec layer to network
// ingestion: cheap decode + sanity checks before anything touches the
// heavy validator, and a lightweight ConsensusView for header-sync-time
// filtering (§4.12-§4.13).
package p2p

import "errors"

var (
	// ErrThetaOutOfBounds is returned when a header's Θ falls outside the
	// conservative per-block step clamp around the previous Θ.
	ErrThetaOutOfBounds = errors.New("p2p: theta out of bounds")
	// ErrPolicyRootMismatch is returned when a header's policy root does
	// not match the locally configured expectation.
	ErrPolicyRootMismatch = errors.New("p2p: policy root mismatch")
	// ErrTimestampNonMonotonic is returned when a child header's timestamp
	// does not strictly exceed its parent's.
	ErrTimestampNonMonotonic = errors.New("p2p: timestamp non-monotonic")
	// ErrGenesisThetaOutOfTolerance is returned when a genesis header's Θ
	// falls outside the configured tolerance band around theta0.
	ErrGenesisThetaOutOfTolerance = errors.New("p2p: genesis theta outside tolerance")
)

// Envelope rejection reasons (§4.13) are stable, lowercase, hyphenated
// strings so callers (metrics, logs, peer scoring) can match on them
// without depending on Go error identity across a network boundary.
const (
	ReasonOversize          = "oversize"
	ReasonDecodeFailed       = "decode-failed"
	ReasonBadEnvelope       = "bad-envelope"
	ReasonUnknownType       = "unknown-type"
	ReasonMissingNullifier  = "missing-nullifier"
	ReasonDuplicateNullifier = "duplicate-nullifier"
)

package p2p

import (
	"errors"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

// MaxEnvelopeBytes bounds a gossiped proof envelope before it is worth
// spending a CBOR decode on; oversize envelopes are rejected without ever
// touching the decoder (§4.13).
const MaxEnvelopeBytes = 64 * 1024

// RejectedEnvelope pairs a stable reason string with the underlying error, so a
// caller can log or score the offending peer without re-deriving why the
// envelope was dropped.
type RejectedEnvelope struct {
	Reason string
	Err    error
}

func (r RejectedEnvelope) Error() string { return r.Reason }

func reject(reason string, err error) RejectedEnvelope {
	return RejectedEnvelope{Reason: reason, Err: err}
}

// NullifierSeen tracks nullifiers already admitted in the current window, so
// IngestEnvelope can reject exact repeats without a second round trip
// through the registry. Callers own the lifetime/eviction policy; this is a
// plain set interface so a ring buffer or an LRU can stand in just as well
// as a map.
type NullifierSeen interface {
	Has(codec.Digest32) bool
	Add(codec.Digest32)
}

// seenSet is the simplest NullifierSeen: an unbounded map. Fine for tests
// and for short-lived per-connection dedupe windows; a node with a
// long-lived mempool wants something bounded instead.
type seenSet struct {
	m map[codec.Digest32]struct{}
}

// NewSeenSet returns a NullifierSeen backed by a plain map.
func NewSeenSet() NullifierSeen {
	return &seenSet{m: make(map[codec.Digest32]struct{})}
}

func (s *seenSet) Has(d codec.Digest32) bool { _, ok := s.m[d]; return ok }
func (s *seenSet) Add(d codec.Digest32)      { s.m[d] = struct{}{} }

// IngestEnvelope is the full pre-parse gate a proof envelope passes through
// before it reaches the registry's kind-specific verifier (§4.13): size
// bound, decode, shape/nullifier presence, and dedupe against seen.
func IngestEnvelope(raw []byte, seen NullifierSeen) (chaintypes.ProofEnvelope, error) {
	if len(raw) == 0 {
		return chaintypes.ProofEnvelope{}, reject(ReasonBadEnvelope, errors.New("empty envelope"))
	}
	if len(raw) > MaxEnvelopeBytes {
		return chaintypes.ProofEnvelope{}, reject(ReasonOversize, nil)
	}

	env, err := chaintypes.ProofEnvelopeFromCBOR(raw)
	if err != nil {
		switch {
		case errors.Is(err, chaintypes.ErrUnknownType):
			return chaintypes.ProofEnvelope{}, reject(ReasonUnknownType, err)
		case errors.Is(err, chaintypes.ErrBadEnvelope):
			return chaintypes.ProofEnvelope{}, reject(ReasonBadEnvelope, err)
		default:
			return chaintypes.ProofEnvelope{}, reject(ReasonDecodeFailed, err)
		}
	}

	if env.Nullifier.IsZero() {
		return chaintypes.ProofEnvelope{}, reject(ReasonMissingNullifier, nil)
	}

	if seen != nil {
		if seen.Has(env.Nullifier) {
			return chaintypes.ProofEnvelope{}, reject(ReasonDuplicateNullifier, nil)
		}
		seen.Add(env.Nullifier)
	}

	return env, nil
}

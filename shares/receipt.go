// Package shares implements per-proof share receipts and their aggregation
// into the block header's share-commitment root (§3.5, §4.3).
package shares

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

var (
	// ErrNegativeMicroUnits is returned when a fractional contribution would
	// round to a negative share count.
	ErrNegativeMicroUnits = errors.New("shares: micro-units must be non-negative")
	// ErrMetaFlagsOutOfRange is returned when metaFlags does not fit a byte.
	ErrMetaFlagsOutOfRange = errors.New("shares: metaFlags must fit a u8")
	// ErrAlreadySealed is returned when admitting into a finalized aggregator.
	ErrAlreadySealed = errors.New("shares: aggregator already sealed")
)

// leafMagic is the domain prefix for the ShareReceipt leaf preimage,
// "SR" followed by the schema version byte.
var leafMagic = [3]byte{'S', 'R', 0x01}

// ShareReceipt is one accepted proof's contribution, already converted to
// integral micro-units (§3.5).
type ShareReceipt struct {
	TypeID     chaintypes.ProofType
	Nullifier  codec.Digest32
	MicroUnits uint64
	MetaFlags  uint8
}

// LeafBytes returns "SR\x01" || u8(typeId) || u8(metaFlags) || u64be(microUnits) || nullifier.
func (r ShareReceipt) LeafBytes() []byte {
	buf := make([]byte, 0, 3+1+1+8+32)
	buf = append(buf, leafMagic[:]...)
	buf = append(buf, byte(r.TypeID))
	buf = append(buf, r.MetaFlags)
	buf = append(buf, codec.U64BE(r.MicroUnits)...)
	buf = append(buf, r.Nullifier[:]...)
	return buf
}

// LeafHash is sha3_256(LeafBytes()), the identity fed into the aggregate
// Merkle root.
func (r ShareReceipt) LeafHash() codec.Digest32 {
	return codec.SHA3_256(r.LeafBytes())
}

// newReceipt validates a candidate before admission: typeId must be a known
// ProofType, metaFlags must fit a byte (it already does by Go's type system,
// this guards callers constructing from an untrusted wider integer).
func newReceipt(typeID chaintypes.ProofType, nullifier codec.Digest32, microUnits uint64, metaFlags int) (ShareReceipt, error) {
	if !typeID.Valid() {
		return ShareReceipt{}, fmt.Errorf("shares: %w: %d", chaintypes.ErrUnknownType, typeID)
	}
	if metaFlags < 0 || metaFlags > 0xff {
		return ShareReceipt{}, ErrMetaFlagsOutOfRange
	}
	return ShareReceipt{TypeID: typeID, Nullifier: nullifier, MicroUnits: microUnits, MetaFlags: uint8(metaFlags)}, nil
}

// stochasticRound implements the §4.3 rounding rule:
// rnd = LE(sha3_256(seed || u8(typeId) || nullifier)[0..8]) / 2^64
// micro = floor(x) + (1 if rnd < frac(x) else 0); x <= 0 => micro = 0.
func stochasticRound(seed []byte, typeID chaintypes.ProofType, nullifier codec.Digest32, x float64) uint64 {
	if x <= 0 {
		return 0
	}
	digest := codec.SHA3_256(seed, []byte{byte(typeID)}, nullifier[:])
	rnd := float64(binary.LittleEndian.Uint64(digest[:8])) / 18446744073709551616.0 // 2^64

	whole := math.Floor(x)
	frac := x - whole
	micro := uint64(whole)
	if rnd < frac {
		micro++
	}
	return micro
}

func bytesLess(a, b codec.Digest32) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

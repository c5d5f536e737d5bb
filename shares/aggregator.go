package shares

import (
	"sort"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

// Stats summarizes a finalized aggregation: total count, total micro-units,
// and the per-ProofType breakdown (§4.3).
type Stats struct {
	Count          int
	TotalMicro     uint64
	PerTypeMicro   [5]uint64 // indexed by ProofType ordinal
	PerTypeCount   [5]int
}

// Aggregator collects ShareReceipts during block assembly and produces the
// canonical aggregate root once sealed. It is not safe for concurrent use;
// callers serialize access the way they serialize block assembly.
type Aggregator struct {
	seed     []byte
	receipts []ShareReceipt
	sealed   bool
}

// NewAggregator starts a fresh aggregation keyed to seed, the per-block value
// mixed into stochastic rounding (§4.3).
func NewAggregator(seed []byte) *Aggregator {
	return &Aggregator{seed: append([]byte(nil), seed...)}
}

// AddIntegral admits a receipt whose micro-unit count is already known
// exactly (no rounding).
func (a *Aggregator) AddIntegral(typeID chaintypes.ProofType, nullifier codec.Digest32, microUnits uint64, metaFlags int) error {
	if a.sealed {
		return ErrAlreadySealed
	}
	r, err := newReceipt(typeID, nullifier, microUnits, metaFlags)
	if err != nil {
		return err
	}
	a.receipts = append(a.receipts, r)
	return nil
}

// AddFractional admits a receipt from a fractional contribution x, converting
// it to an integral micro-unit count via stochastic rounding keyed on the
// aggregator's seed, typeId, and nullifier (§4.3).
func (a *Aggregator) AddFractional(typeID chaintypes.ProofType, nullifier codec.Digest32, x float64, metaFlags int) error {
	if a.sealed {
		return ErrAlreadySealed
	}
	micro := stochasticRound(a.seed, typeID, nullifier, x)
	r, err := newReceipt(typeID, nullifier, micro, metaFlags)
	if err != nil {
		return err
	}
	a.receipts = append(a.receipts, r)
	return nil
}

// Receipts returns a defensive copy of the receipts admitted so far, in
// admission order (not the canonical sort order used by Finalize).
func (a *Aggregator) Receipts() []ShareReceipt {
	out := make([]ShareReceipt, len(a.receipts))
	copy(out, a.receipts)
	return out
}

// Finalize sorts the admitted receipts by (typeId, nullifier), computes the
// canonical list Merkle root over their leaf hashes, and freezes the
// aggregator against further admission. Calling Finalize more than once
// returns the same root deterministically.
func (a *Aggregator) Finalize() (codec.Digest32, Stats) {
	a.sealed = true

	sorted := make([]ShareReceipt, len(a.receipts))
	copy(sorted, a.receipts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TypeID != sorted[j].TypeID {
			return sorted[i].TypeID < sorted[j].TypeID
		}
		return bytesLess(sorted[i].Nullifier, sorted[j].Nullifier)
	})

	leafHashes := make([]codec.Digest32, len(sorted))
	var stats Stats
	for i, r := range sorted {
		leafHashes[i] = r.LeafHash()
		stats.Count++
		stats.TotalMicro += r.MicroUnits
		if int(r.TypeID) < len(stats.PerTypeMicro) {
			stats.PerTypeMicro[r.TypeID] += r.MicroUnits
			stats.PerTypeCount[r.TypeID]++
		}
	}

	root := codec.MerkleRootDigests(leafHashes)
	return root, stats
}

// Sealed reports whether Finalize has been called.
func (a *Aggregator) Sealed() bool { return a.sealed }

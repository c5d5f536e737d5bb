package p2p

import (
	"errors"
	"fmt"

	"github.com/animica-network/animica/chaintypes"
)

// ErrSanity wraps every rejection this file produces so callers can do a
// single errors.Is check before falling back to peer-scoring on the
// specific cause.
var ErrSanity = errors.New("p2p: sanity check failed")

func sanityErr(reason string) error {
	return fmt.Errorf("%w: %s", ErrSanity, reason)
}

// SanityHeader performs the cheap, stateless checks every header must pass
// before it is worth holding a lock or touching the validator (§4.12): a
// well-formed header decodes and validates in chaintypes already, so this
// only adds the admission-layer checks that construction alone doesn't
// enforce — non-zero chainId, a non-zero Θ, and a non-zero parentHash on
// every non-genesis header.
func SanityHeader(h chaintypes.Header) error {
	if h.ChainID == 0 {
		return sanityErr("zero chainId")
	}
	if h.ThetaMicro == 0 {
		return sanityErr("zero thetaMicro")
	}
	if !h.IsGenesis() && h.ParentHash.IsZero() {
		return sanityErr("non-genesis header with zero parentHash")
	}
	return nil
}

// SanityTx wraps Tx.SanityCheck, which already enforces chainId, gas limit,
// and signature-length invariants (§3.4); this exists so p2p callers have
// one consistent entrypoint across header/tx/block.
func SanityTx(tx chaintypes.Tx, expectedChainID uint64) error {
	if err := tx.SanityCheck(expectedChainID); err != nil {
		return fmt.Errorf("%w: %v", ErrSanity, err)
	}
	return nil
}

// SanityBlock checks the header and then the block's internal root
// consistency (§3.5): the relational checks a network-ingestion path can
// afford before queueing the block for full execution.
func SanityBlock(b chaintypes.Block, expectedChainID uint64) error {
	if err := SanityHeader(b.Header); err != nil {
		return err
	}
	if b.Header.ChainID != expectedChainID {
		return sanityErr("chainId mismatch")
	}
	for _, tx := range b.Txs {
		if err := SanityTx(tx, expectedChainID); err != nil {
			return err
		}
	}
	if err := b.VerifyAgainstHeader(); err != nil {
		return fmt.Errorf("%w: %v", ErrSanity, err)
	}
	return nil
}

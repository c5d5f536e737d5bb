package chaintypes

import (
	"fmt"

	"github.com/animica-network/animica/codec"
)

// Block bundles a header with the bodies whose roots it commits to (§3.4).
// Receipts are optional: a block may travel without them when the consumer
// only needs header-level validation.
type Block struct {
	Header   Header
	Txs      []Tx
	Proofs   []ProofEnvelope
	Receipts []Receipt // nil if not carried
}

// FromComponents builds a Block from its parts, optionally verifying the
// header's committed roots against the derived ones before returning
// (mirrors the Python from_components(..., verify=True) contract).
func FromComponents(header Header, txs []Tx, proofs []ProofEnvelope, receipts []Receipt, verify bool) (Block, error) {
	b := Block{Header: header, Txs: txs, Proofs: proofs, Receipts: receipts}
	if verify {
		if err := b.VerifyAgainstHeader(); err != nil {
			return Block{}, err
		}
	}
	return b, nil
}

// ID returns the block's identity, which is its header hash.
func (b Block) ID() codec.Digest32 { return b.Header.Hash() }

// TxsRoot computes the list-Merkle root over tx.Hash() leaves.
func (b Block) TxsRoot() (codec.Digest32, error) {
	leaves := make([][]byte, len(b.Txs))
	for i, tx := range b.Txs {
		h, err := tx.Hash()
		if err != nil {
			return codec.Digest32{}, fmt.Errorf("tx[%d]: %w", i, err)
		}
		leaves[i] = h.Bytes()
	}
	return codec.MerkleRoot(leaves), nil
}

// ProofsRoot computes the list-Merkle root over sha3_256(canonical_cbor(p))
// leaves, i.e. the full envelope bytes, per §3.4.
func (b Block) ProofsRoot() (codec.Digest32, error) {
	leaves := make([][]byte, len(b.Proofs))
	for i, p := range b.Proofs {
		enc, err := p.ToCBOR()
		if err != nil {
			return codec.Digest32{}, fmt.Errorf("proof[%d]: %w", i, err)
		}
		h := codec.SHA3_256(enc)
		leaves[i] = h.Bytes()
	}
	return codec.MerkleRoot(leaves), nil
}

// ReceiptsRoot computes the list-Merkle root over receipt.Hash() leaves. If
// Receipts is nil the block carries no receipts and this returns the empty
// root, matching the header's ReceiptsRoot convention for receipt-less
// blocks.
func (b Block) ReceiptsRoot() (codec.Digest32, error) {
	if b.Receipts == nil {
		return codec.MerkleRoot(nil), nil
	}
	if len(b.Receipts) != len(b.Txs) {
		return codec.Digest32{}, fmt.Errorf("%w: %d receipts for %d txs", ErrReceiptCountMismatch, len(b.Receipts), len(b.Txs))
	}
	leaves := make([][]byte, len(b.Receipts))
	for i, r := range b.Receipts {
		h, err := r.Hash()
		if err != nil {
			return codec.Digest32{}, fmt.Errorf("receipt[%d]: %w", i, err)
		}
		leaves[i] = h.Bytes()
	}
	return codec.MerkleRoot(leaves), nil
}

// VerifyAgainstHeader recomputes TxsRoot/ProofsRoot/ReceiptsRoot and
// compares them against the values committed in Header, returning
// ErrRootMismatch (wrapped with the offending root name) on any mismatch.
func (b Block) VerifyAgainstHeader() error {
	if b.Receipts != nil && len(b.Receipts) != len(b.Txs) {
		return fmt.Errorf("%w: %d receipts for %d txs", ErrReceiptCountMismatch, len(b.Receipts), len(b.Txs))
	}

	txsRoot, err := b.TxsRoot()
	if err != nil {
		return err
	}
	if txsRoot != b.Header.TxsRoot {
		return fmt.Errorf("%w: txsRoot", ErrRootMismatch)
	}

	proofsRoot, err := b.ProofsRoot()
	if err != nil {
		return err
	}
	if proofsRoot != b.Header.ProofsRoot {
		return fmt.Errorf("%w: proofsRoot", ErrRootMismatch)
	}

	receiptsRoot, err := b.ReceiptsRoot()
	if err != nil {
		return err
	}
	if receiptsRoot != b.Header.ReceiptsRoot {
		return fmt.Errorf("%w: receiptsRoot", ErrRootMismatch)
	}
	return nil
}

// Counts reports the body sizes, a non-consensus convenience for logging.
func (b Block) Counts() (txs, proofs, receipts int) {
	return len(b.Txs), len(b.Proofs), len(b.Receipts)
}

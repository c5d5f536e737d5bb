// Package mining builds work templates from chain state and scans nonce
// space for PoIES hash shares and blocks (§4.8-§4.9).
package mining

import (
	"fmt"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

// PoWDomainTag binds the scanner's header preimage to its own namespace,
// distinct from the signing domain a validator would use.
const PoWDomainTag = "animica/poies/pow-v1"

// Template is an immutable unit of scannable work: a header with everything
// but nonce fixed, plus the job identity the submitter reports back.
type Template struct {
	JobID      string
	Header     chaintypes.Header
	ThetaMicro uint64

	prefix []byte
}

// BuildTemplate packs txs/proofs into roots, leaves receiptsRoot zero
// (receipts only exist post-execution), and freezes the header preimage
// used for every nonce attempt against this job.
func BuildTemplate(jobID string, base chaintypes.Header, txs []chaintypes.Tx, proofs []chaintypes.ProofEnvelope) (Template, error) {
	txsRoot, err := txsRoot(txs)
	if err != nil {
		return Template{}, fmt.Errorf("mining: txsRoot: %w", err)
	}
	proofsRoot, err := proofsRoot(proofs)
	if err != nil {
		return Template{}, fmt.Errorf("mining: proofsRoot: %w", err)
	}

	h := base
	h.TxsRoot = txsRoot
	h.ProofsRoot = proofsRoot
	h.ReceiptsRoot = codec.Digest32{}
	h.Nonce = 0

	prefix, err := h.SigningPreimage([]byte(PoWDomainTag))
	if err != nil {
		return Template{}, fmt.Errorf("mining: header preimage: %w", err)
	}

	return Template{
		JobID:      jobID,
		Header:     h,
		ThetaMicro: h.ThetaMicro,
		prefix:     prefix,
	}, nil
}

// txsRoot mirrors chaintypes.Block.TxsRoot without requiring a full Block.
func txsRoot(txs []chaintypes.Tx) (codec.Digest32, error) {
	leaves := make([][]byte, len(txs))
	for i, tx := range txs {
		h, err := tx.Hash()
		if err != nil {
			return codec.Digest32{}, fmt.Errorf("tx[%d]: %w", i, err)
		}
		leaves[i] = h.Bytes()
	}
	return codec.MerkleRoot(leaves), nil
}

// proofsRoot mirrors chaintypes.Block.ProofsRoot: leaf = sha3_256(cbor(envelope)).
func proofsRoot(proofs []chaintypes.ProofEnvelope) (codec.Digest32, error) {
	leaves := make([][]byte, len(proofs))
	for i, p := range proofs {
		b, err := p.ToCBOR()
		if err != nil {
			return codec.Digest32{}, fmt.Errorf("proof[%d]: %w", i, err)
		}
		leaves[i] = codec.SHA3_256(b).Bytes()
	}
	return codec.MerkleRoot(leaves), nil
}

// HeaderPrefix returns the frozen, nonce-excluding preimage bytes this
// template's digests are computed over.
func (t Template) HeaderPrefix() []byte {
	out := make([]byte, len(t.prefix))
	copy(out, t.prefix)
	return out
}

// WithHeader rebuilds a Template around an updated header (new timestamp,
// parent, or Θ) while keeping the same job identity — used when a feeder
// refreshes a stale template in place rather than minting a new job id.
func (t Template) WithHeader(h chaintypes.Header) (Template, error) {
	prefix, err := h.SigningPreimage([]byte(PoWDomainTag))
	if err != nil {
		return Template{}, fmt.Errorf("mining: header preimage: %w", err)
	}
	t.Header = h
	t.ThetaMicro = h.ThetaMicro
	t.prefix = prefix
	return t, nil
}

package p2p

import "github.com/animica-network/animica/chaintypes"

// DecodeHeader decodes a wire header, validating its schema invariants
// (§6.1); network-layer callers never skip this even when they intend to
// discard the result, since it's also the cheapest place to reject garbage.
func DecodeHeader(b []byte) (chaintypes.Header, error) {
	return chaintypes.HeaderFromCBOR(b)
}

// DecodeTx decodes a wire transaction.
func DecodeTx(b []byte) (chaintypes.Tx, error) {
	return chaintypes.TxFromCBOR(b)
}

// DecodeBlock decodes a wire block: a header plus however many tx/proof/
// receipt CBOR blobs travel alongside it on the wire. Wire framing for the
// body lists is a transport concern (length-prefixed or gossip-message
// boundaries), so this operates on already-split blobs.
func DecodeBlock(headerBytes []byte, txBytes, proofBytes, receiptBytes [][]byte) (chaintypes.Block, error) {
	header, err := DecodeHeader(headerBytes)
	if err != nil {
		return chaintypes.Block{}, err
	}

	txs := make([]chaintypes.Tx, len(txBytes))
	for i, b := range txBytes {
		tx, err := DecodeTx(b)
		if err != nil {
			return chaintypes.Block{}, err
		}
		txs[i] = tx
	}

	proofs := make([]chaintypes.ProofEnvelope, len(proofBytes))
	for i, b := range proofBytes {
		env, err := chaintypes.ProofEnvelopeFromCBOR(b)
		if err != nil {
			return chaintypes.Block{}, err
		}
		proofs[i] = env
	}

	var receipts []chaintypes.Receipt
	if receiptBytes != nil {
		receipts = make([]chaintypes.Receipt, len(receiptBytes))
		for i, b := range receiptBytes {
			r, err := chaintypes.ReceiptFromCBOR(b)
			if err != nil {
				return chaintypes.Block{}, err
			}
			receipts[i] = r
		}
	}

	return chaintypes.FromComponents(header, txs, proofs, receipts, false)
}

package chaintypes

import "github.com/animica-network/animica/codec"

// ReceiptStatus mirrors the coarse execution outcome; this package does not
// interpret it beyond hashing and transport.
type ReceiptStatus uint8

const (
	ReceiptOK     ReceiptStatus = 0
	ReceiptFailed ReceiptStatus = 1
)

// Receipt is the canonical execution receipt paired 1:1 with a Tx when the
// block carries receipts (§3.4 receiptsRoot, optional).
type Receipt struct {
	V         uint8
	TxHash    codec.Digest32
	Status    ReceiptStatus
	GasUsed   uint64
	LogsHash  codec.Digest32 // sha3_256 of the canonical log stream, opaque here
	Output    []byte
}

type receiptCBOR struct {
	V        uint8  `cbor:"v"`
	TxHash   []byte `cbor:"txHash"`
	Status   uint8  `cbor:"status"`
	GasUsed  uint64 `cbor:"gasUsed"`
	LogsHash []byte `cbor:"logsHash"`
	Output   []byte `cbor:"output"`
}

func (r Receipt) toCBORView() receiptCBOR {
	return receiptCBOR{
		V: r.V, TxHash: r.TxHash.Bytes(), Status: uint8(r.Status),
		GasUsed: r.GasUsed, LogsHash: r.LogsHash.Bytes(), Output: r.Output,
	}
}

// ToCBOR canonically encodes r.
func (r Receipt) ToCBOR() ([]byte, error) {
	return codec.CanonicalCBOR(r.toCBORView())
}

// ReceiptFromCBOR decodes a receipt.
func ReceiptFromCBOR(b []byte) (Receipt, error) {
	var v receiptCBOR
	if err := codec.DecodeCBORStrict(b, &v); err != nil {
		return Receipt{}, err
	}
	txHash, err := codec.BytesToDigest32(v.TxHash)
	if err != nil {
		return Receipt{}, err
	}
	logsHash, err := codec.BytesToDigest32(v.LogsHash)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{
		V: v.V, TxHash: txHash, Status: ReceiptStatus(v.Status),
		GasUsed: v.GasUsed, LogsHash: logsHash, Output: v.Output,
	}, nil
}

// Hash is sha3_256(canonical_cbor(receipt)), the leaf identity used by
// receiptsRoot.
func (r Receipt) Hash() (codec.Digest32, error) {
	b, err := r.ToCBOR()
	if err != nil {
		return codec.Digest32{}, err
	}
	return codec.SHA3_256(b), nil
}

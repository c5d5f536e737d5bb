package chaintypes

import (
	"fmt"

	"github.com/animica-network/animica/codec"
)

// TxKind discriminates the transaction shapes this core recognizes at the
// envelope level. Bodies of Deploy/Call are opaque to this package, mirroring
// how proof bodies are opaque (§1 scope: execution semantics live in the
// chain executor, out of scope here).
type TxKind uint8

const (
	TxTransfer TxKind = 0
	TxDeploy   TxKind = 1
	TxCall     TxKind = 2
)

// Tx is the canonical transaction envelope.
type Tx struct {
	V         uint8
	ChainID   uint64
	Kind      TxKind
	Nonce     uint64
	From      []byte // PQ address payload (alg_id || sha3_256(pk)), bech32m-decoded
	To        []byte // empty for contract deploy
	Value     uint64
	GasLimit  uint64
	GasPrice  uint64
	Data      []byte
	Signature []byte // PQ signature envelope bytes, see pq.SignatureEnvelope
}

type txCBOR struct {
	V         uint8  `cbor:"v"`
	ChainID   uint64 `cbor:"chainId"`
	Kind      uint8  `cbor:"kind"`
	Nonce     uint64 `cbor:"nonce"`
	From      []byte `cbor:"from"`
	To        []byte `cbor:"to"`
	Value     uint64 `cbor:"value"`
	GasLimit  uint64 `cbor:"gasLimit"`
	GasPrice  uint64 `cbor:"gasPrice"`
	Data      []byte `cbor:"data"`
	Signature []byte `cbor:"signature"`
}

func (t Tx) toCBORView() txCBOR {
	return txCBOR{
		V: t.V, ChainID: t.ChainID, Kind: uint8(t.Kind), Nonce: t.Nonce,
		From: t.From, To: t.To, Value: t.Value, GasLimit: t.GasLimit,
		GasPrice: t.GasPrice, Data: t.Data, Signature: t.Signature,
	}
}

// ToCBOR canonically encodes t.
func (t Tx) ToCBOR() ([]byte, error) {
	return codec.CanonicalCBOR(t.toCBORView())
}

// TxFromCBOR decodes a transaction.
func TxFromCBOR(b []byte) (Tx, error) {
	var v txCBOR
	if err := codec.DecodeCBORStrict(b, &v); err != nil {
		return Tx{}, err
	}
	return Tx{
		V: v.V, ChainID: v.ChainID, Kind: TxKind(v.Kind), Nonce: v.Nonce,
		From: v.From, To: v.To, Value: v.Value, GasLimit: v.GasLimit,
		GasPrice: v.GasPrice, Data: v.Data, Signature: v.Signature,
	}, nil
}

// Hash is sha3_256(canonical_cbor(tx)), the leaf identity used by txsRoot.
func (t Tx) Hash() (codec.Digest32, error) {
	b, err := t.ToCBOR()
	if err != nil {
		return codec.Digest32{}, err
	}
	return codec.SHA3_256(b), nil
}

// SanityCheck applies the cheap pre-admission checks of §4.12: chainId match
// (if expectedChainID is non-zero), nonce well-formed (trivially true for
// unsigned uint64), gasLimit>0, signature bytes>=64.
func (t Tx) SanityCheck(expectedChainID uint64) error {
	if expectedChainID != 0 && t.ChainID != expectedChainID {
		return fmt.Errorf("%w: tx chainId %d, want %d", ErrChainIDMismatch, t.ChainID, expectedChainID)
	}
	if t.GasLimit == 0 {
		return fmt.Errorf("%w: gasLimit must be > 0", ErrBadEnvelope)
	}
	if len(t.Signature) < 64 {
		return fmt.Errorf("%w: signature must be >= 64 bytes, got %d", ErrBadEnvelope, len(t.Signature))
	}
	return nil
}

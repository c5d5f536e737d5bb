// Package chaintypes defines the canonical data model every Animica
// subsystem observes: Header, Block, Tx, Receipt, ProofEnvelope, and
// ChainParams. Containers expose to_obj/from_obj-equivalent CBOR round
// trips and enforce their size invariants at construction and decode time.
package chaintypes

import (
	"fmt"

	"github.com/animica-network/animica/codec"
)

// HeaderVersion is the only schema version this core understands.
const HeaderVersion = 1

// MaxExtraLen bounds Header.Extra so headers stay cheap to gossip.
const MaxExtraLen = 4096

// Header is the consensus-critical block header (schema version 1, §3.2).
type Header struct {
	V               uint8
	ChainID         uint64
	Height          uint64
	ParentHash      codec.Digest32
	Timestamp       uint64
	StateRoot       codec.Digest32
	TxsRoot         codec.Digest32
	ReceiptsRoot    codec.Digest32
	ProofsRoot      codec.Digest32
	DARoot          codec.Digest32
	MixSeed         codec.Digest32
	PoiesPolicyRoot codec.Digest32
	PQAlgPolicyRoot codec.Digest32
	ThetaMicro      uint64
	Nonce           uint64
	Extra           []byte
}

// headerCBOR mirrors Header field-for-field; fxamacker/cbor encodes struct
// fields in declaration order, which together with CanonicalCBOR's sorted
// map-key mode gives us the deterministic layout §4.1 and §6.1 require.
type headerCBOR struct {
	V               uint8  `cbor:"v"`
	ChainID         uint64 `cbor:"chainId"`
	Height          uint64 `cbor:"height"`
	ParentHash      []byte `cbor:"parentHash"`
	Timestamp       uint64 `cbor:"timestamp"`
	StateRoot       []byte `cbor:"stateRoot"`
	TxsRoot         []byte `cbor:"txsRoot"`
	ReceiptsRoot    []byte `cbor:"receiptsRoot"`
	ProofsRoot      []byte `cbor:"proofsRoot"`
	DARoot          []byte `cbor:"daRoot"`
	MixSeed         []byte `cbor:"mixSeed"`
	PoiesPolicyRoot []byte `cbor:"poiesPolicyRoot"`
	PQAlgPolicyRoot []byte `cbor:"pqAlgPolicyRoot"`
	ThetaMicro      uint64 `cbor:"thetaMicro"`
	Nonce           uint64 `cbor:"nonce"`
	Extra           []byte `cbor:"extra"`
}

// headerSigningCBOR is the nonce-excluding signing preimage view (§3.2).
type headerSigningCBOR struct {
	V               uint8  `cbor:"v"`
	ChainID         uint64 `cbor:"chainId"`
	Height          uint64 `cbor:"height"`
	ParentHash      []byte `cbor:"parentHash"`
	Timestamp       uint64 `cbor:"timestamp"`
	StateRoot       []byte `cbor:"stateRoot"`
	TxsRoot         []byte `cbor:"txsRoot"`
	ReceiptsRoot    []byte `cbor:"receiptsRoot"`
	ProofsRoot      []byte `cbor:"proofsRoot"`
	DARoot          []byte `cbor:"daRoot"`
	MixSeed         []byte `cbor:"mixSeed"`
	PoiesPolicyRoot []byte `cbor:"poiesPolicyRoot"`
	PQAlgPolicyRoot []byte `cbor:"pqAlgPolicyRoot"`
	ThetaMicro      uint64 `cbor:"thetaMicro"`
	Extra           []byte `cbor:"extra"`
	DomainTag       []byte `cbor:"domainTag"`
}

func (h Header) toCBORView() headerCBOR {
	return headerCBOR{
		V: h.V, ChainID: h.ChainID, Height: h.Height,
		ParentHash: h.ParentHash.Bytes(), Timestamp: h.Timestamp,
		StateRoot: h.StateRoot.Bytes(), TxsRoot: h.TxsRoot.Bytes(),
		ReceiptsRoot: h.ReceiptsRoot.Bytes(), ProofsRoot: h.ProofsRoot.Bytes(),
		DARoot: h.DARoot.Bytes(), MixSeed: h.MixSeed.Bytes(),
		PoiesPolicyRoot: h.PoiesPolicyRoot.Bytes(), PQAlgPolicyRoot: h.PQAlgPolicyRoot.Bytes(),
		ThetaMicro: h.ThetaMicro, Nonce: h.Nonce, Extra: h.Extra,
	}
}

// validate enforces the 32-byte digest invariants and the extra-length bound.
func (h Header) validate() error {
	if h.V != HeaderVersion {
		return fmt.Errorf("%w: header version %d, want %d", ErrHeaderVersionUnsupported, h.V, HeaderVersion)
	}
	if len(h.Extra) > MaxExtraLen {
		return fmt.Errorf("%w: extra field of %d bytes exceeds bound %d", codec.ErrInvalidLength, len(h.Extra), MaxExtraLen)
	}
	return nil
}

// GenesisParams bundles the fields Header.Genesis needs beyond the fixed
// zero/height/nonce values.
type GenesisParams struct {
	ChainID         uint64
	Timestamp       uint64
	StateRoot       codec.Digest32
	TxsRoot         codec.Digest32
	ReceiptsRoot    codec.Digest32
	ProofsRoot      codec.Digest32
	DARoot          codec.Digest32
	MixSeed         codec.Digest32
	PoiesPolicyRoot codec.Digest32
	PQAlgPolicyRoot codec.Digest32
	ThetaMicro      uint64
	Extra           []byte
}

// Genesis builds the deterministic genesis header: height=0, parentHash
// all-zero, nonce=0.
func Genesis(p GenesisParams) (Header, error) {
	h := Header{
		V: HeaderVersion, ChainID: p.ChainID, Height: 0,
		ParentHash: codec.Digest32{}, Timestamp: p.Timestamp,
		StateRoot: p.StateRoot, TxsRoot: p.TxsRoot, ReceiptsRoot: p.ReceiptsRoot,
		ProofsRoot: p.ProofsRoot, DARoot: p.DARoot, MixSeed: p.MixSeed,
		PoiesPolicyRoot: p.PoiesPolicyRoot, PQAlgPolicyRoot: p.PQAlgPolicyRoot,
		ThetaMicro: p.ThetaMicro, Nonce: 0, Extra: p.Extra,
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// ChildParams bundles the fields BuildChild needs; zero-value roots mean
// "inherit from parent" for mixSeed/policy roots/theta, matching the
// reference header_packer's template-carry-forward behavior.
type ChildParams struct {
	Timestamp       uint64
	StateRoot       codec.Digest32
	TxsRoot         codec.Digest32
	ReceiptsRoot    codec.Digest32
	ProofsRoot      codec.Digest32
	DARoot          codec.Digest32
	MixSeed         *codec.Digest32
	PoiesPolicyRoot *codec.Digest32
	PQAlgPolicyRoot *codec.Digest32
	ThetaMicro      *uint64
	Nonce           uint64
	Extra           []byte
}

// BuildChild constructs a child header template whose parentHash is the
// hash of h.
func (h Header) BuildChild(p ChildParams) (Header, error) {
	child := Header{
		V: h.V, ChainID: h.ChainID, Height: h.Height + 1,
		ParentHash: h.Hash(), Timestamp: p.Timestamp,
		StateRoot: p.StateRoot, TxsRoot: p.TxsRoot, ReceiptsRoot: p.ReceiptsRoot,
		ProofsRoot: p.ProofsRoot, DARoot: p.DARoot,
		MixSeed:         derefOr(p.MixSeed, h.MixSeed),
		PoiesPolicyRoot: derefOr(p.PoiesPolicyRoot, h.PoiesPolicyRoot),
		PQAlgPolicyRoot: derefOr(p.PQAlgPolicyRoot, h.PQAlgPolicyRoot),
		ThetaMicro:      derefOrU64(p.ThetaMicro, h.ThetaMicro),
		Nonce:           p.Nonce,
		Extra:           p.Extra,
	}
	if err := child.validate(); err != nil {
		return Header{}, err
	}
	return child, nil
}

func derefOr(p *codec.Digest32, fallback codec.Digest32) codec.Digest32 {
	if p != nil {
		return *p
	}
	return fallback
}

func derefOrU64(p *uint64, fallback uint64) uint64 {
	if p != nil {
		return *p
	}
	return fallback
}

// IsGenesis reports whether h satisfies the genesis invariants.
func (h Header) IsGenesis() bool {
	return h.Height == 0 && h.ParentHash.IsZero() && h.Nonce == 0
}

// ToCBOR serializes the full header, nonce included.
func (h Header) ToCBOR() ([]byte, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	return codec.CanonicalCBOR(h.toCBORView())
}

// HeaderFromCBOR decodes and validates a header.
func HeaderFromCBOR(b []byte) (Header, error) {
	var v headerCBOR
	if err := codec.DecodeCBORStrict(b, &v); err != nil {
		return Header{}, err
	}
	parentHash, err := codec.BytesToDigest32(v.ParentHash)
	if err != nil {
		return Header{}, err
	}
	stateRoot, err := codec.BytesToDigest32(v.StateRoot)
	if err != nil {
		return Header{}, err
	}
	txsRoot, err := codec.BytesToDigest32(v.TxsRoot)
	if err != nil {
		return Header{}, err
	}
	receiptsRoot, err := codec.BytesToDigest32(v.ReceiptsRoot)
	if err != nil {
		return Header{}, err
	}
	proofsRoot, err := codec.BytesToDigest32(v.ProofsRoot)
	if err != nil {
		return Header{}, err
	}
	daRoot, err := codec.BytesToDigest32(v.DARoot)
	if err != nil {
		return Header{}, err
	}
	mixSeed, err := codec.BytesToDigest32(v.MixSeed)
	if err != nil {
		return Header{}, err
	}
	poiesPolicyRoot, err := codec.BytesToDigest32(v.PoiesPolicyRoot)
	if err != nil {
		return Header{}, err
	}
	pqAlgPolicyRoot, err := codec.BytesToDigest32(v.PQAlgPolicyRoot)
	if err != nil {
		return Header{}, err
	}
	h := Header{
		V: v.V, ChainID: v.ChainID, Height: v.Height, ParentHash: parentHash,
		Timestamp: v.Timestamp, StateRoot: stateRoot, TxsRoot: txsRoot,
		ReceiptsRoot: receiptsRoot, ProofsRoot: proofsRoot, DARoot: daRoot,
		MixSeed: mixSeed, PoiesPolicyRoot: poiesPolicyRoot, PQAlgPolicyRoot: pqAlgPolicyRoot,
		ThetaMicro: v.ThetaMicro, Nonce: v.Nonce, Extra: v.Extra,
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Hash is the consensus block id: sha3_256(canonical_cbor(header)).
func (h Header) Hash() codec.Digest32 {
	b, err := h.ToCBOR()
	if err != nil {
		// validate() is re-checked by ToCBOR; a Header that passed
		// construction-time validation cannot fail here.
		panic(fmt.Errorf("chaintypes: hash of invalid header: %w", err))
	}
	return codec.SHA3_256(b)
}

// SigningPreimage returns the canonical CBOR preimage used for the PoW
// u-draw domain: every header field except nonce, plus domainTag.
func (h Header) SigningPreimage(domainTag []byte) ([]byte, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	view := headerSigningCBOR{
		V: h.V, ChainID: h.ChainID, Height: h.Height,
		ParentHash: h.ParentHash.Bytes(), Timestamp: h.Timestamp,
		StateRoot: h.StateRoot.Bytes(), TxsRoot: h.TxsRoot.Bytes(),
		ReceiptsRoot: h.ReceiptsRoot.Bytes(), ProofsRoot: h.ProofsRoot.Bytes(),
		DARoot: h.DARoot.Bytes(), MixSeed: h.MixSeed.Bytes(),
		PoiesPolicyRoot: h.PoiesPolicyRoot.Bytes(), PQAlgPolicyRoot: h.PQAlgPolicyRoot.Bytes(),
		ThetaMicro: h.ThetaMicro, Extra: h.Extra, DomainTag: domainTag,
	}
	return codec.CanonicalCBOR(view)
}

// WithNonce returns a copy of h with a different nonce.
func (h Header) WithNonce(nonce uint64) Header {
	h.Nonce = nonce
	return h
}

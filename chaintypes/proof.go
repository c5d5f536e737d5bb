package chaintypes

import (
	"fmt"

	"github.com/animica-network/animica/codec"
)

// ProofType enumerates the five typed proof-envelope kinds (§3.3, §3.6).
// The numeric ordering is stable across deployments and must not change.
type ProofType uint8

const (
	ProofHashShare ProofType = 0
	ProofAI        ProofType = 1
	ProofQuantum   ProofType = 2
	ProofStorage   ProofType = 3
	ProofVDF       ProofType = 4
)

func (t ProofType) Valid() bool { return t <= ProofVDF }

func (t ProofType) String() string {
	switch t {
	case ProofHashShare:
		return "hash_share"
	case ProofAI:
		return "ai"
	case ProofQuantum:
		return "quantum"
	case ProofStorage:
		return "storage"
	case ProofVDF:
		return "vdf"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ProofEnvelope is the type-agnostic container every proof kind travels in
// (§3.3). The body is opaque CBOR whose schema depends on TypeID; this
// package never parses it.
type ProofEnvelope struct {
	V         uint8
	TypeID    ProofType
	Nullifier codec.Digest32
	Body      []byte
}

type proofEnvelopeCBOR struct {
	V         uint8  `cbor:"v"`
	TypeID    uint8  `cbor:"typeId"`
	Nullifier []byte `cbor:"nullifier"`
	Body      []byte `cbor:"body"`
}

// NewProofEnvelope constructs and validates an envelope.
func NewProofEnvelope(typeID ProofType, nullifier codec.Digest32, body []byte) (ProofEnvelope, error) {
	if !typeID.Valid() {
		return ProofEnvelope{}, fmt.Errorf("%w: %d", ErrUnknownType, typeID)
	}
	return ProofEnvelope{V: 1, TypeID: typeID, Nullifier: nullifier, Body: body}, nil
}

func (p ProofEnvelope) ToCBOR() ([]byte, error) {
	if !p.TypeID.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, p.TypeID)
	}
	return codec.CanonicalCBOR(proofEnvelopeCBOR{
		V: p.V, TypeID: uint8(p.TypeID), Nullifier: p.Nullifier.Bytes(), Body: p.Body,
	})
}

func ProofEnvelopeFromCBOR(b []byte) (ProofEnvelope, error) {
	var v proofEnvelopeCBOR
	if err := codec.DecodeCBORStrict(b, &v); err != nil {
		return ProofEnvelope{}, err
	}
	if v.V != 1 {
		return ProofEnvelope{}, fmt.Errorf("%w: envelope version %d", ErrBadEnvelope, v.V)
	}
	nullifier, err := codec.BytesToDigest32(v.Nullifier)
	if err != nil {
		return ProofEnvelope{}, err
	}
	t := ProofType(v.TypeID)
	if !t.Valid() {
		return ProofEnvelope{}, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
	return ProofEnvelope{V: v.V, TypeID: t, Nullifier: nullifier, Body: v.Body}, nil
}

// BodyHash returns sha3_256(body).
func (p ProofEnvelope) BodyHash() codec.Digest32 { return codec.SHA3_256(p.Body) }

// Identifier returns sha3_256(typeId || nullifier || sha3_256(body)), the
// convenience dedupe identifier defined in §3.3.
func (p ProofEnvelope) Identifier() codec.Digest32 {
	bodyHash := p.BodyHash()
	return codec.SHA3_256([]byte{byte(p.TypeID)}, p.Nullifier[:], bodyHash[:])
}

// typed wrapper enforcing a single envelope kind; the five concrete
// aliases below just fix TypeID (§3.3 "never parse the body").

// HashShare wraps a HASH_SHARE envelope.
type HashShare struct{ Envelope ProofEnvelope }

// AIProofRef wraps an AI-job envelope.
type AIProofRef struct{ Envelope ProofEnvelope }

// QuantumProofRef wraps a quantum-job envelope.
type QuantumProofRef struct{ Envelope ProofEnvelope }

// StorageHeartbeat wraps a proof-of-storage heartbeat envelope.
type StorageHeartbeat struct{ Envelope ProofEnvelope }

// VDFProofRef wraps a VDF-proof envelope.
type VDFProofRef struct{ Envelope ProofEnvelope }

// NewHashShare validates TypeID before wrapping.
func NewHashShare(e ProofEnvelope) (HashShare, error) {
	if e.TypeID != ProofHashShare {
		return HashShare{}, fmt.Errorf("%w: HashShare requires type_id=%d, got %d", ErrBadEnvelope, ProofHashShare, e.TypeID)
	}
	return HashShare{Envelope: e}, nil
}

func NewAIProofRef(e ProofEnvelope) (AIProofRef, error) {
	if e.TypeID != ProofAI {
		return AIProofRef{}, fmt.Errorf("%w: AIProofRef requires type_id=%d, got %d", ErrBadEnvelope, ProofAI, e.TypeID)
	}
	return AIProofRef{Envelope: e}, nil
}

func NewQuantumProofRef(e ProofEnvelope) (QuantumProofRef, error) {
	if e.TypeID != ProofQuantum {
		return QuantumProofRef{}, fmt.Errorf("%w: QuantumProofRef requires type_id=%d, got %d", ErrBadEnvelope, ProofQuantum, e.TypeID)
	}
	return QuantumProofRef{Envelope: e}, nil
}

func NewStorageHeartbeat(e ProofEnvelope) (StorageHeartbeat, error) {
	if e.TypeID != ProofStorage {
		return StorageHeartbeat{}, fmt.Errorf("%w: StorageHeartbeat requires type_id=%d, got %d", ErrBadEnvelope, ProofStorage, e.TypeID)
	}
	return StorageHeartbeat{Envelope: e}, nil
}

func NewVDFProofRef(e ProofEnvelope) (VDFProofRef, error) {
	if e.TypeID != ProofVDF {
		return VDFProofRef{}, fmt.Errorf("%w: VDFProofRef requires type_id=%d, got %d", ErrBadEnvelope, ProofVDF, e.TypeID)
	}
	return VDFProofRef{Envelope: e}, nil
}

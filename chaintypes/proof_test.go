package chaintypes

import (
	"testing"

	"github.com/animica-network/animica/codec"
)

func TestProofEnvelopeCBORRoundTrip(t *testing.T) {
	p := sampleProof(7)
	enc, err := p.ToCBOR()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := ProofEnvelopeFromCBOR(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Identifier() != p.Identifier() {
		t.Fatalf("round-tripped envelope identifier mismatch")
	}
}

func TestProofEnvelopeRejectsUnknownType(t *testing.T) {
	var nullifier codec.Digest32
	if _, err := NewProofEnvelope(ProofType(200), nullifier, nil); err == nil {
		t.Fatalf("expected unknown type rejection")
	}
}

func TestTypedWrapperRejectsMismatchedType(t *testing.T) {
	p := sampleProof(1) // ProofHashShare
	if _, err := NewAIProofRef(p); err == nil {
		t.Fatalf("expected type mismatch rejection for AIProofRef")
	}
	if _, err := NewHashShare(p); err != nil {
		t.Fatalf("expected HashShare construction to succeed: %v", err)
	}
}

func TestProofIdentifierDependsOnNullifier(t *testing.T) {
	a := sampleProof(1)
	b := sampleProof(2)
	if a.Identifier() == b.Identifier() {
		t.Fatalf("distinct nullifiers must yield distinct identifiers")
	}
}

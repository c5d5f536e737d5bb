package p2p

import (
	"errors"
	"testing"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

func sampleEnvelopeBytes(t *testing.T, nullifierByte byte) []byte {
	t.Helper()
	var n codec.Digest32
	n[0] = nullifierByte
	env, err := chaintypes.NewProofEnvelope(chaintypes.ProofHashShare, n, []byte("body"))
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	enc, err := env.ToCBOR()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return enc
}

func TestIngestEnvelopeAccepts(t *testing.T) {
	raw := sampleEnvelopeBytes(t, 1)
	env, err := IngestEnvelope(raw, NewSeenSet())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if env.Nullifier.IsZero() {
		t.Fatalf("expected non-zero nullifier")
	}
}

func TestIngestEnvelopeRejectsOversize(t *testing.T) {
	raw := make([]byte, MaxEnvelopeBytes+1)
	_, err := IngestEnvelope(raw, NewSeenSet())
	var re RejectedEnvelope
	if !errors.As(err, &re) || re.Reason != ReasonOversize {
		t.Fatalf("expected oversize rejection, got %v", err)
	}
}

func TestIngestEnvelopeRejectsDecodeFailure(t *testing.T) {
	_, err := IngestEnvelope([]byte("garbage"), NewSeenSet())
	var re RejectedEnvelope
	if !errors.As(err, &re) {
		t.Fatalf("expected a RejectedEnvelope, got %v", err)
	}
}

func TestIngestEnvelopeRejectsMissingNullifier(t *testing.T) {
	env, err := chaintypes.NewProofEnvelope(chaintypes.ProofHashShare, codec.Digest32{}, []byte("body"))
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	enc, err := env.ToCBOR()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, err = IngestEnvelope(enc, NewSeenSet())
	var re RejectedEnvelope
	if !errors.As(err, &re) || re.Reason != ReasonMissingNullifier {
		t.Fatalf("expected missing-nullifier rejection, got %v", err)
	}
}

func TestIngestEnvelopeRejectsDuplicateNullifier(t *testing.T) {
	raw := sampleEnvelopeBytes(t, 7)
	seen := NewSeenSet()
	if _, err := IngestEnvelope(raw, seen); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	_, err := IngestEnvelope(raw, seen)
	var re RejectedEnvelope
	if !errors.As(err, &re) || re.Reason != ReasonDuplicateNullifier {
		t.Fatalf("expected duplicate-nullifier rejection, got %v", err)
	}
}

package shares

import (
	"bytes"
	"testing"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

func nullifierOf(b byte) codec.Digest32 {
	var d codec.Digest32
	for i := range d {
		d[i] = b
	}
	return d
}

func TestLeafBytesLayout(t *testing.T) {
	r := ShareReceipt{TypeID: chaintypes.ProofAI, Nullifier: nullifierOf(0x22), MicroUnits: 3, MetaFlags: 0}
	got := r.LeafBytes()

	want := []byte{'S', 'R', 0x01, byte(chaintypes.ProofAI), 0}
	want = append(want, codec.U64BE(3)...)
	want = append(want, nullifierOf(0x22).Bytes()...)

	if !bytes.Equal(got, want) {
		t.Fatalf("leaf bytes mismatch:\n got %x\nwant %x", got, want)
	}
}

func TestStochasticRoundDeterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, 32)
	null := nullifierOf(0x11)
	a := stochasticRound(seed, chaintypes.ProofHashShare, null, 1.25)
	b := stochasticRound(seed, chaintypes.ProofHashShare, null, 1.25)
	if a != b {
		t.Fatalf("stochastic rounding must be deterministic for fixed inputs, got %d vs %d", a, b)
	}
	// frac(1.25) = 0.25, so rounding up only ever adds at most 1 share.
	if a != 1 && a != 2 {
		t.Fatalf("micro for x=1.25 must be floor(x) or floor(x)+1, got %d", a)
	}
}

func TestStochasticRoundNonPositiveIsZero(t *testing.T) {
	seed := bytes.Repeat([]byte{0x02}, 32)
	null := nullifierOf(0x33)
	if got := stochasticRound(seed, chaintypes.ProofAI, null, 0); got != 0 {
		t.Fatalf("x=0 must round to 0, got %d", got)
	}
	if got := stochasticRound(seed, chaintypes.ProofAI, null, -5); got != 0 {
		t.Fatalf("negative x must round to 0, got %d", got)
	}
}

func TestStochasticRoundVariesByNullifier(t *testing.T) {
	seed := bytes.Repeat([]byte{0x01}, 32)
	a := stochasticRound(seed, chaintypes.ProofHashShare, nullifierOf(0x11), 1.5)
	b := stochasticRound(seed, chaintypes.ProofHashShare, nullifierOf(0xAA), 1.5)
	// Not asserting inequality (they could coincidentally match); this just
	// exercises that both nullifiers produce a valid, bounded result.
	if a != 1 && a != 2 {
		t.Fatalf("micro out of bounds: %d", a)
	}
	if b != 1 && b != 2 {
		t.Fatalf("micro out of bounds: %d", b)
	}
}

package chaintypes

import "testing"

func TestGenesisInvariants(t *testing.T) {
	g, err := Genesis(GenesisParams{
		ChainID:    7,
		Timestamp:  1_700_000_000,
		ThetaMicro: 500_000,
	})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if !g.IsGenesis() {
		t.Fatalf("expected IsGenesis true")
	}
	if g.Height != 0 || g.Nonce != 0 {
		t.Fatalf("genesis height/nonce must be zero")
	}
	if !g.ParentHash.IsZero() {
		t.Fatalf("genesis parentHash must be zero")
	}
}

func TestBuildChildChainsParentHash(t *testing.T) {
	g, err := Genesis(GenesisParams{ChainID: 1, Timestamp: 100})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	child, err := g.BuildChild(ChildParams{Timestamp: 200, Nonce: 42})
	if err != nil {
		t.Fatalf("build child: %v", err)
	}
	if child.Height != 1 {
		t.Fatalf("child height = %d, want 1", child.Height)
	}
	if child.ParentHash != g.Hash() {
		t.Fatalf("child parentHash does not match genesis hash")
	}
}

func TestBuildChildInheritsThetaWhenNil(t *testing.T) {
	g, err := Genesis(GenesisParams{ChainID: 1, Timestamp: 100, ThetaMicro: 900_000})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	child, err := g.BuildChild(ChildParams{Timestamp: 200})
	if err != nil {
		t.Fatalf("build child: %v", err)
	}
	if child.ThetaMicro != 900_000 {
		t.Fatalf("child ThetaMicro = %d, want inherited 900000", child.ThetaMicro)
	}
}

func TestHeaderCBORRoundTrip(t *testing.T) {
	g, err := Genesis(GenesisParams{ChainID: 9, Timestamp: 123, ThetaMicro: 1})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	enc, err := g.ToCBOR()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := HeaderFromCBOR(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Hash() != g.Hash() {
		t.Fatalf("round-tripped header hash mismatch")
	}
}

func TestHeaderRejectsUnsupportedVersion(t *testing.T) {
	h := Header{V: 2, ChainID: 1}
	if _, err := h.ToCBOR(); err == nil {
		t.Fatalf("expected unsupported version rejection")
	}
}

func TestHeaderRejectsOversizeExtra(t *testing.T) {
	h := Header{V: HeaderVersion, Extra: make([]byte, MaxExtraLen+1)}
	if _, err := h.ToCBOR(); err == nil {
		t.Fatalf("expected oversize extra rejection")
	}
}

func TestSigningPreimageExcludesNonce(t *testing.T) {
	g, err := Genesis(GenesisParams{ChainID: 3, Timestamp: 1})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	a, err := g.SigningPreimage([]byte("tag"))
	if err != nil {
		t.Fatalf("preimage: %v", err)
	}
	b, err := g.WithNonce(999).SigningPreimage([]byte("tag"))
	if err != nil {
		t.Fatalf("preimage: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("signing preimage must be nonce-independent")
	}
}

package pq

import "testing"

func TestMLKEM768EncapsulateDecapsulateRoundTrip(t *testing.T) {
	r := DefaultRegistry()
	alg, err := r.ByID(AlgMLKEM768)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	pk, sk, err := KEMKeypair(alg)
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	ct, ssEnc, err := KEMEncapsulate(alg, pk)
	if err != nil {
		t.Fatalf("encapsulate: %v", err)
	}
	if len(ssEnc) != 32 {
		t.Fatalf("shared secret must be 32 bytes, got %d", len(ssEnc))
	}

	ssDec, err := KEMDecapsulate(alg, sk, ct)
	if err != nil {
		t.Fatalf("decapsulate: %v", err)
	}
	if string(ssEnc) != string(ssDec) {
		t.Fatalf("decapsulated shared secret must match encapsulated one")
	}
}

func TestKEMRejectsSignatureAlgorithm(t *testing.T) {
	r := DefaultRegistry()
	alg, _ := r.ByID(AlgDilithium3)
	if _, _, err := KEMKeypair(alg); err == nil {
		t.Fatalf("expected rejection of a signature algorithm in KEM path")
	}
}

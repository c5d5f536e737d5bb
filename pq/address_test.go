package pq

import "testing"

func TestDeriveAddressRoundTrip(t *testing.T) {
	pk := make([]byte, 48)
	for i := range pk {
		pk[i] = byte(i)
	}
	addr, err := DeriveAddress(AlgDilithium3, pk)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	algID, _, err := DecodeAddress(addr)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if algID != AlgDilithium3 {
		t.Fatalf("algID mismatch: got %#x want %#x", algID, AlgDilithium3)
	}
}

func TestDeriveAddressDeterministic(t *testing.T) {
	pk := []byte("a fixed public key for testing")
	a, err := DeriveAddress(AlgMLKEM768, pk)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := DeriveAddress(AlgMLKEM768, pk)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if a != b {
		t.Fatalf("address derivation must be deterministic")
	}
}

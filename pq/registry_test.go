package pq

import "testing"

func TestDefaultRegistryLookups(t *testing.T) {
	r := DefaultRegistry()

	dil, err := r.ByName("Dilithium3")
	if err != nil {
		t.Fatalf("lookup by name: %v", err)
	}
	if dil.ID != AlgDilithium3 || dil.Kind != KindSig {
		t.Fatalf("unexpected Dilithium3 metadata: %+v", dil)
	}

	byID, err := r.ByID(AlgMLKEM768)
	if err != nil {
		t.Fatalf("lookup by id: %v", err)
	}
	if byID.Name != "ML-KEM-768" || byID.Kind != KindKEM {
		t.Fatalf("unexpected ML-KEM-768 metadata: %+v", byID)
	}

	sigDef, err := r.DefaultSig()
	if err != nil || sigDef.ID != AlgDilithium3 {
		t.Fatalf("default sig should be Dilithium3, got %+v err=%v", sigDef, err)
	}
	kemDef, err := r.DefaultKEM()
	if err != nil || kemDef.ID != AlgMLKEM768 {
		t.Fatalf("default kem should be ML-KEM-768, got %+v err=%v", kemDef, err)
	}
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(AlgMeta{ID: 1, Name: "a", Kind: KindSig}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(AlgMeta{ID: 1, Name: "b", Kind: KindSig}); err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
}

func TestRegistryRejectsKindCollision(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(AlgMeta{ID: 5, Name: "sig-alg", Kind: KindSig}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(AlgMeta{ID: 5, Name: "kem-alg", Kind: KindKEM}); err == nil {
		t.Fatalf("expected sig/kem id collision rejection")
	}
}

func TestRegistryUnknownLookup(t *testing.T) {
	r := NewRegistry()
	if _, err := r.ByID(999); err == nil {
		t.Fatalf("expected unknown id rejection")
	}
	if _, err := r.ByName("nope"); err == nil {
		t.Fatalf("expected unknown name rejection")
	}
}

package state

import "testing"

func TestRootEmptyIsDomainTag(t *testing.T) {
	root, err := Root(nil)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if root.IsZero() {
		t.Fatalf("empty state root must be the empty domain tag hash, not zero")
	}
}

func TestRootOrderInvariant(t *testing.T) {
	a := []Entry{{Key: []byte("a"), Value: []byte("1")}, {Key: []byte("b"), Value: []byte("2")}}
	b := []Entry{{Key: []byte("b"), Value: []byte("2")}, {Key: []byte("a"), Value: []byte("1")}}

	rootA, err := Root(a)
	if err != nil {
		t.Fatalf("root a: %v", err)
	}
	rootB, err := Root(b)
	if err != nil {
		t.Fatalf("root b: %v", err)
	}
	if rootA != rootB {
		t.Fatalf("state root must be invariant to entry order")
	}
}

func TestRootRejectsDuplicateKeys(t *testing.T) {
	entries := []Entry{{Key: []byte("a"), Value: []byte("1")}, {Key: []byte("a"), Value: []byte("2")}}
	if _, err := Root(entries); err == nil {
		t.Fatalf("expected duplicate key rejection")
	}
}

func TestRootDeterministic(t *testing.T) {
	entries := []Entry{{Key: []byte("x"), Value: []byte("y")}}
	r1, _ := Root(entries)
	r2, _ := Root(entries)
	if r1 != r2 {
		t.Fatalf("state root must be deterministic")
	}
}

func TestRootDiffersOnValueChange(t *testing.T) {
	a := []Entry{{Key: []byte("x"), Value: []byte("1")}}
	b := []Entry{{Key: []byte("x"), Value: []byte("2")}}
	ra, _ := Root(a)
	rb, _ := Root(b)
	if ra == rb {
		t.Fatalf("different values must produce different roots")
	}
}

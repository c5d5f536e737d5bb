package codec

import (
	"encoding/hex"
	"testing"
)

// TestMerkleOfThree reproduces spec scenario A: leaves = [b"a", b"bb", b"ccc"].
func TestMerkleOfThree(t *testing.T) {
	h0 := leafHash([]byte("a"))
	h1 := leafHash([]byte("bb"))
	h2 := leafHash([]byte("ccc"))

	l1a := nodeHash(h0, h1)
	l1b := nodeHash(h2, h2) // duplicated odd leaf
	want := nodeHash(l1a, l1b)

	got := MerkleRoot([][]byte{[]byte("a"), []byte("bb"), []byte("ccc")})
	if got != want {
		t.Fatalf("merkle root mismatch: got %s want %s", hex.EncodeToString(got[:]), hex.EncodeToString(want[:]))
	}
}

func TestMerkleRootEmpty(t *testing.T) {
	got := MerkleRoot(nil)
	want := leafHash(nil)
	if got != want {
		t.Fatalf("empty root mismatch: got %x want %x", got, want)
	}
}

func TestMerkleRootDeterministic(t *testing.T) {
	leaves := [][]byte{[]byte("x"), []byte("y"), []byte("z"), []byte("w")}
	a := MerkleRoot(leaves)
	b := MerkleRoot(leaves)
	if a != b {
		t.Fatalf("merkle root not deterministic across runs")
	}
}

func TestMerkleProofRoundTrip(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc"), []byte("dddd"), []byte("e")}
	for i := range leaves {
		proof, root, err := MerkleProof(leaves, i)
		if err != nil {
			t.Fatalf("proof for index %d: %v", i, err)
		}
		if !VerifyMerkleProof(root, leaves[i], proof) {
			t.Fatalf("proof for index %d failed to verify", i)
		}
	}
}

func TestKVMerkleRootOrderInvariant(t *testing.T) {
	pairs := []KVPair{
		{Key: []byte("b"), Value: []byte("2")},
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("c"), Value: []byte("3")},
	}
	permuted := []KVPair{pairs[2], pairs[0], pairs[1]}

	r1, err := KVMerkleRoot(pairs)
	if err != nil {
		t.Fatalf("kv root: %v", err)
	}
	r2, err := KVMerkleRoot(permuted)
	if err != nil {
		t.Fatalf("kv root permuted: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("kv merkle root is not permutation-invariant: %x != %x", r1, r2)
	}
}

func TestKVMerkleRootDuplicateKeyRejected(t *testing.T) {
	pairs := []KVPair{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("a"), Value: []byte("2")},
	}
	if _, err := KVMerkleRoot(pairs); err == nil {
		t.Fatalf("expected duplicate key rejection")
	}
}

func TestListMerkleNotPermutationInvariant(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b")}
	reversed := [][]byte{[]byte("b"), []byte("a")}
	if MerkleRoot(leaves) == MerkleRoot(reversed) {
		t.Fatalf("ordered list merkle must not be permutation-invariant")
	}
}

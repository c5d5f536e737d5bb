package codec

import (
	"bytes"
	"sort"
)

// Domain tags for the list/KV Merkle construction (§4.1).
const (
	merkleLeafTag = 0x00
	merkleNodeTag = 0x01
	kvPayloadTag  = 0x02
)

// leafHash returns sha3_256(0x00 || payload).
func leafHash(payload []byte) Digest32 {
	return SHA3_256([]byte{merkleLeafTag}, payload)
}

// nodeHash returns sha3_256(0x01 || left || right).
func nodeHash(left, right Digest32) Digest32 {
	return SHA3_256([]byte{merkleNodeTag}, left[:], right[:])
}

// MerkleRoot computes the canonical list Merkle root over leaves, in the
// order given. An empty leaf set returns the domain leaf hash of the empty
// string, leaf_hash(0x00 || "").
func MerkleRoot(leaves [][]byte) Digest32 {
	if len(leaves) == 0 {
		return leafHash(nil)
	}
	level := make([]Digest32, len(leaves))
	for i, l := range leaves {
		level[i] = leafHash(l)
	}
	return reduceLevel(level)
}

// MerkleRootDigests is MerkleRoot over pre-hashed leaves: each entry is
// combined through the LEAF domain tag exactly as MerkleRoot does for raw
// bytes — callers that already have a leaf's pre-image-free identity (e.g. a
// ShareReceipt leaf hash) should use this only when that hash itself *is*
// the leaf payload agreed upon by the component's spec (see shares package).
func MerkleRootDigests(leafHashes []Digest32) Digest32 {
	if len(leafHashes) == 0 {
		return leafHash(nil)
	}
	level := make([]Digest32, len(leafHashes))
	for i, h := range leafHashes {
		level[i] = leafHash(h[:])
	}
	return reduceLevel(level)
}

func reduceLevel(level []Digest32) Digest32 {
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Digest32, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = nodeHash(level[i], level[i+1])
		}
		level = next
	}
	return level[0]
}

// MerkleDirection is the sibling side in a Merkle proof step.
type MerkleDirection byte

const (
	DirLeft MerkleDirection = iota
	DirRight
)

// MerkleProofStep is one level of an inclusion proof: the sibling hash and
// which side it sits on relative to the node being proven.
type MerkleProofStep struct {
	Sibling   Digest32
	Direction MerkleDirection
}

// MerkleProof returns the inclusion proof for the leaf at index in leaves,
// along with the resulting root.
func MerkleProof(leaves [][]byte, index int) ([]MerkleProofStep, Digest32, error) {
	if index < 0 || index >= len(leaves) {
		return nil, Digest32{}, ErrInvalidLength
	}
	level := make([]Digest32, len(leaves))
	for i, l := range leaves {
		level[i] = leafHash(l)
	}
	var proof []MerkleProofStep
	idx := index
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		var sib Digest32
		var dir MerkleDirection
		if idx%2 == 0 {
			sib, dir = level[idx+1], DirRight
		} else {
			sib, dir = level[idx-1], DirLeft
		}
		proof = append(proof, MerkleProofStep{Sibling: sib, Direction: dir})
		next := make([]Digest32, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = nodeHash(level[i], level[i+1])
		}
		level = next
		idx /= 2
	}
	return proof, level[0], nil
}

// VerifyMerkleProof reconstructs the root for leaf given proof and compares
// it against root.
func VerifyMerkleProof(root Digest32, leaf []byte, proof []MerkleProofStep) bool {
	h := leafHash(leaf)
	for _, step := range proof {
		switch step.Direction {
		case DirRight:
			h = nodeHash(h, step.Sibling)
		case DirLeft:
			h = nodeHash(step.Sibling, h)
		default:
			return false
		}
	}
	return h == root
}

// KVPair is a single key/value binding for the KV Merkle root.
type KVPair struct {
	Key   []byte
	Value []byte
}

// kvLeafBytes encodes payload = 0x02 || u32be(|k|) || k || u32be(32) || sha3_256(v).
func kvLeafBytes(key, value []byte) []byte {
	vhash := SHA3_256(value)
	buf := make([]byte, 0, 1+4+len(key)+4+32)
	buf = append(buf, kvPayloadTag)
	buf = append(buf, U32BE(uint32(len(key)))...)
	buf = append(buf, key...)
	buf = append(buf, U32BE(32)...)
	buf = append(buf, vhash[:]...)
	return buf
}

// KVMerkleRoot sorts pairs by bytewise ascending key, rejects duplicate
// keys, and returns the list Merkle root over the KV leaf encoding.
func KVMerkleRoot(pairs []KVPair) (Digest32, error) {
	sorted := make([]KVPair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0
	})
	for i := 1; i < len(sorted); i++ {
		if bytes.Equal(sorted[i-1].Key, sorted[i].Key) {
			return Digest32{}, ErrDuplicateKey
		}
	}
	leaves := make([][]byte, len(sorted))
	for i, p := range sorted {
		leaves[i] = kvLeafBytes(p.Key, p.Value)
	}
	return MerkleRoot(leaves), nil
}

// Package codec implements Animica's canonical data layer: domain-separated
// SHA3 hashing, canonical CBOR/JSON encoding, list and key/value Merkle
// trees, and bech32m address framing. Every hash consensus observes bottoms
// out here.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// Digest32 is a 32-byte SHA3-256 output.
type Digest32 [32]byte

// Digest64 is a 64-byte SHA3-512 output.
type Digest64 [64]byte

var (
	// ErrInvalidLength is returned when a fixed-size digest field does not
	// carry exactly the expected number of bytes.
	ErrInvalidLength = errors.New("codec: invalid length")
	// ErrInvalidEncoding covers malformed CBOR/JSON/bech32m input.
	ErrInvalidEncoding = errors.New("codec: invalid encoding")
	// ErrNonCanonical is returned by strict decoders on non-minimal input.
	ErrNonCanonical = errors.New("codec: non-canonical encoding")
	// ErrDuplicateKey is returned by the KV Merkle builder on duplicate keys.
	ErrDuplicateKey = errors.New("codec: duplicate key")
)

// BytesToDigest32 validates and converts a byte slice into a Digest32.
func BytesToDigest32(b []byte) (Digest32, error) {
	var d Digest32
	if len(b) != 32 {
		return d, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidLength, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// BytesToDigest64 validates and converts a byte slice into a Digest64.
func BytesToDigest64(b []byte) (Digest64, error) {
	var d Digest64
	if len(b) != 64 {
		return d, fmt.Errorf("%w: want 64 bytes, got %d", ErrInvalidLength, len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Bytes returns d as a fresh byte slice.
func (d Digest32) Bytes() []byte { b := make([]byte, 32); copy(b, d[:]); return b }

// Bytes returns d as a fresh byte slice.
func (d Digest64) Bytes() []byte { b := make([]byte, 64); copy(b, d[:]); return b }

// IsZero reports whether d is the all-zero digest.
func (d Digest32) IsZero() bool {
	for _, b := range d {
		if b != 0 {
			return false
		}
	}
	return true
}

// SHA3_256 computes the domain-free SHA3-256 digest of data.
func SHA3_256(data ...[]byte) Digest32 {
	h := sha3.New256()
	for _, d := range data {
		h.Write(d)
	}
	var out Digest32
	h.Sum(out[:0])
	return out
}

// SHA3_512 computes the SHA3-512 digest of data.
func SHA3_512(data ...[]byte) Digest64 {
	h := sha3.New512()
	for _, d := range data {
		h.Write(d)
	}
	var out Digest64
	h.Sum(out[:0])
	return out
}

// BLAKE3_256 is an auxiliary, non-consensus hash exposed for tooling
// (checksums, cache keys) that benefits from BLAKE3's throughput. It must
// never be substituted for SHA3_256 in any consensus-observed path.
func BLAKE3_256(data ...[]byte) [32]byte {
	h := blake3.New(32, nil)
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Keccak256 is an auxiliary hash retained for interop tooling; never used in
// consensus hashing, which is SHA3 (Keccak's NIST-standardized successor)
// throughout.
func Keccak256(data ...[]byte) Digest32 {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Digest32
	h.Sum(out[:0])
	return out
}

// LP returns the length-prefixed framing of b: uvarint(len(b)) || b.
func LP(b []byte) []byte {
	prefix := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(prefix, uint64(len(b)))
	out := make([]byte, 0, n+len(b))
	out = append(out, prefix[:n]...)
	out = append(out, b...)
	return out
}

// U64BE encodes v as 8 big-endian bytes.
func U64BE(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// U32BE encodes v as 4 big-endian bytes.
func U32BE(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

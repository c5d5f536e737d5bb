// Package state computes the canonical key/value state-commitment root
// bound into a block header's StateRoot field (§3.3, §4.4). It takes a flat
// key/value view; the storage layer that produces that view is out of scope
// here, mirroring §1's "execution semantics are out of scope" boundary.
package state

import (
	"bytes"
	"errors"
	"sort"

	"github.com/animica-network/animica/codec"
)

var (
	leafTag  = []byte("animica/state/leaf:v1")
	nodeTag  = []byte("animica/state/node:v1")
	emptyTag = []byte("animica/state/empty:v1")
)

// ErrDuplicateKey mirrors codec.ErrDuplicateKey for this package's own
// construction path (kept distinct so callers don't need to import codec
// just to compare against the sentinel).
var ErrDuplicateKey = errors.New("state: duplicate key")

// Entry is one key/value binding in the state view.
type Entry struct {
	Key   []byte
	Value []byte
}

// Root sorts entries by key, rejects duplicate keys, and returns the
// canonical state root (§4.4).
func Root(entries []Entry) (codec.Digest32, error) {
	if len(entries) == 0 {
		return codec.SHA3_256(emptyTag), nil
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0
	})
	for i := 1; i < len(sorted); i++ {
		if bytes.Equal(sorted[i-1].Key, sorted[i].Key) {
			return codec.Digest32{}, ErrDuplicateKey
		}
	}

	level := make([]codec.Digest32, len(sorted))
	for i, e := range sorted {
		level[i] = leafHash(e.Key, e.Value)
	}
	return reduce(level), nil
}

func leafHash(key, value []byte) codec.Digest32 {
	return codec.SHA3_256(leafTag, codec.U32BE(uint32(len(key))), key, codec.U32BE(uint32(len(value))), value)
}

func nodeHash(left, right codec.Digest32) codec.Digest32 {
	return codec.SHA3_256(nodeTag, left[:], right[:])
}

func reduce(level []codec.Digest32) codec.Digest32 {
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]codec.Digest32, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = nodeHash(level[i], level[i+1])
		}
		level = next
	}
	return level[0]
}

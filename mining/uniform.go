package mining

import (
	"encoding/binary"
	"math"

	"github.com/animica-network/animica/codec"
)

// MapUniform turns the first 16 bytes of a digest into a draw u in (0, 1],
// treating them as a big-endian 128-bit integer split into high/low 64-bit
// halves: u = hi/2^64 + (lo+1)/2^128. The "+1" on the low half keeps u
// strictly positive so ln(u) in DifficultyRatio never sees zero.
func MapUniform(digest codec.Digest32) float64 {
	hi := binary.BigEndian.Uint64(digest[0:8])
	lo := binary.BigEndian.Uint64(digest[8:16])
	const two64 = 18446744073709551616.0 // 2^64
	return float64(hi)/two64 + (float64(lo)+1)/(two64*two64)
}

// AcceptShare reports whether draw u clears the per-share acceptance bound
// u <= e^(-thetaShareMicro/1e6).
func AcceptShare(u float64, thetaShareMicro uint64) bool {
	return u <= math.Exp(-float64(thetaShareMicro)/1e6)
}

// AcceptBlock reports whether draw u clears the chain-level acceptance
// bound u <= e^(-thetaMicro/1e6).
func AcceptBlock(u float64, thetaMicro uint64) bool {
	return u <= math.Exp(-float64(thetaMicro)/1e6)
}

// DifficultyRatio reports how far below the acceptance bound a draw fell,
// in units of the target: d_ratio = -ln(u)*1e6/thetaMicro. Larger is
// harder-won.
func DifficultyRatio(u float64, thetaMicro uint64) float64 {
	if thetaMicro == 0 {
		return 0
	}
	return -math.Log(u) * 1e6 / float64(thetaMicro)
}

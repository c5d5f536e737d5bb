package codec

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
)

// bech32mConst is the BIP-350 checksum constant, distinguishing bech32m from
// the original bech32 (BIP-173) checksum constant of 1.
const bech32mConst = 0x2bc830a3

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var charsetRev = func() [128]int8 {
	var rev [128]int8
	for i := range rev {
		rev[i] = -1
	}
	for i, c := range charset {
		rev[c] = int8(i)
	}
	return rev
}()

// EncodeBech32m encodes payload under hrp using the bech32m (BIP-350)
// checksum constant. Bit packing (8-bit payload bytes to 5-bit groups) is
// delegated to btcutil/bech32's ConvertBits; the checksum itself is computed
// here against the bech32m constant so behavior does not depend on which
// bech32/bech32m variant a given btcutil release defaults to.
func EncodeBech32m(hrp string, payload []byte) (string, error) {
	if hrp != strings.ToLower(hrp) {
		return "", fmt.Errorf("%w: hrp must be lowercase", ErrInvalidEncoding)
	}
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	combined := append(append([]int8(nil), toInt8(data)...), createChecksum(hrp, toInt8(data))...)
	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, v := range combined {
		sb.WriteByte(charset[v])
	}
	out := sb.String()
	if len(out) > 90 {
		return "", fmt.Errorf("%w: encoded address exceeds 90 characters", ErrInvalidEncoding)
	}
	return out, nil
}

// DecodeBech32m decodes a bech32m string, returning its HRP and payload
// bytes. Mixed-case input is rejected, as is a checksum that does not match
// the bech32m constant, and non-zero padding bits left over from the 5→8
// bit conversion.
func DecodeBech32m(s string) (hrp string, payload []byte, err error) {
	if s != strings.ToLower(s) && s != strings.ToUpper(s) {
		return "", nil, fmt.Errorf("%w: mixed-case bech32m string", ErrInvalidEncoding)
	}
	lower := strings.ToLower(s)
	pos := strings.LastIndexByte(lower, '1')
	if pos < 1 || pos+7 > len(lower) {
		return "", nil, fmt.Errorf("%w: missing or misplaced separator", ErrInvalidEncoding)
	}
	hrpPart := lower[:pos]
	dataPart := lower[pos+1:]

	values := make([]int8, len(dataPart))
	for i, c := range dataPart {
		if c > 127 || charsetRev[c] == -1 {
			return "", nil, fmt.Errorf("%w: invalid bech32 character %q", ErrInvalidEncoding, c)
		}
		values[i] = charsetRev[c]
	}
	if len(values) < 6 {
		return "", nil, fmt.Errorf("%w: truncated checksum", ErrInvalidEncoding)
	}
	if !verifyChecksum(hrpPart, values) {
		return "", nil, fmt.Errorf("%w: bech32m checksum mismatch", ErrInvalidEncoding)
	}
	values = values[:len(values)-6]

	raw := make([]byte, len(values))
	for i, v := range values {
		raw[i] = byte(v)
	}
	payload, err = bech32.ConvertBits(raw, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return hrpPart, payload, nil
}

func toInt8(b []byte) []int8 {
	out := make([]int8, len(b))
	for i, v := range b {
		out[i] = int8(v)
	}
	return out
}

func polymod(values []int8) int64 {
	generator := [5]int64{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := int64(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ int64(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= generator[i]
			}
		}
	}
	return chk
}

func hrpExpand(hrp string) []int8 {
	out := make([]int8, 0, len(hrp)*2+1)
	for _, c := range hrp {
		out = append(out, int8(c>>5))
	}
	out = append(out, 0)
	for _, c := range hrp {
		out = append(out, int8(c&31))
	}
	return out
}

func createChecksum(hrp string, data []int8) []int8 {
	values := append(hrpExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ bech32mConst
	checksum := make([]int8, 6)
	for i := 0; i < 6; i++ {
		checksum[i] = int8((mod >> uint(5*(5-i))) & 31)
	}
	return checksum
}

func verifyChecksum(hrp string, data []int8) bool {
	values := append(hrpExpand(hrp), data...)
	return polymod(values) == bech32mConst
}

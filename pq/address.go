package pq

import "github.com/animica-network/animica/codec"

// addressHRP is the bech32m human-readable prefix for Animica addresses.
const addressHRP = "anim"

// DeriveAddress computes addr = bech32m("anim", u16be(algId) || sha3_256(pk))
// (§4.5).
func DeriveAddress(algID uint16, pk []byte) (string, error) {
	digest := codec.SHA3_256(pk)
	payload := make([]byte, 0, 2+32)
	payload = append(payload, byte(algID>>8), byte(algID))
	payload = append(payload, digest[:]...)
	return codec.EncodeBech32m(addressHRP, payload)
}

// DecodeAddress recovers the algorithm id and public-key digest committed by
// an address string.
func DecodeAddress(addr string) (algID uint16, pkHash codec.Digest32, err error) {
	hrp, payload, err := codec.DecodeBech32m(addr)
	if err != nil {
		return 0, codec.Digest32{}, err
	}
	if hrp != addressHRP {
		return 0, codec.Digest32{}, ErrDomainMismatch
	}
	if len(payload) != 2+32 {
		return 0, codec.Digest32{}, ErrInvalidKeyLength
	}
	algID = uint16(payload[0])<<8 | uint16(payload[1])
	digest, err := codec.BytesToDigest32(payload[2:])
	if err != nil {
		return 0, codec.Digest32{}, err
	}
	return algID, digest, nil
}

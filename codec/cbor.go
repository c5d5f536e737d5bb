package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// canonicalEncMode enforces RFC 8949 §4.2.1 deterministic encoding: sorted
// map keys, smallest-width integers, definite-length containers only.
var canonicalEncMode = func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Errorf("codec: build canonical cbor encoder: %w", err))
	}
	return m
}()

// strictDecMode rejects duplicate map keys and indefinite-length items so
// that round-tripping untrusted CBOR can never silently accept a
// non-canonical encoding.
var strictDecMode = func() cbor.DecMode {
	opts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Errorf("codec: build strict cbor decoder: %w", err))
	}
	return m
}()

// CanonicalCBOR deterministically encodes value: sorted map keys, minimal
// integer widths, definite-length arrays/maps/strings. Floats are not
// rejected; they are encoded in their shortest exact width.
func CanonicalCBOR(value any) ([]byte, error) {
	b, err := canonicalEncMode.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}

// DecodeCBORStrict decodes b into out under strict canonical rules,
// rejecting duplicate keys and indefinite-length items.
func DecodeCBORStrict(b []byte, out any) error {
	if err := strictDecMode.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %v", ErrNonCanonical, err)
	}
	return nil
}

// HashCBOR returns sha3_256(canonical_cbor(value)), the consensus hash of
// any canonically-encodable value.
func HashCBOR(value any) (Digest32, error) {
	b, err := CanonicalCBOR(value)
	if err != nil {
		return Digest32{}, err
	}
	return SHA3_256(b), nil
}

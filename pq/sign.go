package pq

import (
	"crypto"
	"crypto/rand"
	"fmt"

	dilithium3 "github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/animica-network/animica/codec"
)

// Reference sizes for the registry. Dilithium3's are the circl package's own
// exported constants (grounded directly on the teacher's mode3 usage in
// core/security.go); SPHINCS+-SHAKE-128s has no wired backend in this build
// (see DESIGN.md) so its sizes are the NIST round-3.1 reference values, used
// only for registry metadata and envelope sanity checks.
const (
	dilithium3PKLen  = dilithium3.PublicKeySize
	dilithium3SKLen  = dilithium3.PrivateKeySize
	dilithium3SigLen = dilithium3.SignatureSize

	sphincsPKLen  = 32
	sphincsSKLen  = 64
	sphincsSigLen = 7856
)

// signTag is the domain tag for the sign-bytes preimage (§4.6).
const signTag = "animica:sign/v1"

// SignaturePrehash names the hash applied over the TAG/domain-framed raw
// bytes; SignPreimage always applies SHA3-512.
type SignaturePrehash string

const (
	PrehashSHA3_256 SignaturePrehash = "sha3-256"
	PrehashSHA3_512 SignaturePrehash = "sha3-512"
)

// SignatureEnvelope is the wire container for a PQ signature (§4.6).
type SignatureEnvelope struct {
	AlgID   uint16
	AlgName string
	Domain  string
	Prehash SignaturePrehash
	Sig     []byte
}

// uvarintBytes LEB128-encodes v, matching spec's uvar() primitive.
func uvarintBytes(v uint64) []byte {
	buf := make([]byte, 0, 10)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

// SignPreimage builds the canonical domain-separated sign-bytes preimage
// (§4.6):
//
//	raw = LP(TAG) || LP(domain) || LP(chainIdUvarOrEmpty) || LP(uvar(algId)) || LP(context) || LP(message)
//	preimage = SHA3-512(raw)
func SignPreimage(domain string, chainID *uint64, algID uint16, context, message []byte) []byte {
	var chainIDBytes []byte
	if chainID != nil {
		chainIDBytes = uvarintBytes(*chainID)
	}

	raw := make([]byte, 0, 128+len(context)+len(message))
	raw = append(raw, codec.LP([]byte(signTag))...)
	raw = append(raw, codec.LP([]byte(domain))...)
	raw = append(raw, codec.LP(chainIDBytes)...)
	raw = append(raw, codec.LP(uvarintBytes(uint64(algID)))...)
	raw = append(raw, codec.LP(context)...)
	raw = append(raw, codec.LP(message)...)

	digest := codec.SHA3_512(raw)
	return digest.Bytes()
}

// SignKeypair generates a keypair for alg (§4.6 sig.keypair). Dilithium3 is
// wired to circl; every other registered signature algorithm routes to the
// dev-only fallback (gated by AllowInsecureFallback), since no further
// backend is wired in this build.
func SignKeypair(alg AlgMeta) (pk, sk []byte, err error) {
	if alg.Kind != KindSig {
		return nil, nil, fmt.Errorf("%w: %s is not a signature algorithm", ErrAlgMismatch, alg.Name)
	}
	switch alg.ID {
	case AlgDilithium3:
		p, s, err := dilithium3.GenerateKey(rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		pkBytes, err := p.MarshalBinary()
		if err != nil {
			return nil, nil, err
		}
		skBytes, err := s.MarshalBinary()
		if err != nil {
			return nil, nil, err
		}
		return pkBytes, skBytes, nil
	default:
		if !AllowInsecureFallback() {
			return nil, nil, fmt.Errorf("%w: %s has no wired backend and fallback is disabled", ErrAlgorithmUnavailable, alg.Name)
		}
		return fallbackSignKeypair(alg)
	}
}

// Sign produces a signature envelope over message using alg's identity sk
// (§4.6 sig.sign, wrapped in the SignatureEnvelope contract).
func Sign(alg AlgMeta, sk []byte, domain string, chainID *uint64, context, message []byte) (SignatureEnvelope, error) {
	if alg.Kind != KindSig {
		return SignatureEnvelope{}, fmt.Errorf("%w: %s is not a signature algorithm", ErrAlgMismatch, alg.Name)
	}
	preimage := SignPreimage(domain, chainID, alg.ID, context, message)

	var sig []byte
	switch alg.ID {
	case AlgDilithium3:
		if len(sk) != dilithium3.PrivateKeySize {
			return SignatureEnvelope{}, fmt.Errorf("%w: dilithium3 sk", ErrInvalidKeyLength)
		}
		var priv dilithium3.PrivateKey
		if err := priv.UnmarshalBinary(sk); err != nil {
			return SignatureEnvelope{}, err
		}
		s, err := priv.Sign(rand.Reader, preimage, crypto.Hash(0))
		if err != nil {
			return SignatureEnvelope{}, err
		}
		sig = s
	default:
		if !AllowInsecureFallback() {
			return SignatureEnvelope{}, fmt.Errorf("%w: %s has no wired backend and fallback is disabled", ErrAlgorithmUnavailable, alg.Name)
		}
		s, err := fallbackSign(sk, preimage)
		if err != nil {
			return SignatureEnvelope{}, err
		}
		sig = s
	}

	return SignatureEnvelope{
		AlgID: alg.ID, AlgName: alg.Name, Domain: domain,
		Prehash: PrehashSHA3_512, Sig: sig,
	}, nil
}

// Verify recomputes the preimage and checks env against it, rejecting any
// domain/prehash/alg mismatch versus the caller's expectation in strict mode
// (§4.6).
func Verify(alg AlgMeta, pk []byte, env SignatureEnvelope, expectedDomain string, chainID *uint64, context, message []byte, strict bool) (bool, error) {
	if env.AlgID != alg.ID {
		return false, fmt.Errorf("%w: envelope alg %#x, expected %#x", ErrAlgMismatch, env.AlgID, alg.ID)
	}
	if strict && env.Domain != expectedDomain {
		return false, fmt.Errorf("%w: envelope domain %q, expected %q", ErrDomainMismatch, env.Domain, expectedDomain)
	}
	if strict && env.Prehash != PrehashSHA3_512 {
		return false, fmt.Errorf("%w: envelope prehash %q, expected sha3-512", ErrDomainMismatch, env.Prehash)
	}

	preimage := SignPreimage(env.Domain, chainID, alg.ID, context, message)

	switch alg.ID {
	case AlgDilithium3:
		if len(pk) != dilithium3.PublicKeySize {
			return false, fmt.Errorf("%w: dilithium3 pk", ErrInvalidKeyLength)
		}
		var pub dilithium3.PublicKey
		if err := pub.UnmarshalBinary(pk); err != nil {
			return false, err
		}
		return dilithium3.Verify(&pub, preimage, env.Sig), nil
	default:
		if !AllowInsecureFallback() {
			return false, fmt.Errorf("%w: %s has no wired backend and fallback is disabled", ErrAlgorithmUnavailable, alg.Name)
		}
		return fallbackVerify(pk, preimage, env.Sig), nil
	}
}

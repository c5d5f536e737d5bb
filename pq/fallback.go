package pq

import (
	"crypto/hmac"
	"crypto/rand"

	"github.com/animica-network/animica/codec"
	"github.com/animica-network/animica/pkg/utils"
)

// allowFallbackEnv gates the dev-only fallback backend used for any
// registered algorithm without a wired production backend (currently
// SPHINCS+-SHAKE-128s; see DESIGN.md). It must be explicitly opted into —
// never enabled by default — since the fallback is a deterministic keyed
// SHA3-256 tag, sha3_256(key || preimage), with no post-quantum security
// property whatsoever.
const allowFallbackEnv = "ANIMICA_ALLOW_PQ_PURE_FALLBACK"

// AllowInsecureFallback reports whether the dev-only fallback backend is
// permitted in this process.
func AllowInsecureFallback() bool {
	return utils.EnvOrDefaultBool(allowFallbackEnv, false)
}

// fallbackKeyLen is the shared-secret length the fallback backend actually
// uses. The registry's PKLen/SKLen describe the real algorithm being stood
// in for (SPHINCS+-SHAKE-128s); this placeholder ignores them deliberately,
// since it has no asymmetric structure to size.
const fallbackKeyLen = 32

// fallbackSignKeypair derives a shared secret used as both "sk" and "pk" by
// this placeholder backend. There is no asymmetric structure here at all —
// this is a MAC, not a signature scheme — which is exactly why it is gated
// behind AllowInsecureFallback and never selected without an explicit opt-in.
func fallbackSignKeypair(alg AlgMeta) (pk, sk []byte, err error) {
	secret := make([]byte, fallbackKeyLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, nil, err
	}
	return secret, secret, nil
}

// fallbackSign produces sha3_256(sk || preimage) as a stand-in tag.
func fallbackSign(sk, preimage []byte) ([]byte, error) {
	mac := codec.SHA3_256(sk, preimage)
	return mac.Bytes(), nil
}

// fallbackVerify recomputes the tag using pk as the key, which only succeeds
// when pk equals the sk used to sign (true by construction for keys minted
// by fallbackSignKeypair).
func fallbackVerify(pk, preimage, sig []byte) bool {
	want := codec.SHA3_256(pk, preimage).Bytes()
	return hmac.Equal(want, sig)
}

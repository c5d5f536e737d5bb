package stratum

import (
	"fmt"
	"sync"

	"github.com/herumi/bls-eth-go-binary/bls"
)

var blsInitOnce sync.Once

func ensureBLSInit() {
	blsInitOnce.Do(func() {
		if err := bls.Init(bls.BLS12_381); err != nil {
			panic(fmt.Errorf("stratum: bls init: %w", err))
		}
	})
}

// PoolAuthVerifier checks BLS pool-authorization tokens presented on
// miner.authorize/mining.authorize (§4.10's optional pool-authorization path,
// grounded on the teacher's AlgoBLS case in core/security.go). A worker
// authenticates to the pool operator out of band and receives a token —
// a BLS signature over its worker name — that Verify checks against the
// pool's public key.
type PoolAuthVerifier struct {
	pub bls.PublicKey
}

// NewPoolAuthVerifier builds a verifier from the pool operator's serialized
// BLS public key.
func NewPoolAuthVerifier(compressedPub []byte) (*PoolAuthVerifier, error) {
	ensureBLSInit()
	var pub bls.PublicKey
	if err := pub.Deserialize(compressedPub); err != nil {
		return nil, fmt.Errorf("deserialize pool public key: %w", err)
	}
	return &PoolAuthVerifier{pub: pub}, nil
}

// Verify reports whether token is a valid BLS signature over worker under
// the verifier's pool public key.
func (v *PoolAuthVerifier) Verify(worker string, token []byte) bool {
	var sig bls.Sign
	if err := sig.Deserialize(token); err != nil {
		return false
	}
	return sig.VerifyByte(&v.pub, []byte(worker))
}

// SignWorkerToken is the pool-operator-side counterpart to Verify: it signs
// worker's name with the pool's BLS secret key, producing the token a miner
// presents on authorize.
func SignWorkerToken(sk *bls.SecretKey, worker string) []byte {
	ensureBLSInit()
	return sk.SignByte([]byte(worker)).Serialize()
}

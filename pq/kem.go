package pq

import (
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
)

// mlkem768 sizes, sourced from circl's kyber768 package (round-3 Kyber768
// and the NIST-finalized ML-KEM-768 share wire sizes).
const (
	mlkem768PKLen = kyber768.PublicKeySize
	mlkem768SKLen = kyber768.PrivateKeySize
	mlkem768CTLen = kyber768.CiphertextSize
)

func kemScheme(alg AlgMeta) (kem.Scheme, error) {
	if alg.Kind != KindKEM {
		return nil, fmt.Errorf("%w: %s is not a KEM algorithm", ErrAlgMismatch, alg.Name)
	}
	switch alg.ID {
	case AlgMLKEM768:
		return kyber768.Scheme(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKem, alg.Name)
	}
}

// KEMKeypair generates a KEM keypair for alg (§4.6 kem.keypair).
func KEMKeypair(alg AlgMeta) (pk, sk []byte, err error) {
	scheme, err := kemScheme(alg)
	if err != nil {
		return nil, nil, err
	}
	pub, priv, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, nil, err
	}
	pkBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	skBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return pkBytes, skBytes, nil
}

// KEMEncapsulate produces (ciphertext, shared secret) against pk (§4.6
// kem.encapsulate). |ss| is always 32 bytes.
func KEMEncapsulate(alg AlgMeta, pk []byte) (ct, ss []byte, err error) {
	scheme, err := kemScheme(alg)
	if err != nil {
		return nil, nil, err
	}
	pub, err := scheme.UnmarshalBinaryPublicKey(pk)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}
	ct, ss, err = scheme.Encapsulate(pub)
	if err != nil {
		return nil, nil, err
	}
	return ct, ss, nil
}

// KEMDecapsulate recovers the shared secret from ct using sk (§4.6
// kem.decapsulate).
func KEMDecapsulate(alg AlgMeta, sk, ct []byte) (ss []byte, err error) {
	scheme, err := kemScheme(alg)
	if err != nil {
		return nil, err
	}
	priv, err := scheme.UnmarshalBinaryPrivateKey(sk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyLength, err)
	}
	ss, err = scheme.Decapsulate(priv, ct)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

package pq

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/flynn/noise"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/animica-network/animica/codec"
)

// helloMagic is the deterministic HELLO frame prefix (§4.7).
var helloMagic = []byte("ANM1HELLO")

// domHello is the transcript-hash domain tag. Not given a literal value in
// the reference description beyond the symbol DOM_HELLO; fixed here as a
// versioned string in the style of the other domain tags this layer uses
// (see DESIGN.md Open Question decisions).
const domHello = "animica/p2p/hello-v1"

// authDomain is the domain string AUTH signatures are computed under.
const authDomain = "animica/p2p/auth-v1"

// Hello is the HELLO handshake frame (§4.7).
type Hello struct {
	SigAlgID     uint16
	SigPK        []byte
	KemAlgID     uint16
	EPK          []byte
	Nonce        [32]byte
	FeaturesJSON []byte // canonical JSON, opaque here
	Addr         string // bech32m address
}

// EncodeHello serializes h per:
//
//	"ANM1HELLO" || u16(sigAlgId) || LP(sigPk) || u16(kemAlgId) || LP(epk) ||
//	LP(nonce32) || LP(featuresJson) || LP(bech32Addr)
func EncodeHello(h Hello) []byte {
	buf := make([]byte, 0, len(helloMagic)+2+len(h.SigPK)+16+2+len(h.EPK)+16+32+16+len(h.FeaturesJSON)+16+len(h.Addr)+16)
	buf = append(buf, helloMagic...)
	buf = append(buf, byte(h.SigAlgID>>8), byte(h.SigAlgID))
	buf = append(buf, codec.LP(h.SigPK)...)
	buf = append(buf, byte(h.KemAlgID>>8), byte(h.KemAlgID))
	buf = append(buf, codec.LP(h.EPK)...)
	buf = append(buf, codec.LP(h.Nonce[:])...)
	buf = append(buf, codec.LP(h.FeaturesJSON)...)
	buf = append(buf, codec.LP([]byte(h.Addr))...)
	return buf
}

// DecodeHello parses a HELLO frame produced by EncodeHello.
func DecodeHello(b []byte) (Hello, error) {
	if len(b) < len(helloMagic)+2 {
		return Hello{}, ErrTruncatedFrame
	}
	if !bytes.Equal(b[:len(helloMagic)], helloMagic) {
		return Hello{}, ErrMagicMismatch
	}
	r := b[len(helloMagic):]

	sigAlgID, r, err := readU16(r)
	if err != nil {
		return Hello{}, err
	}
	sigPK, r, err := readLP(r)
	if err != nil {
		return Hello{}, err
	}
	kemAlgID, r, err := readU16(r)
	if err != nil {
		return Hello{}, err
	}
	epk, r, err := readLP(r)
	if err != nil {
		return Hello{}, err
	}
	nonce, r, err := readLP(r)
	if err != nil {
		return Hello{}, err
	}
	if len(nonce) != 32 {
		return Hello{}, fmt.Errorf("%w: hello nonce must be 32 bytes", codec.ErrInvalidLength)
	}
	features, r, err := readLP(r)
	if err != nil {
		return Hello{}, err
	}
	addr, _, err := readLP(r)
	if err != nil {
		return Hello{}, err
	}

	var h Hello
	h.SigAlgID = sigAlgID
	h.SigPK = sigPK
	h.KemAlgID = kemAlgID
	h.EPK = epk
	copy(h.Nonce[:], nonce)
	h.FeaturesJSON = features
	h.Addr = string(addr)
	return h, nil
}

func readU16(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, nil, ErrTruncatedFrame
	}
	return uint16(b[0])<<8 | uint16(b[1]), b[2:], nil
}

func readLP(b []byte) ([]byte, []byte, error) {
	n, sz := binary.Uvarint(b)
	if sz <= 0 {
		return nil, nil, ErrTruncatedFrame
	}
	rest := b[sz:]
	if uint64(len(rest)) < n {
		return nil, nil, ErrTruncatedFrame
	}
	return rest[:n], rest[n:], nil
}

// TranscriptHash computes th = sha3_256(DOM_HELLO || LP(helloI) || LP(helloR))
// (§4.7), binding both HELLO frames in initiator-then-responder order.
func TranscriptHash(helloIBytes, helloRBytes []byte) codec.Digest32 {
	return codec.SHA3_256([]byte(domHello), codec.LP(helloIBytes), codec.LP(helloRBytes))
}

// orderedPair returns (a,b) reordered so the first return value is
// bytewise <= the second, matching the spec's min(...)/max(...) framing.
func orderedPair(a, b []byte) (lo, hi []byte) {
	if bytes.Compare(a, b) <= 0 {
		return a, b
	}
	return b, a
}

// KeySchedule derives the two session AEAD keys from both parties' shared
// secrets and ephemeral public keys (§4.7):
//
//	s_mix = sha3_256(LP(min(ssI,ssR)) || LP(max(ssI,ssR)))
//	info  = "animica/pq/kyber768/kdf/v1" || LP(min(epkI,epkR)) || LP(max(epkI,epkR)) || LP(th)
//	k0||k1 = HKDF-SHA3-256(ikm=s_mix, info=info, len=64)
func KeySchedule(ssI, ssR, epkI, epkR []byte, th codec.Digest32) (k0, k1 [32]byte, err error) {
	loSS, hiSS := orderedPair(ssI, ssR)
	sMix := codec.SHA3_256(codec.LP(loSS), codec.LP(hiSS))

	loEPK, hiEPK := orderedPair(epkI, epkR)
	info := append([]byte("animica/pq/kyber768/kdf/v1"), codec.LP(loEPK)...)
	info = append(info, codec.LP(hiEPK)...)
	info = append(info, codec.LP(th[:])...)

	kdf := hkdf.New(sha3.New256, sMix[:], nil, info)
	out := make([]byte, 64)
	if _, err := kdf.Read(out); err != nil {
		return k0, k1, err
	}
	copy(k0[:], out[:32])
	copy(k1[:], out[32:])
	return k0, k1, nil
}

// SessionKeys applies the role-asymmetric mapping (§3.7): initiator
// (send,recv)=(k0,k1); responder (send,recv)=(k1,k0).
func SessionKeys(initiator bool, k0, k1 [32]byte) (send, recv [32]byte) {
	if initiator {
		return k0, k1
	}
	return k1, k0
}

// Session wraps the post-handshake AEAD framing using flynn/noise's
// ChaChaPoly cipher construction directly (not its DH handshake state
// machine, which this PQ/KEM-based handshake does not use).
type Session struct {
	send      noise.Cipher
	recv      noise.Cipher
	sendNonce uint64
	recvNonce uint64
}

// NewSession builds a Session from the send/recv keys SessionKeys produced.
func NewSession(sendKey, recvKey [32]byte) *Session {
	return &Session{
		send: noise.CipherChaChaPoly.Cipher(sendKey),
		recv: noise.CipherChaChaPoly.Cipher(recvKey),
	}
}

// Seal encrypts plaintext with the next send nonce, authenticating ad.
func (s *Session) Seal(ad, plaintext []byte) []byte {
	out := s.send.Encrypt(nil, s.sendNonce, ad, plaintext)
	s.sendNonce++
	return out
}

// Open decrypts ciphertext with the next recv nonce, authenticating ad.
func (s *Session) Open(ad, ciphertext []byte) ([]byte, error) {
	out, err := s.recv.Decrypt(nil, s.recvNonce, ad, ciphertext)
	if err != nil {
		return nil, err
	}
	s.recvNonce++
	return out, nil
}

// AuthDomain exposes authDomain for callers constructing AUTH signatures.
func AuthDomain() string { return authDomain }

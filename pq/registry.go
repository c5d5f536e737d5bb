// Package pq implements Animica's post-quantum cryptography layer: the
// algorithm registry, address derivation, domain-separated sign/verify/KEM
// operations, and the PQ handshake (§3.6, §3.7, §4.5-§4.7). Backends are
// dispatched through cloudflare/circl's scheme registries, the same pattern
// the teacher repo used directly against a single concrete Dilithium3
// package (core/security.go); here it is generalized across every algorithm
// the policy names.
package pq

import (
	"fmt"
	"sync"
)

// AlgKind classifies a registered algorithm as a signature scheme or a KEM.
// Invariant (§3.6): signature and KEM algorithm ids are disjoint.
type AlgKind uint8

const (
	KindSig AlgKind = iota
	KindKEM
)

// Well-known algorithm ids. These are the defaults DefaultRegistry wires;
// a deployment's policy file may assign different numeric ids, which is why
// every lookup goes through the registry rather than these constants
// directly outside of DefaultRegistry's own construction.
const (
	AlgDilithium3       uint16 = 0x0103
	AlgSPHINCSShake128s uint16 = 0x0201
	AlgMLKEM768         uint16 = 0x0301
)

// AlgMeta is one registry entry (§3.6): kind, sizes, and a security class
// label. pk_len/sk_len/sig_len apply to signature schemes; ct_len/ss_len
// apply to KEMs (encoded in the same fields for simplicity: PKLen/SKLen hold
// the KEM public/secret-key sizes, and CTLen/SSLen are only meaningful when
// Kind == KindKEM).
type AlgMeta struct {
	ID       uint16
	Name     string
	Kind     AlgKind
	PKLen    int
	SKLen    int
	SigLen   int // signature schemes only
	CTLen    int // KEM only
	SSLen    int // KEM only
	Security string
	Provider string
}

// Registry is a threadsafe name/id lookup table for PQ algorithms (§3.6).
type Registry struct {
	mu      sync.RWMutex
	byID    map[uint16]AlgMeta
	byName  map[string]AlgMeta
	sigDef  uint16
	kemDef  uint16
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[uint16]AlgMeta), byName: make(map[string]AlgMeta)}
}

// Register admits meta, enforcing unique ids/names and the sig/KEM id
// disjointness invariant.
func (r *Registry) Register(meta AlgMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[meta.ID]; exists {
		return fmt.Errorf("%w: id %#x", ErrDuplicateAlgorithm, meta.ID)
	}
	if _, exists := r.byName[meta.Name]; exists {
		return fmt.Errorf("%w: name %q", ErrDuplicateAlgorithm, meta.Name)
	}
	for _, other := range r.byID {
		if other.Kind != meta.Kind && other.ID == meta.ID {
			return ErrKindCollision
		}
	}
	r.byID[meta.ID] = meta
	r.byName[meta.Name] = meta
	return nil
}

// ByID looks up an algorithm by its numeric id.
func (r *Registry) ByID(id uint16) (AlgMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return AlgMeta{}, fmt.Errorf("%w: id %#x", ErrUnknownAlgorithm, id)
	}
	return m, nil
}

// ByName looks up an algorithm by its registry name.
func (r *Registry) ByName(name string) (AlgMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byName[name]
	if !ok {
		return AlgMeta{}, fmt.Errorf("%w: name %q", ErrUnknownAlgorithm, name)
	}
	return m, nil
}

// SetDefaults records the default signature and KEM algorithm ids (§4.5:
// signing default prefers Dilithium3 when available, else SPHINCS+-SHAKE-128s;
// KEM default is ML-KEM-768).
func (r *Registry) SetDefaults(sigID, kemID uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sigDef = sigID
	r.kemDef = kemID
}

// DefaultSig returns the default signature algorithm.
func (r *Registry) DefaultSig() (AlgMeta, error) {
	r.mu.RLock()
	id := r.sigDef
	r.mu.RUnlock()
	return r.ByID(id)
}

// DefaultKEM returns the default KEM algorithm.
func (r *Registry) DefaultKEM() (AlgMeta, error) {
	r.mu.RLock()
	id := r.kemDef
	r.mu.RUnlock()
	return r.ByID(id)
}

// DefaultRegistry returns the reference policy: Dilithium3, SPHINCS+-SHAKE-128s,
// and ML-KEM-768, with Dilithium3 and ML-KEM-768 as defaults. A deployment
// that loads a different policy file would construct its own Registry and
// call Register per entry instead.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	must(r.Register(AlgMeta{
		ID: AlgDilithium3, Name: "Dilithium3", Kind: KindSig,
		PKLen: dilithium3PKLen, SKLen: dilithium3SKLen, SigLen: dilithium3SigLen,
		Security: "NIST-3", Provider: "circl",
	}))
	must(r.Register(AlgMeta{
		ID: AlgSPHINCSShake128s, Name: "SPHINCS+-SHAKE-128s", Kind: KindSig,
		PKLen: sphincsPKLen, SKLen: sphincsSKLen, SigLen: sphincsSigLen,
		// circl does not implement SPHINCS+ yet; sign.go's dispatch falls
		// through to the insecure dev fallback for this id, so Provider
		// stays blank rather than claiming a backend that isn't wired.
		Security: "NIST-1", Provider: "",
	}))
	must(r.Register(AlgMeta{
		ID: AlgMLKEM768, Name: "ML-KEM-768", Kind: KindKEM,
		PKLen: mlkem768PKLen, SKLen: mlkem768SKLen, CTLen: mlkem768CTLen, SSLen: 32,
		Security: "NIST-3", Provider: "circl",
	}))
	r.SetDefaults(AlgDilithium3, AlgMLKEM768)
	return r
}

func must(err error) {
	if err != nil {
		panic(fmt.Errorf("pq: default registry construction: %w", err))
	}
}

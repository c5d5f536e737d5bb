// Package registry implements the verifier-kind registry (§4.14): a
// threadsafe mapping from a proof kind's string name to the function that
// verifies envelopes of that kind.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/animica-network/animica/chaintypes"
)

var (
	// ErrAlreadyRegistered is returned by Register when kind is already bound.
	ErrAlreadyRegistered = errors.New("registry: kind already registered")
	// ErrNotRegistered is returned by Resolve/Unregister/Verify for an
	// unknown kind.
	ErrNotRegistered = errors.New("registry: kind not registered")
	// ErrImportFailure wraps a panic recovered from a verifier while Verify
	// runs it.
	ErrImportFailure = errors.New("registry: verifier import failed")
	// ErrMissingField is returned by Register when the verify function is
	// nil.
	ErrMissingField = errors.New("registry: envelope missing required field")
)

// VerifyFunc checks one proof envelope and reports whether it is valid.
type VerifyFunc func(env chaintypes.ProofEnvelope) (bool, error)

// Registry is a threadsafe string -> VerifyFunc map, RWLock-protected per
// §5 (reads are the hot path — every incoming proof envelope resolves a
// verifier; writes only happen at startup or via explicit admin action).
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]VerifyFunc
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{funcs: make(map[string]VerifyFunc)}
}

// Register binds kind to fn. It fails if kind is already bound.
func (r *Registry) Register(kind string, fn VerifyFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: nil verify function for %q", ErrMissingField, kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[kind]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, kind)
	}
	r.funcs[kind] = fn
	return nil
}

// Unregister removes kind's binding.
func (r *Registry) Unregister(kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[kind]; !exists {
		return fmt.Errorf("%w: %q", ErrNotRegistered, kind)
	}
	delete(r.funcs, kind)
	return nil
}

// ListKinds returns every registered kind name, in no particular order.
func (r *Registry) ListKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		out = append(out, k)
	}
	return out
}

// Resolve returns the verify function bound to kind.
func (r *Registry) Resolve(kind string) (VerifyFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, exists := r.funcs[kind]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, kind)
	}
	return fn, nil
}

// Verify resolves kind's verifier and runs it against env, converting any
// panic from a misbehaving verifier into ErrImportFailure rather than
// crashing the caller.
func (r *Registry) Verify(kind string, env chaintypes.ProofEnvelope) (ok bool, err error) {
	fn, err := r.Resolve(kind)
	if err != nil {
		return false, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			ok, err = false, fmt.Errorf("%w: %v", ErrImportFailure, rec)
		}
	}()
	return fn(env)
}

package registry

import "github.com/animica-network/animica/chaintypes"

// DefaultKindNames are the five proof kinds the rest of this codebase
// already understands structurally (§3.6); a node wires real verification
// logic over these names, but the registry itself is agnostic to what a
// "hash_share" or "vdf" kind actually proves.
var DefaultKindNames = [...]string{
	chaintypes.ProofHashShare.String(),
	chaintypes.ProofAI.String(),
	chaintypes.ProofQuantum.String(),
	chaintypes.ProofStorage.String(),
	chaintypes.ProofVDF.String(),
}

// structuralVerify accepts any envelope whose nullifier is non-zero and
// body non-empty — the minimum shape every proof kind must satisfy
// regardless of its opaque body's internal schema. A production node
// replaces this per kind with the real proof-system verifier; this is the
// "nothing wired yet" default every Register call can start from.
func structuralVerify(env chaintypes.ProofEnvelope) (bool, error) {
	if env.Nullifier.IsZero() {
		return false, nil
	}
	if len(env.Body) == 0 {
		return false, nil
	}
	return true, nil
}

// NewWithDefaults builds a Registry with all five proof kinds bound to the
// structural default verifier, ready for a caller to Unregister/Register
// over with real verifiers as they become available.
func NewWithDefaults() *Registry {
	r := New()
	for _, kind := range DefaultKindNames {
		_ = r.Register(kind, structuralVerify)
	}
	return r
}

package pq

import (
	"os"
	"testing"
)

func TestSPHINCSRejectedWithoutFallbackFlag(t *testing.T) {
	os.Unsetenv(allowFallbackEnv)
	r := DefaultRegistry()
	alg, err := r.ByID(AlgSPHINCSShake128s)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if _, _, err := SignKeypair(alg); err == nil {
		t.Fatalf("expected rejection without ANIMICA_ALLOW_PQ_PURE_FALLBACK set")
	}
}

func TestSPHINCSFallbackSignVerifyRoundTripWhenEnabled(t *testing.T) {
	os.Setenv(allowFallbackEnv, "true")
	defer os.Unsetenv(allowFallbackEnv)

	r := DefaultRegistry()
	alg, err := r.ByID(AlgSPHINCSShake128s)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}

	pk, sk, err := SignKeypair(alg)
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	env, err := Sign(alg, sk, "d", nil, nil, []byte("msg"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := Verify(alg, pk, env, "d", nil, nil, []byte("msg"), true)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected fallback round trip to verify")
	}
}

package main

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/animica-network/animica/pq"
)

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	cmd := pqCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("pq %v: %v\noutput:\n%s", args, err, out.String())
	}
	return out.String()
}

func TestPQKeygenPrintsAddressAndKeys(t *testing.T) {
	out := runCmd(t, "keygen", "--alg", "Dilithium3")
	if !strings.Contains(out, "address:") || !strings.Contains(out, "pk:") || !strings.Contains(out, "sk:") {
		t.Fatalf("unexpected keygen output: %s", out)
	}
}

func TestPQSignThenVerifyRoundTrip(t *testing.T) {
	alg, err := pq.DefaultRegistry().ByName("Dilithium3")
	if err != nil {
		t.Fatalf("lookup alg: %v", err)
	}
	pk, sk, err := pq.SignKeypair(alg)
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	message := hex.EncodeToString([]byte("hello animica"))
	signOut := runCmd(t, "sign",
		"--alg", "Dilithium3",
		"--sk", hex.EncodeToString(sk),
		"--domain", "animica:test/v1",
		"--message", message,
	)

	var sigHex string
	for _, line := range strings.Split(signOut, "\n") {
		if strings.HasPrefix(line, "sig:") {
			sigHex = strings.TrimSpace(strings.TrimPrefix(line, "sig:"))
		}
	}
	if sigHex == "" {
		t.Fatalf("no sig line in sign output: %s", signOut)
	}

	verifyOut := runCmd(t, "verify",
		"--alg", "Dilithium3",
		"--pk", hex.EncodeToString(pk),
		"--domain", "animica:test/v1",
		"--message", message,
		"--sig", sigHex,
	)
	if !strings.Contains(verifyOut, "valid") {
		t.Fatalf("expected valid verification, got: %s", verifyOut)
	}
}

func TestPQVerifyRejectsWrongMessage(t *testing.T) {
	alg, err := pq.DefaultRegistry().ByName("Dilithium3")
	if err != nil {
		t.Fatalf("lookup alg: %v", err)
	}
	pk, sk, err := pq.SignKeypair(alg)
	if err != nil {
		t.Fatalf("keypair: %v", err)
	}

	signOut := runCmd(t, "sign",
		"--alg", "Dilithium3",
		"--sk", hex.EncodeToString(sk),
		"--domain", "animica:test/v1",
		"--message", hex.EncodeToString([]byte("original")),
	)
	var sigHex string
	for _, line := range strings.Split(signOut, "\n") {
		if strings.HasPrefix(line, "sig:") {
			sigHex = strings.TrimSpace(strings.TrimPrefix(line, "sig:"))
		}
	}

	cmd := pqCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"verify",
		"--alg", "Dilithium3",
		"--pk", hex.EncodeToString(pk),
		"--domain", "animica:test/v1",
		"--message", hex.EncodeToString([]byte("tampered")),
		"--sig", sigHex,
	})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected verification failure for tampered message")
	}
}

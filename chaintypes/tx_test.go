package chaintypes

import "testing"

func TestTxCBORRoundTrip(t *testing.T) {
	tx := sampleTx(5)
	enc, err := tx.ToCBOR()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := TxFromCBOR(enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	h1, _ := tx.Hash()
	h2, _ := decoded.Hash()
	if h1 != h2 {
		t.Fatalf("round-tripped tx hash mismatch")
	}
}

func TestTxSanityCheckChainIDMismatch(t *testing.T) {
	tx := sampleTx(0)
	if err := tx.SanityCheck(999); err == nil {
		t.Fatalf("expected chainId mismatch rejection")
	}
	if err := tx.SanityCheck(1); err != nil {
		t.Fatalf("expected chainId match to pass: %v", err)
	}
}

func TestTxSanityCheckGasLimitZero(t *testing.T) {
	tx := sampleTx(0)
	tx.GasLimit = 0
	if err := tx.SanityCheck(0); err == nil {
		t.Fatalf("expected gasLimit=0 rejection")
	}
}

func TestTxSanityCheckShortSignature(t *testing.T) {
	tx := sampleTx(0)
	tx.Signature = make([]byte, 10)
	if err := tx.SanityCheck(0); err == nil {
		t.Fatalf("expected short signature rejection")
	}
}

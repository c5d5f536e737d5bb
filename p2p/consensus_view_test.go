package p2p

import (
	"errors"
	"testing"

	"github.com/animica-network/animica/chaintypes"
)

func TestConsensusViewAcceptsGenesisWithinTolerance(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(5, 1_700_000_000))
	v.Theta0 = 500_000
	h := genesisHeader(t)
	if err := v.ValidateHeader(h, nil); err != nil {
		t.Fatalf("expected genesis to validate, got %v", err)
	}
}

func TestConsensusViewRejectsGenesisOutsideTolerance(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(5, 1_700_000_000))
	v.Theta0 = 500_000
	h := genesisHeader(t)
	h.ThetaMicro = 900_000
	if err := v.ValidateHeader(h, nil); !errors.Is(err, ErrGenesisThetaOutOfTolerance) {
		t.Fatalf("expected ErrGenesisThetaOutOfTolerance, got %v", err)
	}
}

func TestConsensusViewRejectsChainIDMismatch(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(1, 1_700_000_000))
	h := genesisHeader(t) // chainId 5
	if err := v.ValidateHeader(h, nil); !errors.Is(err, ErrSanity) {
		t.Fatalf("expected ErrSanity chainId mismatch, got %v", err)
	}
}

func TestConsensusViewAcceptsChildWithinStepBound(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(5, 1_700_000_000))
	parent := genesisHeader(t)
	child, err := parent.BuildChild(chaintypes.ChildParams{
		Timestamp: parent.Timestamp + 1,
		TxsRoot:   emptyBodiesRoot, ProofsRoot: emptyBodiesRoot, ReceiptsRoot: emptyBodiesRoot,
	})
	if err != nil {
		t.Fatalf("build child: %v", err)
	}
	if err := v.ValidateHeader(child, &parent); err != nil {
		t.Fatalf("expected child to validate, got %v", err)
	}
}

func TestConsensusViewRejectsThetaStepOutOfBound(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(5, 1_700_000_000))
	parent := genesisHeader(t)
	theta := parent.ThetaMicro * 3
	child, err := parent.BuildChild(chaintypes.ChildParams{
		Timestamp:  parent.Timestamp + 1,
		TxsRoot:    emptyBodiesRoot, ProofsRoot: emptyBodiesRoot, ReceiptsRoot: emptyBodiesRoot,
		ThetaMicro: &theta,
	})
	if err != nil {
		t.Fatalf("build child: %v", err)
	}
	if err := v.ValidateHeader(child, &parent); !errors.Is(err, ErrThetaOutOfBounds) {
		t.Fatalf("expected ErrThetaOutOfBounds, got %v", err)
	}
}

func TestConsensusViewRejectsNonMonotonicTimestamp(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(5, 1_700_000_000))
	parent := genesisHeader(t)
	child, err := parent.BuildChild(chaintypes.ChildParams{
		Timestamp: parent.Timestamp,
		TxsRoot:   emptyBodiesRoot, ProofsRoot: emptyBodiesRoot, ReceiptsRoot: emptyBodiesRoot,
	})
	if err != nil {
		t.Fatalf("build child: %v", err)
	}
	if err := v.ValidateHeader(child, &parent); !errors.Is(err, ErrTimestampNonMonotonic) {
		t.Fatalf("expected ErrTimestampNonMonotonic, got %v", err)
	}
}

func TestConsensusViewRejectsPolicyRootMismatch(t *testing.T) {
	v := NewConsensusView(chaintypes.DefaultChainParams(5, 1_700_000_000))
	v.PoiesPolicyRoot[0] = 0xAB
	h := genesisHeader(t)
	if err := v.ValidateHeader(h, nil); !errors.Is(err, ErrPolicyRootMismatch) {
		t.Fatalf("expected ErrPolicyRootMismatch, got %v", err)
	}
}

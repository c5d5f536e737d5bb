package p2p

import (
	"fmt"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/codec"
)

// Absolute Θ bounds, independent of the per-step clamp (§4.12). Every header
// checked against a parent must carry a Θ inside this band; a genesis
// candidate (nil parent) is checked only against the Theta0 tolerance.
const (
	defaultThetaMin uint64 = 1000
	defaultThetaMax uint64 = 1_000_000
)

// ConsensusView is the header-sync-time filter a node runs before a header
// ever reaches the full validator: chain identity, policy-root pinning, and
// Θ/timestamp drift bounds (§4.12). It holds no chain state beyond what the
// caller passes in per call, mirroring the stateless adapter the reference
// node wires into its sync pipeline.
type ConsensusView struct {
	Params ChainParamsView

	// PoiesPolicyRoot and PQAlgPolicyRoot pin the expected policy roots.
	// A zero digest means "no expectation configured" and skips that check,
	// matching the reference adapter's None-means-unchecked convention.
	PoiesPolicyRoot codec.Digest32
	PQAlgPolicyRoot codec.Digest32

	// Theta0, if non-zero, is the configured genesis Θ used for the
	// genesis tolerance check. Zero means unconfigured and skips it.
	Theta0 uint64

	ThetaMin uint64
	ThetaMax uint64
}

// ChainParamsView is the subset of chaintypes.ChainParams a ConsensusView
// needs; kept separate so callers can build one without pulling in the
// whole params struct.
type ChainParamsView struct {
	ChainID               uint64
	ThetaStepRatio        float64
	GenesisToleranceRatio float64
}

// NewConsensusView builds a view from a chaintypes.ChainParams, applying the
// package defaults for the step and tolerance ratios when the params leave
// them at zero.
func NewConsensusView(p chaintypes.ChainParams) *ConsensusView {
	stepRatio := p.ThetaStepRatio
	if stepRatio == 0 {
		stepRatio = 0.25
	}
	tolRatio := p.GenesisToleranceRatio
	if tolRatio == 0 {
		tolRatio = 0.10
	}
	return &ConsensusView{
		Params: ChainParamsView{
			ChainID:               p.ChainID,
			ThetaStepRatio:        stepRatio,
			GenesisToleranceRatio: tolRatio,
		},
		ThetaMin: defaultThetaMin,
		ThetaMax: defaultThetaMax,
	}
}

// ValidateHeader runs the chainId, policy-root, and Θ/timestamp checks in
// sequence against an optional parent (nil parent means h is a genesis
// candidate). This never touches signatures, roots-vs-bodies, or proof
// content — those are the validator's job; this is the cheap pre-filter a
// sync loop runs before bothering to fetch a header's body at all.
func (v *ConsensusView) ValidateHeader(h chaintypes.Header, parent *chaintypes.Header) error {
	if err := v.checkChainID(h); err != nil {
		return err
	}
	if err := v.checkPolicyRoots(h); err != nil {
		return err
	}
	if err := v.checkTheta(h, parent); err != nil {
		return err
	}
	return nil
}

func (v *ConsensusView) checkChainID(h chaintypes.Header) error {
	if h.ChainID == 0 {
		return fmt.Errorf("%w: zero chainId", ErrSanity)
	}
	if v.Params.ChainID != 0 && h.ChainID != v.Params.ChainID {
		return fmt.Errorf("%w: header chainId %d, want %d", ErrSanity, h.ChainID, v.Params.ChainID)
	}
	return nil
}

func (v *ConsensusView) checkPolicyRoots(h chaintypes.Header) error {
	if !v.PoiesPolicyRoot.IsZero() && h.PoiesPolicyRoot != v.PoiesPolicyRoot {
		return ErrPolicyRootMismatch
	}
	if !v.PQAlgPolicyRoot.IsZero() && h.PQAlgPolicyRoot != v.PQAlgPolicyRoot {
		return ErrPolicyRootMismatch
	}
	return nil
}

// thetaBounds computes the symmetric fractional clamp around prevTheta,
// intersected with the absolute [ThetaMin, ThetaMax] band.
func (v *ConsensusView) thetaBounds(prevTheta uint64) (lo, hi float64) {
	ratio := v.Params.ThetaStepRatio
	prev := float64(prevTheta)
	lo = prev * (1 - ratio)
	hi = prev * (1 + ratio)
	if lo < float64(v.ThetaMin) {
		lo = float64(v.ThetaMin)
	}
	if hi > float64(v.ThetaMax) {
		hi = float64(v.ThetaMax)
	}
	return lo, hi
}

func (v *ConsensusView) checkTheta(h chaintypes.Header, parent *chaintypes.Header) error {
	if h.ThetaMicro == 0 {
		return fmt.Errorf("%w: zero thetaMicro", ErrSanity)
	}

	if parent == nil {
		if v.Theta0 != 0 {
			lo := float64(v.Theta0) * (1 - v.Params.GenesisToleranceRatio)
			hi := float64(v.Theta0) * (1 + v.Params.GenesisToleranceRatio)
			theta := float64(h.ThetaMicro)
			if theta < lo || theta > hi {
				return ErrGenesisThetaOutOfTolerance
			}
		}
		return nil
	}

	lo, hi := v.thetaBounds(parent.ThetaMicro)
	theta := float64(h.ThetaMicro)
	if theta < lo || theta > hi {
		return ErrThetaOutOfBounds
	}

	if h.Timestamp != 0 && parent.Timestamp != 0 && h.Timestamp <= parent.Timestamp {
		return ErrTimestampNonMonotonic
	}
	return nil
}

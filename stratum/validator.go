package stratum

import "github.com/animica-network/animica/mining"

// SubmitParams is the decoded body of a submit call, dialect-agnostic.
type SubmitParams struct {
	JobID   string
	Nonce   uint64
	Worker  string
	ExtraNonce2 string
}

// ValidationResult is what a ShareValidator hands back for one submission.
type ValidationResult struct {
	Accepted bool
	IsBlock  bool
	TxCount  int
	Reason   string // set when !Accepted: "stale-job", "low-difficulty", "duplicate", ...
}

// ShareValidator is the injected policy for turning a submit into an
// accept/reject decision. A production node wires this to full HashShare
// verification (recomputing the digest against the job's template and
// checking nullifier dedup); a dev-mode node may accept anything
// structurally well-formed, matching §4.10's "structural-only when no
// verifier is configured" fallback.
type ShareValidator interface {
	Validate(job Job, params SubmitParams) ValidationResult
}

// StructuralValidator accepts any submission whose nonce re-derives a draw
// clearing the job's pushed difficulty, without consulting chain state —
// the "no adapter wired" dev-mode path.
type StructuralValidator struct{}

func (StructuralValidator) Validate(job Job, params SubmitParams) ValidationResult {
	prefix := job.Template.HeaderPrefix()
	mix := job.Template.Header.MixSeed.Bytes()
	digest := mining.Digest(prefix, mix, params.Nonce)
	u := mining.MapUniform(digest)

	if !mining.AcceptShare(u, job.Difficulty) {
		return ValidationResult{Accepted: false, Reason: "low-difficulty"}
	}
	isBlock := job.Template.ThetaMicro != 0 && mining.AcceptBlock(u, job.Template.ThetaMicro)
	return ValidationResult{Accepted: true, IsBlock: isBlock}
}

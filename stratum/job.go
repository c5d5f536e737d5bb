package stratum

import (
	"encoding/hex"

	"github.com/animica-network/animica/mining"
)

// Job is a published unit of work, carrying enough of its template to
// render either dialect's notify/publish_job payload.
type Job struct {
	Template   mining.Template
	CleanJobs  bool
	Difficulty uint64 // θ_share_micro pushed independently of the chain Θ
}

// nativeNotifyParams is the Animica-native "miner.notify" push payload:
// named fields, full header context.
type nativeNotifyParams struct {
	JobID      string `json:"jobId"`
	ParentHash string `json:"parentHash"`
	Height     uint64 `json:"height"`
	Timestamp  uint64 `json:"timestamp"`
	ThetaMicro uint64 `json:"thetaMicro"`
	MixSeed    string `json:"mixSeed"`
	CleanJobs  bool   `json:"cleanJobs"`
}

func (j Job) nativeParams() nativeNotifyParams {
	h := j.Template.Header
	return nativeNotifyParams{
		JobID:      j.Template.JobID,
		ParentHash: hex.EncodeToString(h.ParentHash.Bytes()),
		Height:     h.Height,
		Timestamp:  h.Timestamp,
		ThetaMicro: h.ThetaMicro,
		MixSeed:    hex.EncodeToString(h.MixSeed.Bytes()),
		CleanJobs:  j.CleanJobs,
	}
}

// stratumV1Params renders mining.notify's fixed positional array:
// [jobId, prevhash, coinb1, coinb2, merkleBranch, version, nbits, ntime,
// cleanJobs] (§6.3). Animica has no coinbase-split/merkle-branch concept of
// its own, so coinb1/coinb2/merkleBranch are emitted empty and version/nbits
// are repurposed to carry the header schema version and Θ, keeping the
// classic nine-element shape real Stratum v1 miners already parse.
func (j Job) stratumV1Params() []interface{} {
	h := j.Template.Header
	return []interface{}{
		j.Template.JobID,
		hex.EncodeToString(h.ParentHash.Bytes()),
		"",
		"",
		[]string{},
		h.V,
		h.ThetaMicro,
		h.Timestamp,
		j.CleanJobs,
	}
}

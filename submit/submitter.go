package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
)

// ShareSubmission is one FoundShare rendered for the wire.
type ShareSubmission struct {
	JobID  string `json:"jobId"`
	Nonce  uint64 `json:"nonce"`
	Worker string `json:"worker,omitempty"`
}

// BlockSubmission escalates a share whose draw also cleared the chain-level
// Θ; the node reconstructs the full block from its own mempool/template
// state using jobId + nonce, the same shape a share submission has.
type BlockSubmission struct {
	JobID string `json:"jobId"`
	Nonce uint64 `json:"nonce"`
}

// SubmitOutcome is the per-submission result, whether it came back from a
// batch call or a per-item fallback call.
type SubmitOutcome struct {
	Accepted bool
	Reason   string
	Err      error
}

// Submitter drives submit_share_once/submit_block_once against one
// RPCClient, tracking whether batch submission is still viable for the
// process.
type Submitter struct {
	Client     RPCClient
	MaxRetries uint64
	Stats      Stats

	batchDisabled atomic.Bool
}

// NewSubmitter builds a Submitter with §4.11's default retry budget.
func NewSubmitter(client RPCClient) *Submitter {
	return &Submitter{Client: client, MaxRetries: 5}
}

func (s *Submitter) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, s.MaxRetries)
}

// SubmitSharesOnce tries miner.submitShareBatch first (unless batch mode
// was permanently disabled by an earlier METHOD_NOT_FOUND), falling back to
// one miner.submitShare call per item. Semantic rejections are never
// retried; transport/server errors get exponential backoff up to
// MaxRetries.
func (s *Submitter) SubmitSharesOnce(ctx context.Context, shares []ShareSubmission) ([]SubmitOutcome, error) {
	if len(shares) == 0 {
		return nil, nil
	}

	if !s.batchDisabled.Load() {
		outcomes, err := s.submitBatch(ctx, shares)
		if err == nil {
			return outcomes, nil
		}
		if !IsMethodNotFound(err) {
			return nil, err
		}
		s.batchDisabled.Store(true) // permanent for the process
	}

	outcomes := make([]SubmitOutcome, len(shares))
	for i, share := range shares {
		outcomes[i] = s.submitOneShare(ctx, share)
	}
	return outcomes, nil
}

func (s *Submitter) submitBatch(ctx context.Context, shares []ShareSubmission) ([]SubmitOutcome, error) {
	var raw json.RawMessage
	op := func() error {
		result, err := s.Client.Call(ctx, "miner.submitShareBatch", shares)
		if err != nil {
			if IsMethodNotFound(err) || IsSemanticRejection(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		raw = result
		return nil
	}
	if err := backoff.Retry(op, s.newBackoff()); err != nil {
		s.Stats.recordError(err)
		return nil, unwrapPermanent(err)
	}

	var results []struct {
		Accepted bool   `json:"accepted"`
		Reason   string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("submit: decode batch result: %w", err)
	}
	outcomes := make([]SubmitOutcome, len(results))
	for i, r := range results {
		outcomes[i] = SubmitOutcome{Accepted: r.Accepted, Reason: r.Reason}
		if r.Accepted {
			s.Stats.recordAccepted()
		} else {
			s.Stats.recordRejected()
		}
	}
	return outcomes, nil
}

func (s *Submitter) submitOneShare(ctx context.Context, share ShareSubmission) SubmitOutcome {
	var accepted bool
	op := func() error {
		result, err := s.Client.Call(ctx, "miner.submitShare", share)
		if err != nil {
			if IsSemanticRejection(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		var r struct {
			Accepted bool `json:"accepted"`
		}
		if err := json.Unmarshal(result, &r); err != nil {
			return backoff.Permanent(fmt.Errorf("submit: decode share result: %w", err))
		}
		accepted = r.Accepted
		return nil
	}

	err := backoff.Retry(op, s.newBackoff())
	if err != nil {
		inner := unwrapPermanent(err)
		s.Stats.recordError(inner)
		if IsSemanticRejection(inner) {
			s.Stats.recordRejected()
			return SubmitOutcome{Accepted: false, Reason: inner.Error(), Err: inner}
		}
		return SubmitOutcome{Accepted: false, Err: inner}
	}
	if accepted {
		s.Stats.recordAccepted()
	} else {
		s.Stats.recordRejected()
	}
	return SubmitOutcome{Accepted: accepted}
}

// SubmitBlockOnce submits a found block via miner.submitBlock, with the
// same no-retry-on-semantic-rejection / backoff-on-transport-error contract
// as a share submission.
func (s *Submitter) SubmitBlockOnce(ctx context.Context, block BlockSubmission) SubmitOutcome {
	var accepted bool
	op := func() error {
		result, err := s.Client.Call(ctx, "miner.submitBlock", block)
		if err != nil {
			if IsSemanticRejection(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		var r struct {
			Accepted bool `json:"accepted"`
		}
		if err := json.Unmarshal(result, &r); err != nil {
			return backoff.Permanent(fmt.Errorf("submit: decode block result: %w", err))
		}
		accepted = r.Accepted
		return nil
	}

	err := backoff.Retry(op, s.newBackoff())
	if err != nil {
		inner := unwrapPermanent(err)
		s.Stats.recordError(inner)
		if IsSemanticRejection(inner) {
			s.Stats.recordRejected()
			return SubmitOutcome{Accepted: false, Reason: inner.Error(), Err: inner}
		}
		return SubmitOutcome{Accepted: false, Err: inner}
	}
	if accepted {
		s.Stats.recordAccepted()
	} else {
		s.Stats.recordRejected()
	}
	return SubmitOutcome{Accepted: accepted}
}

// unwrapPermanent pulls the underlying error out of a backoff.PermanentError
// wrapper, if any, so callers always see the original RPCError/sentinel.
func unwrapPermanent(err error) error {
	if pe, ok := err.(*backoff.PermanentError); ok {
		return pe.Err
	}
	return err
}

package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/mining"
	"github.com/animica-network/animica/submit"
)

// SubmitPipe drains found shares from a bounded queue and submits them
// through a Submitter, with N concurrent workers observing latency (§4.15).
// Each worker submits one share at a time rather than batching internally —
// submit.Submitter already owns the batch-vs-per-item decision, so a worker
// here just feeds it one item per call; batching across workers would need
// a barrier this pipe has no reason to introduce.
type SubmitPipe struct {
	submitter Submitter
	queue     <-chan mining.FoundShare
	workers   int
	worker    string
	log       *logrus.Logger
}

// NewSubmitPipe builds a pipe with n concurrent workers draining queue.
func NewSubmitPipe(submitter Submitter, queue <-chan mining.FoundShare, n int, workerName string, log *logrus.Logger) *SubmitPipe {
	if n <= 0 {
		n = 4
	}
	return &SubmitPipe{submitter: submitter, queue: queue, workers: n, worker: workerName, log: log}
}

// Run launches the configured worker count and blocks until ctx is
// canceled and the queue drains.
func (p *SubmitPipe) Run(ctx context.Context) {
	done := make(chan struct{}, p.workers)
	for i := 0; i < p.workers; i++ {
		go func(id int) {
			p.runWorker(ctx, id)
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}
}

func (p *SubmitPipe) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			p.drain(context.Background())
			return
		case share, ok := <-p.queue:
			if !ok {
				return
			}
			p.submitOne(ctx, share)
		}
	}
}

// drain flushes whatever is already buffered in the queue after shutdown
// begins, so a share found just before SIGINT isn't silently lost (§4.15's
// "drain queue" requirement). It stops as soon as the queue is empty —
// nothing else is producing into it once the scanner generation is
// retired.
func (p *SubmitPipe) drain(ctx context.Context) {
	for {
		select {
		case share, ok := <-p.queue:
			if !ok {
				return
			}
			p.submitOne(ctx, share)
		default:
			return
		}
	}
}

func (p *SubmitPipe) submitOne(ctx context.Context, share mining.FoundShare) {
	start := time.Now()
	_, err := p.submitter.SubmitSharesOnce(ctx, []submit.ShareSubmission{{
		JobID: share.JobID, Nonce: share.Nonce, Worker: p.worker,
	}})
	latency := time.Since(start)
	entry := p.log.WithField("jobId", share.JobID).WithField("nonce", share.Nonce).WithField("latencyMs", latency.Milliseconds())
	if err != nil {
		entry.WithError(err).Warn("orchestrator: share submission failed")
		return
	}
	entry.Debug("orchestrator: share submitted")
}

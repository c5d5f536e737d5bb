package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/animica-network/animica/mining"
	"github.com/animica-network/animica/submit"
)

type recordingSubmitter struct {
	mu   sync.Mutex
	seen []submit.ShareSubmission
}

func (s *recordingSubmitter) SubmitSharesOnce(ctx context.Context, shares []submit.ShareSubmission) ([]submit.SubmitOutcome, error) {
	s.mu.Lock()
	s.seen = append(s.seen, shares...)
	s.mu.Unlock()
	outcomes := make([]submit.SubmitOutcome, len(shares))
	for i := range shares {
		outcomes[i] = submit.SubmitOutcome{Accepted: true}
	}
	return outcomes, nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestSubmitPipeDrainsQueue(t *testing.T) {
	queue := make(chan mining.FoundShare, 8)
	sub := &recordingSubmitter{}
	pipe := NewSubmitPipe(sub, queue, 2, "w1", testLogger())

	for i := 0; i < 5; i++ {
		queue <- mining.FoundShare{JobID: "job-x", Nonce: uint64(i)}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pipe.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for sub.count() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sub.count() != 5 {
		t.Fatalf("expected 5 shares submitted, got %d", sub.count())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("submit pipe did not exit after cancel")
	}
}

func TestSubmitPipeDrainsBufferedShareOnShutdown(t *testing.T) {
	queue := make(chan mining.FoundShare, 1)
	sub := &recordingSubmitter{}
	pipe := NewSubmitPipe(sub, queue, 1, "w1", testLogger())

	queue <- mining.FoundShare{JobID: "job-y", Nonce: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // shut down immediately; the buffered share must still drain

	done := make(chan struct{})
	go func() {
		pipe.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("submit pipe did not exit")
	}
	if sub.count() != 1 {
		t.Fatalf("expected the buffered share to be drained, got count %d", sub.count())
	}
}

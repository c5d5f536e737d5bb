package submit

import (
	"context"
	"time"
)

// ShareBufferLike is the caller-owned queue a background consumer drains;
// it is intentionally narrow so any bounded queue (channel-backed, ring
// buffer, disk-spilled) can satisfy it without depending on this package.
type ShareBufferLike interface {
	// PopBatch removes and returns up to max pending shares. An empty
	// result means the buffer is currently drained, not closed.
	PopBatch(max int) []ShareSubmission
}

// RunShareConsumer drains buf in batches of batchSize until ctx is
// cancelled, sleeping pollInterval whenever a drain comes back empty so an
// idle miner doesn't spin the CPU.
func (s *Submitter) RunShareConsumer(ctx context.Context, buf ShareBufferLike, batchSize int, pollInterval time.Duration) {
	if batchSize <= 0 {
		batchSize = 32
	}
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch := buf.PopBatch(batchSize)
		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollInterval):
			}
			continue
		}

		if _, err := s.SubmitSharesOnce(ctx, batch); err != nil {
			s.Stats.recordError(err)
		}
	}
}

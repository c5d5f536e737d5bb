package orchestrator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/mining"
)

// TemplateFeeder polls a TemplateProvider on a fixed cadence and emits a new
// template whenever its jobId changes, broadcasting to an optional
// downstream hub and tracking template age (§4.15).
type TemplateFeeder struct {
	provider     TemplateProvider
	broadcaster  JobBroadcaster
	interval     time.Duration
	log          *logrus.Logger
	lastPollAt   time.Time
	lastTemplate mining.Template
}

// NewTemplateFeeder builds a feeder with the given poll interval; zero
// defaults to 2s per §4.15's reference cadence.
func NewTemplateFeeder(provider TemplateProvider, broadcaster JobBroadcaster, interval time.Duration, log *logrus.Logger) *TemplateFeeder {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &TemplateFeeder{provider: provider, broadcaster: broadcaster, interval: interval, log: log}
}

// Run polls until ctx is canceled, sending every jobId change on out.
// out is closed on return so ScannerTask knows the feed has ended.
func (f *TemplateFeeder) Run(ctx context.Context, out chan<- mining.Template) {
	defer close(out)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	lastJobID := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.lastPollAt = time.Now()
			t, err := f.provider.CurrentTemplate(ctx)
			if err != nil {
				f.log.WithError(err).Warn("orchestrator: template poll failed")
				continue
			}
			if t.JobID == lastJobID {
				continue
			}
			lastJobID = t.JobID
			f.lastTemplate = t

			if f.broadcaster != nil {
				f.broadcaster.PublishTemplate(t)
			}

			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Age reports how long ago the feeder last polled the provider, the metric
// §4.15 asks for.
func (f *TemplateFeeder) Age() time.Duration {
	if f.lastPollAt.IsZero() {
		return 0
	}
	return time.Since(f.lastPollAt)
}

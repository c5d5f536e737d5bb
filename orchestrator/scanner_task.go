package orchestrator

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/mining"
)

// ScannerTask consumes the template stream from a TemplateFeeder and runs
// one goroutine per configured mining.Scanner against the current
// template, writing every FoundShare into a bounded queue (§4.15, default
// capacity 2048). A new template retires the previous generation's
// scanners via their stale flag; mining.Scanner.Run already polls that
// flag every CheckEvery hashes, so retirement is prompt without needing a
// fresh context per template.
type ScannerTask struct {
	scanners   []*mining.Scanner
	templateCh chan mining.Template
	queue      chan mining.FoundShare
	log        *logrus.Logger
}

// NewScannerTask builds a task driving scanners against templates received
// on its TemplateCh, writing shares to queue.
func NewScannerTask(scanners []*mining.Scanner, queue chan mining.FoundShare, log *logrus.Logger) *ScannerTask {
	return &ScannerTask{
		scanners:   scanners,
		templateCh: make(chan mining.Template, 1),
		queue:      queue,
		log:        log,
	}
}

// TemplateCh is the channel a TemplateFeeder sends new templates on.
func (s *ScannerTask) TemplateCh() chan mining.Template { return s.templateCh }

// Queue returns the bounded share output queue.
func (s *ScannerTask) Queue() <-chan mining.FoundShare { return s.queue }

// Run consumes templates until templateCh is closed or ctx is canceled,
// restarting every scanner against each new template.
func (s *ScannerTask) Run(ctx context.Context) {
	var current *atomic.Bool

	for {
		select {
		case <-ctx.Done():
			if current != nil {
				current.Store(true)
			}
			return
		case t, ok := <-s.templateCh:
			if !ok {
				if current != nil {
					current.Store(true)
				}
				return
			}
			if current != nil {
				current.Store(true) // retire the previous generation
			}
			current = new(atomic.Bool)
			s.startGeneration(ctx, t, current)
		}
	}
}

func (s *ScannerTask) startGeneration(ctx context.Context, t mining.Template, stale *atomic.Bool) {
	for _, scanner := range s.scanners {
		scanner := scanner
		go func() {
			dropped, err := scanner.Run(ctx, t, stale, s.queue)
			if err != nil {
				s.log.WithField("jobId", t.JobID).WithError(err).Warn("orchestrator: scanner exited with error")
			}
			if dropped > 0 {
				s.log.WithField("jobId", t.JobID).WithField("dropped", dropped).Debug("orchestrator: scanner dropped shares, queue full")
			}
		}()
	}
}

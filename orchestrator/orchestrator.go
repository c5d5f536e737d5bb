// Package orchestrator composes the mining/stratum/submit/p2p packages into
// a running miner process: a template feed, nonce scanning, share
// submission, and optional useful-work workers, all under one cancelable
// lifetime (§4.15). It owns no domain logic of its own — every task here
// is a thin adapter wiring one package's output to another's input.
package orchestrator

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/mining"
	"github.com/animica-network/animica/submit"
)

// TemplateProvider supplies the current mining template. The orchestrator
// polls it; a node backs this with its chain-tip-tracking logic, which is
// out of this package's scope.
type TemplateProvider interface {
	CurrentTemplate(ctx context.Context) (mining.Template, error)
}

// TemplateProviderFunc adapts a plain function to TemplateProvider.
type TemplateProviderFunc func(ctx context.Context) (mining.Template, error)

func (f TemplateProviderFunc) CurrentTemplate(ctx context.Context) (mining.Template, error) {
	return f(ctx)
}

// JobBroadcaster pushes a new template to connected consumers (the stratum
// hub, a websocket fan-out, ...). Optional: a nil broadcaster just means
// nobody downstream gets pushed jobs, useful for solo CLI mining.
type JobBroadcaster interface {
	PublishTemplate(t mining.Template)
}

// Submitter is the subset of submit.Submitter the SubmitPipe needs.
type Submitter interface {
	SubmitSharesOnce(ctx context.Context, shares []submit.ShareSubmission) ([]submit.SubmitOutcome, error)
}

// Config bundles the tunables §4.15 names.
type Config struct {
	PollInterval    time.Duration // TemplateFeeder poll cadence
	QueueCapacity   int           // ScannerTask output queue, default 2048
	SubmitWorkers   int           // SubmitPipe concurrency, default 4
	ShutdownTimeout time.Duration // bound on drain-and-join at shutdown
	Worker          string        // worker identity attached to submissions
}

// DefaultConfig returns §4.15's defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Second,
		QueueCapacity:   2048,
		SubmitWorkers:   4,
		ShutdownTimeout: 5 * time.Second,
		Worker:          "orchestrator",
	}
}

// Orchestrator composes a TemplateFeeder, a ScannerTask running one
// goroutine per scanner, and a SubmitPipe behind one cancelable lifetime. It is
// compose-only: it owns no consensus or networking logic itself (§4.15).
type Orchestrator struct {
	cfg Config
	log *logrus.Logger

	feeder *TemplateFeeder
	scan   *ScannerTask
	submit *SubmitPipe

	workers []Worker

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New wires a TemplateFeeder → ScannerTask → SubmitPipe pipeline. scanners
// is the set of mining.Scanner instances to run concurrently, one per CPU
// thread or GPU device per §5.
func New(cfg Config, provider TemplateProvider, broadcaster JobBroadcaster, scanners []*mining.Scanner, submitter Submitter, log *logrus.Logger) *Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 2048
	}
	if cfg.SubmitWorkers <= 0 {
		cfg.SubmitWorkers = 4
	}

	shareQueue := make(chan mining.FoundShare, cfg.QueueCapacity)

	feeder := NewTemplateFeeder(provider, broadcaster, cfg.PollInterval, log)
	scan := NewScannerTask(scanners, shareQueue, log)
	pipe := NewSubmitPipe(submitter, shareQueue, cfg.SubmitWorkers, cfg.Worker, log)

	return &Orchestrator{cfg: cfg, log: log, feeder: feeder, scan: scan, submit: pipe}
}

// AddWorker registers an optional useful-work worker (AI/Quantum/Storage/
// VDF) to run alongside the core pipeline. Must be called before Start.
func (o *Orchestrator) AddWorker(w Worker) {
	o.workers = append(o.workers, w)
}

// Start launches the template feed, scanner tasks, submit pipe, and any
// registered useful-work workers. It returns immediately; use Shutdown to
// stop.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.feeder.Run(ctx, o.scan.TemplateCh())
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.scan.Run(ctx)
	}()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.submit.Run(ctx)
	}()

	for _, w := range o.workers {
		w := w
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := w.Run(ctx); err != nil {
				o.log.WithField("worker", w.Name()).WithError(err).Warn("orchestrator: useful-work worker exited")
			}
		}()
	}
}

// Shutdown cancels every task and waits up to cfg.ShutdownTimeout for them
// to drain and join (§4.15). Returns false if the timeout elapsed first.
func (o *Orchestrator) Shutdown() bool {
	if o.cancel == nil {
		return true
	}
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	timeout := o.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		o.log.Warn("orchestrator: shutdown timed out waiting for tasks to join")
		return false
	}
}

// RunUntilSignal starts the orchestrator, blocks until ctx is canceled or
// the process receives SIGINT/SIGTERM, then shuts down gracefully. This is
// the composition a CLI entrypoint's mining command wants; it exists here
// rather than duplicated per-command.
func (o *Orchestrator) RunUntilSignal(ctx context.Context) bool {
	o.Start(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-ctx.Done():
	case <-sig:
		o.log.Info("orchestrator: received shutdown signal")
	}
	return o.Shutdown()
}

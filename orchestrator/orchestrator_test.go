package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/animica-network/animica/mining"
)

func TestOrchestratorEndToEndFindsAndSubmitsShare(t *testing.T) {
	tpl := buildTestTemplate(t, "job-e2e", 0)
	provider := &fixedProvider{templates: []mining.Template{tpl}}
	sub := &recordingSubmitter{}
	scanner := mining.NewScanner(mining.DeviceCPU, 0, 0, 1, 0)

	cfg := DefaultConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.ShutdownTimeout = 2 * time.Second

	o := New(cfg, provider, nil, []*mining.Scanner{scanner}, sub, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for sub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sub.count() == 0 {
		t.Fatalf("expected at least one share submitted end to end")
	}

	if !o.Shutdown() {
		t.Fatalf("expected shutdown to complete within the timeout")
	}
}

func TestOrchestratorShutdownWithoutStartIsNoop(t *testing.T) {
	o := New(DefaultConfig(), TemplateProviderFunc(func(ctx context.Context) (mining.Template, error) {
		return mining.Template{}, nil
	}), nil, nil, &recordingSubmitter{}, testLogger())
	if !o.Shutdown() {
		t.Fatalf("expected Shutdown called before Start to report success")
	}
}

type recordingWorker struct {
	name string
	ran  chan struct{}
}

func (w *recordingWorker) Name() string { return w.name }

func (w *recordingWorker) Run(ctx context.Context) error {
	close(w.ran)
	<-ctx.Done()
	return nil
}

func TestOrchestratorRunsRegisteredWorkers(t *testing.T) {
	provider := TemplateProviderFunc(func(ctx context.Context) (mining.Template, error) {
		return mining.Template{}, nil
	})
	o := New(DefaultConfig(), provider, nil, nil, &recordingSubmitter{}, testLogger())
	w := &recordingWorker{name: "ai-worker", ran: make(chan struct{})}
	o.AddWorker(w)

	ctx, cancel := context.WithCancel(context.Background())
	o.Start(ctx)

	select {
	case <-w.ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("registered worker never ran")
	}

	cancel()
	o.Shutdown()
}

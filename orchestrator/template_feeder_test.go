package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/mining"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func buildTestTemplate(t *testing.T, jobID string, theta uint64) mining.Template {
	t.Helper()
	h, err := chaintypes.Genesis(chaintypes.GenesisParams{ChainID: 3, Timestamp: 1, ThetaMicro: theta})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	tpl, err := mining.BuildTemplate(jobID, h, nil, nil)
	if err != nil {
		t.Fatalf("build template: %v", err)
	}
	return tpl
}

type fixedProvider struct {
	templates []mining.Template
	i         int
}

func (p *fixedProvider) CurrentTemplate(ctx context.Context) (mining.Template, error) {
	if p.i >= len(p.templates) {
		return p.templates[len(p.templates)-1], nil
	}
	t := p.templates[p.i]
	p.i++
	return t, nil
}

type countingBroadcaster struct {
	published []mining.Template
}

func (b *countingBroadcaster) PublishTemplate(t mining.Template) {
	b.published = append(b.published, t)
}

func TestTemplateFeederEmitsOnJobIDChange(t *testing.T) {
	a := buildTestTemplate(t, "job-a", 0)
	b := buildTestTemplate(t, "job-b", 0)
	provider := &fixedProvider{templates: []mining.Template{a, a, b}}
	bcast := &countingBroadcaster{}

	feeder := NewTemplateFeeder(provider, bcast, 5*time.Millisecond, testLogger())
	out := make(chan mining.Template, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feeder.Run(ctx, out)
		close(done)
	}()

	first := <-out
	if first.JobID != "job-a" {
		t.Fatalf("expected job-a first, got %q", first.JobID)
	}
	second := <-out
	if second.JobID != "job-b" {
		t.Fatalf("expected job-b second (jobId-change dedupe), got %q", second.JobID)
	}

	cancel()
	<-done

	if len(bcast.published) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(bcast.published))
	}
}

func TestTemplateFeederSurvivesProviderError(t *testing.T) {
	provider := TemplateProviderFunc(func(ctx context.Context) (mining.Template, error) {
		return mining.Template{}, errors.New("boom")
	})
	feeder := NewTemplateFeeder(provider, nil, 5*time.Millisecond, testLogger())
	out := make(chan mining.Template)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feeder.Run(ctx, out)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("feeder did not exit after cancel")
	}
}

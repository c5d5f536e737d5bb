package orchestrator

import "context"

// Worker is an optional useful-work producer (AI, Quantum, Storage, VDF)
// the orchestrator spawns alongside the core mining pipeline (§4.15). This
// core treats proof bodies as opaque per the spec's own non-goal on
// AI/Quantum/Storage/VDF body semantics, so no concrete Worker
// implementation ships here — this is the plugin point a deployment wires
// its own job runners into via AddWorker. A worker's failure is logged by
// Orchestrator.Start and never brings down the core pipeline.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

// Package pipeline defines the progress vocabulary shared by the driver
// and its sinks: which module is in which generation stage, and how far
// along it is. The driver produces events, console and TUI sinks consume
// them.
package pipeline

import "time"

// Stage describes one step of turning a module into output text.
type Stage string

const (
	// StageTranslate lowers the typed AST into IR.
	StageTranslate Stage = "translate"
	// StageVerify runs the IR well-formedness check.
	StageVerify Stage = "verify"
	// StageEmit renders the IR to target text.
	StageEmit Stage = "emit"
	// StageWrite stores the artifact on disk.
	StageWrite Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the module is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the module is being processed.
	StatusWorking Status = "working"
	// StatusCached indicates the artifact came from the generation cache.
	StatusCached Status = "cached"
	// StatusDone indicates the stage finished.
	StatusDone Status = "done"
	// StatusError indicates the stage failed.
	StatusError Status = "error"
)

// Event reports progress for a module, or for the whole run when Module
// is empty.
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Timings accumulates per-stage durations across a run.
type Timings struct {
	stages map[Stage]time.Duration
}

// Add accumulates dur into the stage total.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

// Duration returns the accumulated duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum totals the given stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

// Package driver turns typed modules into on-disk artifacts. Modules
// are independent, so the driver translates them concurrently, one
// translation context per module, and reports per-stage progress to an
// attached sink. Unchanged modules are served from the generation
// cache.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"ember/internal/ast"
	"ember/internal/backend/llvm"
	"ember/internal/diag"
	"ember/internal/gencache"
	"ember/internal/ir"
	"ember/internal/layout"
	"ember/internal/pipeline"
	"ember/internal/trace"
	"ember/internal/trans"
)

// Options configure one Build run.
type Options struct {
	// Target selects the ABI of the generated code. A zero value picks
	// the default target.
	Target layout.Target
	// OutDir receives one <module>.ll per input. Empty skips writing.
	OutDir string
	// Jobs caps concurrent module translations; <=0 means GOMAXPROCS.
	Jobs int
	// Verify runs the IR well-formedness check as its own stage.
	Verify bool
	// TrustClaims elides claimed checks instead of evaluating them.
	TrustClaims bool
	// Cache serves unchanged modules without retranslation. Nil disables.
	Cache *gencache.Cache
	// Sink receives progress events. Nil discards them.
	Sink pipeline.ProgressSink
	// Tracer receives build spans. Nil disables tracing.
	Tracer trace.Tracer
	// Reporter collects driver diagnostics. Nil discards them.
	Reporter diag.Reporter
}

// ModuleResult is the outcome for one input module.
type ModuleResult struct {
	Name   string
	Path   string // written artifact, empty until the write stage ran
	Text   string
	Stats  trans.Stats
	Cached bool
	Err    error
	// Elapsed covers the whole module, cache probes included.
	Elapsed time.Duration

	code     diag.Code
	cacheErr error
	dTrans   time.Duration
	dVerify  time.Duration
	dEmit    time.Duration
	dWrite   time.Duration
}

// Result is the outcome of a whole run. Modules keeps input order.
type Result struct {
	Modules []ModuleResult
	Timings pipeline.Timings
	Failed  int
}

// Build generates artifacts for every module. Per-module failures are
// recorded in the result and reported as diagnostics; Build itself only
// fails on setup problems or context cancellation.
func Build(ctx context.Context, mods []*ast.Module, opts Options) (*Result, error) {
	if opts.Target.Triple == "" {
		opts.Target = layout.X86_64LinuxGNU()
	}
	if len(mods) == 0 {
		diag.Warnf(opts.Reporter, diag.DrvNoModules, "nothing to generate")
		return &Result{}, nil
	}
	seen := make(map[string]bool, len(mods))
	for _, mod := range mods {
		if seen[mod.Name] {
			return nil, fmt.Errorf("driver: duplicate module name %q", mod.Name)
		}
		seen[mod.Name] = true
	}
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("driver: out dir: %w", err)
		}
	}

	root := trace.Begin(opts.Tracer, trace.ScopeDriver, "build", 0)

	for _, mod := range mods {
		publish(opts.Sink, pipeline.Event{Module: mod.Name, Status: pipeline.StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]ModuleResult, len(mods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(mods)))
	for i, mod := range mods {
		i, mod := i, mod
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Slots are per-goroutine, so no mutex is needed.
			results[i] = buildOne(mod, opts, root.ID())
			return nil
		})
	}
	waitErr := g.Wait()

	res := &Result{Modules: results}
	cached := 0
	for i := range results {
		r := &results[i]
		res.Timings.Add(pipeline.StageTranslate, r.dTrans)
		res.Timings.Add(pipeline.StageVerify, r.dVerify)
		res.Timings.Add(pipeline.StageEmit, r.dEmit)
		res.Timings.Add(pipeline.StageWrite, r.dWrite)
		if r.Cached {
			cached++
		}
		if r.Err != nil {
			res.Failed++
			code := r.code
			if code == 0 {
				code = diag.GenICE
			}
			diag.Errorf(opts.Reporter, code, "%s: %v", r.Name, r.Err)
		}
		if r.cacheErr != nil {
			diag.Warnf(opts.Reporter, diag.DrvCacheReset, "%s: cache write: %v", r.Name, r.cacheErr)
		}
	}
	root.End(fmt.Sprintf("modules=%d cached=%d failed=%d", len(mods), cached, res.Failed))

	if waitErr != nil {
		return res, waitErr
	}
	return res, nil
}

// buildOne runs the stage pipeline for a single module.
func buildOne(mod *ast.Module, opts Options, parent uint64) (res ModuleResult) {
	res.Name = mod.Name
	started := time.Now()
	span := trace.Begin(opts.Tracer, trace.ScopeModule, "module:"+mod.Name, parent)
	defer func() {
		res.Elapsed = time.Since(started)
		span.End(fmt.Sprintf("cached=%t err=%t", res.Cached, res.Err != nil))
	}()

	stage := func(s pipeline.Stage, st pipeline.Status, err error, d time.Duration) {
		publish(opts.Sink, pipeline.Event{Module: mod.Name, Stage: s, Status: st, Err: err, Elapsed: d})
	}

	var key gencache.Digest
	if opts.Cache != nil {
		key = cacheKey(mod, opts.Target.Triple, opts)
		if art, err := opts.Cache.Get(key); err == nil {
			res.Cached = true
			res.Text = art.Text
			res.Stats.Funcs = art.Funcs
			stage(pipeline.StageTranslate, pipeline.StatusCached, nil, 0)
			res.write(mod.Name, opts, stage)
			return res
		}
	}

	stage(pipeline.StageTranslate, pipeline.StatusWorking, nil, 0)
	t0 := time.Now()
	out, stats, err := trans.Translate(mod, trans.Options{
		Target:      opts.Target,
		Tracer:      opts.Tracer,
		TrustClaims: opts.TrustClaims,
	})
	res.dTrans = time.Since(t0)
	res.Stats = stats
	if err != nil {
		res.Err = fmt.Errorf("translate %s: %w", mod.Name, err)
		res.code = diag.GenICE
		stage(pipeline.StageTranslate, pipeline.StatusError, res.Err, res.dTrans)
		return res
	}
	stage(pipeline.StageTranslate, pipeline.StatusDone, nil, res.dTrans)

	if opts.Verify {
		stage(pipeline.StageVerify, pipeline.StatusWorking, nil, 0)
		t0 = time.Now()
		cerr := ir.CheckModule(out)
		res.dVerify = time.Since(t0)
		if cerr != nil {
			res.Err = fmt.Errorf("verify %s: %w", mod.Name, cerr)
			res.code = diag.GenVerify
			stage(pipeline.StageVerify, pipeline.StatusError, res.Err, res.dVerify)
			return res
		}
		stage(pipeline.StageVerify, pipeline.StatusDone, nil, res.dVerify)
	}

	stage(pipeline.StageEmit, pipeline.StatusWorking, nil, 0)
	t0 = time.Now()
	text, err := llvm.EmitModule(out)
	res.dEmit = time.Since(t0)
	if err != nil {
		res.Err = fmt.Errorf("emit %s: %w", mod.Name, err)
		res.code = diag.GenICE
		stage(pipeline.StageEmit, pipeline.StatusError, res.Err, res.dEmit)
		return res
	}
	res.Text = text
	stage(pipeline.StageEmit, pipeline.StatusDone, nil, res.dEmit)

	if opts.Cache != nil {
		res.cacheErr = opts.Cache.Put(key, &gencache.Artifact{
			Module:  mod.Name,
			Triple:  opts.Target.Triple,
			Text:    text,
			Funcs:   stats.Funcs,
			Globals: len(out.Globals),
			Created: time.Now(),
		})
	}

	res.write(mod.Name, opts, stage)
	return res
}

// write stores the emitted text when an output directory is set.
func (res *ModuleResult) write(name string, opts Options, stage func(pipeline.Stage, pipeline.Status, error, time.Duration)) {
	if opts.OutDir == "" || res.Err != nil {
		return
	}
	stage(pipeline.StageWrite, pipeline.StatusWorking, nil, 0)
	t0 := time.Now()
	p := filepath.Join(opts.OutDir, name+".ll")
	err := os.WriteFile(p, []byte(res.Text), 0o644)
	res.dWrite = time.Since(t0)
	if err != nil {
		res.Err = fmt.Errorf("write %s: %w", name, err)
		res.code = diag.DrvWriteFailed
		stage(pipeline.StageWrite, pipeline.StatusError, res.Err, res.dWrite)
		return
	}
	res.Path = p
	stage(pipeline.StageWrite, pipeline.StatusDone, nil, res.dWrite)
}

func publish(s pipeline.ProgressSink, evt pipeline.Event) {
	if s != nil {
		s.OnEvent(evt)
	}
}

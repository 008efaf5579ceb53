// Package coordinator runs the two-phase build lifecycle (spec §2):
// the Build Coordinator drives buildStart -> graph construction ->
// buildEnd, and the Generate Coordinator drives one generate/write call
// against the resulting chunk list.
package coordinator

import (
	"github.com/bundleforge/bundleforge/internal/asset"
	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/cache"
	"github.com/bundleforge/bundleforge/internal/graphcore"
	"github.com/bundleforge/bundleforge/internal/logger"
	"github.com/bundleforge/bundleforge/internal/timing"
)

// Build is the handle returned once the BUILD phase completes (spec §3:
// "Build: { cache, generate, write, getTimings? }"). GenerateCoordinator
// methods hang off it so repeated generate/write calls share the chunk
// list and the chunk-optimization idempotence latch.
type Build struct {
	Input  *buildmodel.InputOptions
	ctx    *buildmodel.Context
	chunks []graphcore.Chunk
	assets *asset.Registry
	cache  *cache.Set
	timer  *timing.Recorder
	log    logger.Log

	optimized bool // idempotence latch for chunk optimization (spec §3, §4.5 step 10)
}

// Coordinator runs the Build Coordinator's sequence (spec §4.4).
type Coordinator struct {
	Graph         graphcore.Graph
	ExportMetrics bool
}

// NewCoordinator constructs a Coordinator bound to the given Graph
// implementation. Passing nil is only valid for tests that never call
// Run.
func NewCoordinator(graph graphcore.Graph) *Coordinator {
	return &Coordinator{Graph: graph}
}

// Run executes spec §4.4 steps 1-9 and returns the resulting Build.
// watcher is the enclosing watch reactor reference, consumed once and
// cleared so it cannot be reused by a later build (spec §4.4 step 3).
func (c *Coordinator) Run(input *buildmodel.InputOptions, watcher interface{}) (*Build, error) {
	log := logger.NewDeferLog()
	timer := timing.New(input.Perf, c.ExportMetrics)

	registry := asset.New()
	cacheSet := cache.New(cacheSeed(input.CacheSeed))
	if aware, ok := c.Graph.(graphcore.CacheAware); ok {
		aware.SetCache(cacheSet)
	}

	ctx := buildmodel.NewContext(buildmodel.ContextConfig{
		Log:        log,
		IsExternal: input.External.IsExternal,
		Assets:     registry,
		Watcher:    watcher,
	})
	watcher = nil // consumed; the slot cannot be read again

	timer.Begin("#BUILD")
	defer timer.End("#BUILD")

	buildErr := buildmodel.ParallelFanOut(input.Plugins, func(p *buildmodel.Plugin) error {
		if p.BuildStart == nil {
			return nil
		}
		return p.BuildStart(ctx.ForPlugin(p.Name))
	})

	var chunks []graphcore.Chunk
	var graphErr error
	if buildErr == nil {
		chunks, graphErr = c.Graph.Build(ctx, input)
		if graphErr != nil {
			buildErr = graphErr
		}
	}

	endErr := buildmodel.ParallelFanOut(input.Plugins, func(p *buildmodel.Plugin) error {
		if p.BuildEnd == nil {
			return nil
		}
		return p.BuildEnd(ctx.ForPlugin(p.Name), buildErr)
	})

	if buildErr != nil {
		return nil, buildErr
	}
	if endErr != nil {
		return nil, endErr
	}

	forwardWarnings(log, input.OnWarn)

	return &Build{
		Input:  input,
		ctx:    ctx,
		chunks: chunks,
		assets: registry,
		cache:  cacheSet,
		timer:  timer,
		log:    log,
	}, nil
}

// GetTimings returns the BUILD/GENERATE duration map (spec §6), nil if
// perf was not requested.
func (b *Build) GetTimings() map[string]float64 {
	return b.timer.Milliseconds()
}

// Cache returns the serializable transform-cache snapshot (spec §3,
// §9), suitable for feeding back into a later InputOptions.CacheSeed.
func (b *Build) Cache() *cache.Snapshot {
	return b.cache.Export()
}

// ContextFor returns a Context attributing subsequent warnings/errors
// to pluginName, for callers outside this package that need to invoke
// a plugin hook against this Build's state (the Output Writer's
// legacy onwrite dispatch).
func (b *Build) ContextFor(pluginName string) *buildmodel.Context {
	return b.ctx.ForPlugin(pluginName)
}

func cacheSeed(raw interface{}) *cache.Snapshot {
	if snap, ok := raw.(*cache.Snapshot); ok {
		return snap
	}
	return nil
}

func forwardWarnings(log logger.Log, onWarn func(logger.Msg)) {
	sink := onWarn
	if sink == nil {
		sink = logger.StderrWarnSink
	}
	for _, msg := range log.Done() {
		sink(msg)
	}
}

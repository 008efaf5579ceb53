// Package api is the public entry point: Bundle(config) runs the
// Option Normalizer and the Build Coordinator and hands back a Build
// handle whose Generate and Write methods each run one pass of the
// Generate Coordinator (spec §2, §6).
package api

import (
	"github.com/bundleforge/bundleforge/internal/api_helpers"
	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/coordinator"
	"github.com/bundleforge/bundleforge/internal/fs"
	"github.com/bundleforge/bundleforge/internal/graphcore"
	"github.com/bundleforge/bundleforge/internal/logger"
	"github.com/bundleforge/bundleforge/internal/optnorm"
	"github.com/bundleforge/bundleforge/internal/writer"
)

// Input is the public, loosely-typed configuration accepted by Bundle.
// It is an alias of optnorm.RawInput so callers never need to import
// the internal package directly.
type Input = optnorm.RawInput

// Output is the public, loosely-typed per-generate-call configuration.
type Output = optnorm.RawOutput

// Msg is a warning or error surfaced through Input.OnWarn.
type Msg = logger.Msg

// Error is the structured failure value every public entry point
// returns on failure (spec §7).
type Error = buildmodel.Error

// GenerateResult mirrors generate(output)'s resolved value: the
// resulting chunks and assets, in the order spec §6 mandates.
type GenerateResult struct {
	Output []buildmodel.Item
}

// Build is the handle returned once the BUILD phase has completed: it
// carries the chunk list the Graph produced and can be asked to
// generate or write it in any number of output configurations without
// re-running buildStart/buildEnd (spec §3: "Build: { cache, generate,
// write, getTimings? }").
type Build struct {
	inner     *coordinator.Build
	watchedFS fs.FS
}

// Bundle runs the Option Normalizer and the Build Coordinator against
// raw, returning a Build handle or a structured *Error. watcher is an
// opaque handle threaded through to plugin BuildStart/BuildEnd hooks
// via Context.Watcher(); pass nil for a one-shot build.
func Bundle(raw *Input, watcher interface{}) (*Build, error) {
	inputOpts, _, err := optnorm.NormalizeInput(raw)
	if err != nil {
		return nil, err
	}

	filesystem := fs.RealFS()
	// The cache set is nil here; Coordinator.Run builds the real one from
	// inputOpts.CacheSeed and hands it to graph via graphcore.CacheAware
	// before Graph.Build runs.
	graph := graphcore.NewDefaultGraph(filesystem, nil)
	c := coordinator.NewCoordinator(graph)
	c.ExportMetrics = api_helpers.UseTimer

	build, err := c.Run(inputOpts, watcher)
	if err != nil {
		return nil, err
	}
	return &Build{inner: build, watchedFS: filesystem}, nil
}

// Generate runs the Generate Coordinator against out and returns the
// in-memory result without touching the filesystem (spec §4.5).
func (b *Build) Generate(out *Output) (*GenerateResult, error) {
	normalized, err := optnorm.NormalizeOutput(out)
	if err != nil {
		return nil, err
	}
	bundle, err := b.inner.Generate(normalized, false)
	if err != nil {
		return nil, err
	}
	return &GenerateResult{Output: bundle.Output()}, nil
}

// Write runs the Generate Coordinator against out and persists the
// result to out.Dir (or the directory containing out.File) via the
// Output Writer (spec §4.7).
func (b *Build) Write(out *Output) (*GenerateResult, error) {
	normalized, err := optnorm.NormalizeOutput(out)
	if err != nil {
		return nil, err
	}
	bundle, err := b.inner.Generate(normalized, true)
	if err != nil {
		return nil, err
	}

	dir := b.writeDir(normalized)
	if err := writer.Write(dir, normalized, bundle, b.inner.Input.Plugins, b.inner.ContextFor); err != nil {
		return nil, err
	}
	return &GenerateResult{Output: bundle.Output()}, nil
}

func (b *Build) writeDir(out *buildmodel.OutputOptions) string {
	if out.Dir != "" {
		return out.Dir
	}
	return b.watchedFS.Dir(out.File)
}

// GetTimings returns the BUILD/GENERATE duration map, nil unless
// Input.Perf was set (spec §6).
func (b *Build) GetTimings() map[string]float64 {
	return b.inner.GetTimings()
}

// Cache returns a serializable snapshot of this Build's transform
// cache, suitable for feeding back into a later Input.CacheSeed
// (spec §3, §9).
func (b *Build) Cache() interface{} {
	return b.inner.Cache()
}

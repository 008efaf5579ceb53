// Package graphcore defines the Graph/Chunk collaborator the orchestration
// core delegates to (spec §9 "opaque module-graph dependency") and ships
// one concrete, minimal implementation of it. Real module resolution,
// parsing, tree-shaking and chunk assignment are explicitly out of scope
// (spec §1); DefaultGraph exists so the Build/Generate Coordinators have
// something real to drive end to end, not to solve those problems.
package graphcore

import (
	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/cache"
)

// Graph is the collaborator the Build Coordinator constructs once per
// Build and hands chunk requests to (spec §9): "build(input, manualChunks,
// inlineDynamicImports, preserveModules) -> sequence<Chunk>".
type Graph interface {
	Build(ctx *buildmodel.Context, input *buildmodel.InputOptions) ([]Chunk, error)
}

// CacheAware is implemented by a Graph that can reuse the Coordinator's
// per-build transform cache across builds (spec §3, §9 "Cache as
// serializable snapshot"). Coordinator.Run checks for this via a type
// assertion and calls SetCache before Graph.Build whenever the Graph
// supports it, so a Graph with no notion of caching (a hand-rolled test
// double, say) isn't forced to implement a method it has no use for.
type CacheAware interface {
	SetCache(*cache.Set)
}

// RenderedAddons is the resolved banner/footer/intro/outro text a Chunk's
// Render receives, already composed by the Generate Coordinator
// (spec §4.5 step 7).
type RenderedAddons struct {
	Banner, Footer, Intro, Outro string
}

// Chunk is the opaque per-output unit the spec leaves to the Graph
// (spec §3): "entry flag, facade flag, entry module reference, rendered
// exports, imports", plus the methods the Generate Coordinator calls in
// sequence during a generate call.
type Chunk interface {
	IsEntry() bool
	IsFacade() bool
	EntryModuleID() string
	ModuleIDs() []string
	ExportNames() []string
	ImportIDs() []string

	// GenerateInternalExports derives the facade's export mode from
	// {default, named, none, auto} (spec §4.5 step 8).
	GenerateInternalExports(format buildmodel.Format, mode buildmodel.ExportMode)

	// PreRender computes whatever a chunk needs to know about its own
	// shape before naming and rendering (spec §4.5 step 9).
	PreRender(out *buildmodel.OutputOptions, inputBase string)

	// GenerateID expands a name template against this chunk, avoiding
	// collisions with taken (spec §4.5 step 11).
	GenerateID(template string, inputBase string, taken map[string]bool) string

	// GenerateIDPreserveModules derives a filename directly from the
	// chunk's entry module path, for preserveModules mode.
	GenerateIDPreserveModules(inputBase string) string

	// Render produces the final code and, if requested, a source map
	// (spec §4.5 step 13).
	Render(out *buildmodel.OutputOptions, addons RenderedAddons) (code string, mapJSON []byte, err error)
}

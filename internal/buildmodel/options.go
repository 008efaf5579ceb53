// Package buildmodel holds the data model shared by every stage of the
// pipeline: normalized options, the plugin hook surface, the per-build
// context passed to hooks, the output bundle, and the error shape. These
// types are mutually referential (a Plugin hook takes a *Context; a
// generateBundle hook also takes the OutputOptions and Bundle it is
// running against) so they live together rather than being split across packages
// that would otherwise import each other in a circle.
package buildmodel

import "github.com/bundleforge/bundleforge/internal/logger"

// Format is the target module format for a generate call (spec §3).
type Format uint8

const (
	FormatES Format = iota
	FormatCJS
	FormatAMD
	FormatSystemJS
	FormatIIFE
	FormatUMD
)

func (f Format) String() string {
	switch f {
	case FormatES:
		return "es"
	case FormatCJS:
		return "cjs"
	case FormatAMD:
		return "amd"
	case FormatSystemJS:
		return "system"
	case FormatIIFE:
		return "iife"
	case FormatUMD:
		return "umd"
	default:
		return "unknown"
	}
}

// SourceMapMode selects how (or whether) a generate call produces source
// maps (spec §3).
type SourceMapMode uint8

const (
	SourceMapOff SourceMapMode = iota
	SourceMapExternal
	SourceMapInline
)

// ExportMode controls how a facade chunk re-exports its entry module
// (spec §4.5 step 8).
type ExportMode uint8

const (
	ExportAuto ExportMode = iota
	ExportDefault
	ExportNamed
	ExportNone
)

// ExternalPolicy decides whether a resolved module id should be treated
// as external rather than bundled (spec §3: "either an explicit set of
// ids or a predicate").
type ExternalPolicy struct {
	IDs       map[string]bool
	Predicate func(id string, importer string, isResolved bool) bool
}

func (p ExternalPolicy) IsExternal(id string, importer string, isResolved bool) bool {
	if p.IDs != nil && p.IDs[id] {
		return true
	}
	if p.Predicate != nil {
		return p.Predicate(id, importer, isResolved)
	}
	return false
}

// EntrySpec is the normalized form of InputOptions.Input: either a single
// path, an ordered list of paths, or a named alias-to-path mapping. The
// normalizer always produces the alias-to-path form internally, and
// EntryOrder preserves the order entries were declared in so results can
// be sorted "entry chunks first, in emission order" (spec §6). An entry
// given as an alias mapping has no declaration order; its aliases are
// sorted alphabetically.
type EntrySpec struct {
	EntryOrder []string          // aliases, in declaration order (sorted for an alias mapping)
	Entries    map[string]string // alias -> module id
}

// InputOptions is the normalized, immutable configuration for a Build
// (spec §3).
type InputOptions struct {
	Input EntrySpec

	Plugins []*Plugin

	External ExternalPolicy

	TreeShaking bool

	PreserveModules      bool
	InlineDynamicImports bool
	OptimizeChunks       bool
	ChunkGroupingSize    int
	ManualChunks         map[string][]string
	PreferConst          bool
	Perf                 bool
	ShimMissingExports   bool

	CacheSeed interface{} // opaque cache snapshot fed back by the caller

	OnWarn func(logger.Msg)
}

// OutputOptions is the normalized, per-generate-call configuration
// (spec §3).
type OutputOptions struct {
	Format Format

	File string
	Dir  string

	EntryFileNames string
	ChunkFileNames string
	AssetFileNames string

	Sourcemap     SourceMapMode
	SourcemapFile string

	Globals map[string]string

	Banner Addon
	Footer Addon
	Intro  Addon
	Outro  Addon

	Compact               bool
	Indent                string
	Strict                bool
	Freeze                bool
	ESModule              bool
	NamespaceToStringTag  bool
	Interop               bool
	Extend                bool
}

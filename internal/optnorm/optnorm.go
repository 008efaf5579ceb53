// Package optnorm implements the Option Normalizer: it turns the
// loosely-typed configuration a caller hands to Bundle() into the
// validated, immutable buildmodel.InputOptions and the normalized
// sequence of buildmodel.OutputOptions every later stage consumes.
package optnorm

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/helpers"
	"github.com/bundleforge/bundleforge/internal/logger"
)

// RawInput is the loosely-typed configuration object accepted by the
// public entry point (spec §4.1). Only one of the Input* fields should
// be set; NormalizeInput figures out which.
type RawInput struct {
	InputPath    string
	InputPaths   []string
	InputAliases map[string]string

	Plugins []*buildmodel.Plugin

	External         map[string]bool
	ExternalPredicate func(id string, importer string, isResolved bool) bool

	TreeShaking bool

	PreserveModules      bool
	InlineDynamicImports bool
	OptimizeChunks       bool
	ChunkGroupingSize    int
	ManualChunks         map[string][]string
	PreferConst          bool
	Perf                 bool
	ShimMissingExports   bool

	CacheSeed interface{}
	OnWarn    func(logger.Msg)

	// Output carries either a single RawOutput or a sequence of them
	// (spec §4.1: "the public API accepts a single output or a sequence").
	Output []RawOutput

	// Legacy/top-level fields that only exist so NormalizeInput can
	// reject or fold them; they have no field in buildmodel.InputOptions.
	Transform       interface{}
	Load            interface{}
	ResolveID       interface{}
	ResolveExternal interface{}
	ModuleID        string
	AMD             map[string]interface{}

	// OutputFallback mirrors output fields that were historically
	// accepted at the top level of the input config, lowest precedence
	// in the output merge (spec §4.1's three-source precedence).
	OutputFallback *RawOutput
}

// RawOutput is the loosely-typed per-generate-call configuration (spec
// §3's OutputOptions, pre-validation). A zero value means "not set".
// Sourcemap is interface{}-typed so that a bool, "inline" and absent
// (nil) can be told apart; the hygiene flags are plain bools, so an
// unset flag and an explicit false are the same value.
type RawOutput struct {
	Format string

	File string
	Dir  string

	EntryFileNames string
	ChunkFileNames string
	AssetFileNames string

	Sourcemap     interface{} // bool, "inline", or absent (nil)
	SourcemapFile string

	Globals map[string]string

	Banner buildmodel.Addon
	Footer buildmodel.Addon
	Intro  buildmodel.Addon
	Outro  buildmodel.Addon

	Compact              bool
	Indent               string
	Strict               bool
	Freeze               bool
	ESModule             bool
	NamespaceToStringTag bool
	Interop              bool
	Extend               bool
}

var formatNames = map[string]buildmodel.Format{
	"es":     buildmodel.FormatES,
	"esm":    buildmodel.FormatES,
	"cjs":    buildmodel.FormatCJS,
	"commonjs": buildmodel.FormatCJS,
	"amd":    buildmodel.FormatAMD,
	"system": buildmodel.FormatSystemJS,
	"systemjs": buildmodel.FormatSystemJS,
	"iife":   buildmodel.FormatIIFE,
	"umd":    buildmodel.FormatUMD,
}

// renamedOption is one entry of the deprecated-option rename table
// (spec §4.1: "collects and reports renamed-option pairs ... as a
// DEPRECATED_OPTIONS warning").
type renamedOption struct {
	from, to string
}

var renamedOutputOptions = []renamedOption{
	{"moduleId", "output.amd.id"},
}

// NormalizeInput validates raw and produces the InputOptions plus the
// normalized sequence of OutputOptions (spec §4.1).
func NormalizeInput(raw *RawInput) (*buildmodel.InputOptions, []*buildmodel.OutputOptions, error) {
	if raw.Transform != nil || raw.Load != nil || raw.ResolveID != nil || raw.ResolveExternal != nil {
		return nil, nil, buildmodel.NewError(buildmodel.CodeUnsupportedLegacyOption,
			"transform, load, resolveId and resolveExternal are no longer accepted at the top level; use a plugin")
	}
	if raw.AMD != nil && raw.ModuleID != "" {
		return nil, nil, buildmodel.NewError(buildmodel.CodeConflictingOption,
			"amd and the legacy moduleId option cannot both be set")
	}

	entries, err := normalizeEntrySpec(raw)
	if err != nil {
		return nil, nil, err
	}

	if raw.InlineDynamicImports {
		if len(raw.ManualChunks) > 0 {
			return nil, nil, buildmodel.NewError(buildmodel.CodeConflictingOption,
				"manualChunks cannot be used with inlineDynamicImports")
		}
		if raw.OptimizeChunks {
			return nil, nil, buildmodel.NewError(buildmodel.CodeConflictingOption,
				"optimizeChunks cannot be used with inlineDynamicImports")
		}
		if len(entries.EntryOrder) > 1 {
			return nil, nil, buildmodel.NewError(buildmodel.CodeInvalidOption,
				"inlineDynamicImports does not support more than one entry point")
		}
	}
	if names := duplicateManualChunkGroups(raw.ManualChunks); len(names) > 0 {
		return nil, nil, buildmodel.NewError(buildmodel.CodeConflictingOption,
			fmt.Sprintf("manualChunks groups %s list the exact same modules", helpers.StringArrayToQuotedCommaSeparatedString(names)))
	}

	if raw.PreserveModules {
		if raw.InlineDynamicImports {
			return nil, nil, buildmodel.NewError(buildmodel.CodeConflictingOption,
				"preserveModules cannot be used with inlineDynamicImports")
		}
		if len(raw.ManualChunks) > 0 {
			return nil, nil, buildmodel.NewError(buildmodel.CodeInvalidOption,
				"preserveModules cannot be used with manualChunks")
		}
		if raw.OptimizeChunks {
			return nil, nil, buildmodel.NewError(buildmodel.CodeConflictingOption,
				"preserveModules cannot be used with optimizeChunks")
		}
	}

	opts := &buildmodel.InputOptions{
		Input:                entries,
		Plugins:              raw.Plugins,
		External:             buildmodel.ExternalPolicy{IDs: raw.External, Predicate: raw.ExternalPredicate},
		TreeShaking:          raw.TreeShaking,
		PreserveModules:      raw.PreserveModules,
		InlineDynamicImports: raw.InlineDynamicImports,
		OptimizeChunks:       raw.OptimizeChunks,
		ChunkGroupingSize:    raw.ChunkGroupingSize,
		ManualChunks:         raw.ManualChunks,
		PreferConst:          raw.PreferConst,
		Perf:                 raw.Perf,
		ShimMissingExports:   raw.ShimMissingExports,
		CacheSeed:            raw.CacheSeed,
		OnWarn:               raw.OnWarn,
	}

	log := logger.NewDeferLog()
	ctx := buildmodel.NewContext(buildmodel.ContextConfig{Log: log})
	opts, err = buildmodel.ReducingFold(opts.Plugins, opts, func(p *buildmodel.Plugin, acc *buildmodel.InputOptions) (*buildmodel.InputOptions, error) {
		if p.Options == nil {
			return acc, nil
		}
		return p.Options(ctx.ForPlugin(p.Name), acc)
	})
	if err != nil {
		return nil, nil, err
	}
	forwardWarnings(log.Done(), raw.OnWarn)

	// No output configuration is required here: a Build can be created
	// from input alone and given its output per Generate/Write call.
	rawOutputs := mergeOutputSources(raw)

	if raw.ModuleID != "" {
		reportDeprecations(renamedOutputOptions, raw.OnWarn)
	}

	outputs := make([]*buildmodel.OutputOptions, 0, len(rawOutputs))
	for _, ro := range rawOutputs {
		out, err := NormalizeOutput(&ro)
		if err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, out)
	}

	return opts, outputs, nil
}

func normalizeEntrySpec(raw *RawInput) (buildmodel.EntrySpec, error) {
	switch {
	case raw.InputPath != "":
		alias := entryAlias(raw.InputPath)
		return buildmodel.EntrySpec{EntryOrder: []string{alias}, Entries: map[string]string{alias: raw.InputPath}}, nil
	case len(raw.InputPaths) > 0:
		spec := buildmodel.EntrySpec{Entries: make(map[string]string, len(raw.InputPaths))}
		for _, p := range raw.InputPaths {
			alias := entryAlias(p)
			spec.EntryOrder = append(spec.EntryOrder, alias)
			spec.Entries[alias] = p
		}
		return spec, nil
	case len(raw.InputAliases) > 0:
		spec := buildmodel.EntrySpec{Entries: raw.InputAliases}
		aliases := make([]string, 0, len(raw.InputAliases))
		for alias := range raw.InputAliases {
			aliases = append(aliases, alias)
		}
		sort.Strings(aliases)
		spec.EntryOrder = aliases
		return spec, nil
	default:
		return buildmodel.EntrySpec{}, buildmodel.NewError(buildmodel.CodeMissingOption,
			"input: one of input, [...inputs], or {alias: path} is required")
	}
}

func entryAlias(modulePath string) string {
	base := path.Base(modulePath)
	return strings.TrimSuffix(base, path.Ext(base))
}

// mergeOutputSources picks the output configurations to normalize:
// raw.Output when it is non-empty, otherwise the single OutputFallback,
// otherwise none. It picks whole configurations; fields are not merged
// from one source into another.
func mergeOutputSources(raw *RawInput) []RawOutput {
	if len(raw.Output) > 0 {
		return raw.Output
	}
	if raw.OutputFallback != nil {
		return []RawOutput{*raw.OutputFallback}
	}
	return nil
}

// NormalizeOutput validates and defaults a single RawOutput (spec §4.5
// step 1's "reapplied" output-level rules, plus the §4.1 format checks).
func NormalizeOutput(raw *RawOutput) (*buildmodel.OutputOptions, error) {
	if raw.Format == "" {
		return nil, buildmodel.NewError(buildmodel.CodeFormatRequired, "output.format is required")
	}
	if raw.Format == "es6" {
		return nil, buildmodel.NewError(buildmodel.CodeFormatDeprecated, `output.format "es6" was renamed to "es"`)
	}
	format, ok := formatNames[raw.Format]
	if !ok {
		valid := make([]string, 0, len(formatNames))
		for name := range formatNames {
			valid = append(valid, name)
		}
		sort.Strings(valid)
		return nil, buildmodel.NewError(buildmodel.CodeUnknownOption, fmt.Sprintf(
			"unknown output.format %q, expected one of: %s", raw.Format,
			helpers.StringArrayToQuotedCommaSeparatedString(valid)))
	}
	if raw.File != "" && raw.Dir != "" {
		return nil, buildmodel.NewError(buildmodel.CodeInvalidOption, "output.file and output.dir are mutually exclusive")
	}
	if raw.SourcemapFile != "" && raw.File == "" {
		return nil, buildmodel.NewError(buildmodel.CodeConflictingOption, "output.sourcemapFile is only valid in single-chunk (output.file) mode")
	}

	sourcemap := buildmodel.SourceMapOff
	switch v := raw.Sourcemap.(type) {
	case nil:
		sourcemap = buildmodel.SourceMapOff
	case bool:
		if v {
			sourcemap = buildmodel.SourceMapExternal
		}
	case string:
		if v == "inline" {
			sourcemap = buildmodel.SourceMapInline
		} else {
			return nil, buildmodel.NewError(buildmodel.CodeInvalidOption, fmt.Sprintf("unknown output.sourcemap value %q", v))
		}
	default:
		return nil, buildmodel.NewError(buildmodel.CodeInvalidOption, "output.sourcemap must be a boolean or \"inline\"")
	}

	entryFileNames := raw.EntryFileNames
	if entryFileNames == "" {
		entryFileNames = "[name].js"
	}
	chunkFileNames := raw.ChunkFileNames
	if chunkFileNames == "" {
		chunkFileNames = "[name]-[hash].js"
	}
	assetFileNames := raw.AssetFileNames
	if assetFileNames == "" {
		assetFileNames = "assets/[name]-[hash][extname]"
	}

	return &buildmodel.OutputOptions{
		Format:               format,
		File:                 raw.File,
		Dir:                  raw.Dir,
		EntryFileNames:       entryFileNames,
		ChunkFileNames:       chunkFileNames,
		AssetFileNames:       assetFileNames,
		Sourcemap:            sourcemap,
		SourcemapFile:        raw.SourcemapFile,
		Globals:              raw.Globals,
		Banner:               raw.Banner,
		Footer:               raw.Footer,
		Intro:                raw.Intro,
		Outro:                raw.Outro,
		Compact:              raw.Compact,
		Indent:               raw.Indent,
		Strict:               raw.Strict,
		Freeze:               raw.Freeze,
		ESModule:             raw.ESModule,
		NamespaceToStringTag: raw.NamespaceToStringTag,
		Interop:              raw.Interop,
		Extend:               raw.Extend,
	}, nil
}

// ValidateChunkCount enforces the single-chunk-only formats (spec §3:
// "for umd/iife formats, the chunk count must be exactly 1"), called by
// the Generate Coordinator once the Graph has produced its chunk list.
func ValidateChunkCount(format buildmodel.Format, chunkCount int) error {
	if (format == buildmodel.FormatUMD || format == buildmodel.FormatIIFE) && chunkCount != 1 {
		return buildmodel.NewError(buildmodel.CodeInvalidOption,
			fmt.Sprintf("%s output requires exactly one chunk, got %d", format, chunkCount))
	}
	return nil
}

// duplicateManualChunkGroups returns the names of any manualChunks groups
// that list the exact same module IDs in the same order as an earlier
// group, a near-certain copy-paste mistake in the caller's config.
func duplicateManualChunkGroups(groups map[string][]string) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	var dupes []string
	for i, name := range names {
		for _, earlier := range names[:i] {
			if helpers.StringArraysEqual(groups[name], groups[earlier]) {
				dupes = append(dupes, name)
				break
			}
		}
	}
	return dupes
}

func forwardWarnings(msgs []logger.Msg, onWarn func(logger.Msg)) {
	if onWarn == nil {
		onWarn = logger.StderrWarnSink
	}
	for _, msg := range msgs {
		onWarn(msg)
	}
}

func reportDeprecations(renamed []renamedOption, onWarn func(logger.Msg)) {
	if len(renamed) == 0 {
		return
	}
	if onWarn == nil {
		onWarn = logger.StderrWarnSink
	}
	var parts []string
	for _, r := range renamed {
		parts = append(parts, fmt.Sprintf("%s -> %s", r.from, r.to))
	}
	onWarn(logger.Msg{
		Kind: logger.Warning,
		Code: string(buildmodel.CodeDeprecatedOptions),
		Text: "deprecated options were renamed: " + strings.Join(parts, ", "),
	})
}

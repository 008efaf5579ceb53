package coordinator

import (
	"path"
	"strconv"
	"strings"

	"github.com/bundleforge/bundleforge/internal/asset"
	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/graphcore"
	"github.com/bundleforge/bundleforge/internal/optnorm"
	"github.com/bundleforge/bundleforge/internal/sourcemap"
)

// Generate runs the Generate Coordinator (spec §4.5) against this
// Build's chunk list and returns the resulting bundle. isWrite flags
// whether this call originated from Write, forwarded to generateBundle
// as the spec requires.
func (b *Build) Generate(out *buildmodel.OutputOptions, isWrite bool) (*buildmodel.Bundle, error) {
	b.timer.Begin("#GENERATE")
	defer b.timer.End("#GENERATE")

	if out.File != "" && out.Dir != "" {
		return nil, buildmodel.NewError(buildmodel.CodeInvalidOption, "output.file and output.dir are mutually exclusive")
	}
	if err := optnorm.ValidateChunkCount(out.Format, len(b.chunks)); err != nil {
		return nil, err
	}

	bundle := buildmodel.NewBundle()

	assetTemplate := out.AssetFileNames
	if assetTemplate == "" {
		assetTemplate = "assets/[name]-[hash][extname]"
	}
	if err := b.finalizePendingAssets(bundle, assetTemplate); err != nil {
		return nil, err
	}

	inputBase := commonEntryDir(b.chunks)

	addons, err := composeOutputAddons(b.Input.Plugins, out)
	if err != nil {
		return nil, err
	}

	for _, chunk := range b.chunks {
		mode := buildmodel.ExportAuto
		if !b.Input.PreserveModules {
			chunk.GenerateInternalExports(out.Format, mode)
		}
		chunk.PreRender(out, inputBase)
	}

	// Chunk optimization runs at most once per Build, across repeated
	// generate calls (spec §3, §4.5 step 10). No optimization pass is
	// invoked here (DefaultGraph has none); only the latch is set.
	if b.Input.OptimizeChunks && !b.optimized {
		b.optimized = true
	}

	taken := bundle.TakenNames()
	names := make(map[graphcore.Chunk]string, len(b.chunks))
	for _, chunk := range b.chunks {
		name := nameChunk(chunk, out, b.Input.PreserveModules, inputBase, taken)
		names[chunk] = name
		bundle.AddChunkSkeleton(name, chunk.IsEntry())
	}

	for _, chunk := range b.chunks {
		fileName := names[chunk]
		code, mapJSON, err := chunk.Render(out, addons)
		if err != nil {
			return nil, err
		}
		code, err = buildmodel.SequentialTransform(b.Input.Plugins, code, func(p *buildmodel.Plugin, code string) (*buildmodel.TransformResult, error) {
			if p.TransformChunk == nil {
				return nil, nil
			}
			return p.TransformChunk(b.ctx.ForPlugin(p.Name), code, out)
		})
		if err != nil {
			return nil, err
		}
		code, err = buildmodel.SequentialTransform(b.Input.Plugins, code, func(p *buildmodel.Plugin, code string) (*buildmodel.TransformResult, error) {
			if p.TransformBundle == nil {
				return nil, nil
			}
			return p.TransformBundle(b.ctx.ForPlugin(p.Name), code, out)
		})
		if err != nil {
			return nil, err
		}
		outChunk, _ := bundle.Chunk(fileName)
		outChunk.Code = code
		outChunk.ImportIDs = chunk.ImportIDs()
		outChunk.ExportNames = chunk.ExportNames()
		outChunk.ModuleIDs = chunk.ModuleIDs()
		if len(mapJSON) > 0 {
			outChunk.Map = &sourcemap.Map{JSON: mapJSON}
		}

		if err := buildmodel.ParallelFanOut(b.Input.Plugins, func(p *buildmodel.Plugin) error {
			if p.OnGenerate == nil {
				return nil
			}
			return p.OnGenerate(b.ctx.ForPlugin(p.Name), out, outChunk)
		}); err != nil {
			return nil, err
		}
	}

	generateCtx := b.ctx.Derive(b.assets)
	if err := buildmodel.ParallelFanOut(b.Input.Plugins, func(p *buildmodel.Plugin) error {
		if p.GenerateBundle == nil {
			return nil
		}
		return p.GenerateBundle(generateCtx.ForPlugin(p.Name), out, bundle, isWrite)
	}); err != nil {
		return nil, err
	}

	if err := b.forceFinalizeRemainingAssets(bundle, assetTemplate); err != nil {
		return nil, err
	}

	forwardWarnings(b.log, b.Input.OnWarn)
	return bundle, nil
}

// finalizePendingAssets finalizes every asset that already has a source
// but no filename yet (spec §4.5 step 5, §4.6 finaliseAll).
func (b *Build) finalizePendingAssets(bundle *buildmodel.Bundle, template string) error {
	for _, id := range b.assets.PendingWithSource() {
		taken := bundle.TakenNames()
		fileName, err := b.assets.Finalize(id, template, taken)
		if err != nil {
			return err
		}
		bundle.AddAsset(fileName, b.assets.SourceOf(id))
	}
	return nil
}

// forceFinalizeRemainingAssets is run after generateBundle: every asset
// still missing a filename is forced through the registry, and an
// asset with no source at all fails the generate call (spec §4.5 step
// 14, §3 invariant "an asset without a source... must cause an error").
func (b *Build) forceFinalizeRemainingAssets(bundle *buildmodel.Bundle, template string) error {
	for _, id := range b.assets.WithoutFileName() {
		if _, err := b.assets.FileName(id); err == nil {
			continue
		}
		taken := bundle.TakenNames()
		fileName, err := b.assets.Finalize(id, template, taken)
		if err != nil {
			if err == asset.ErrAssetSourceMissing {
				return buildmodel.NewError(buildmodel.CodeAssetSourceMissing, "asset "+id+" has no source and none was ever set")
			}
			return err
		}
		bundle.AddAsset(fileName, b.assets.SourceOf(id))
	}
	return nil
}

// commonEntryDir computes inputBase: the longest common directory of
// every entry chunk's entry module id (spec §4.5 step 6).
func commonEntryDir(chunks []graphcore.Chunk) string {
	var dirs []string
	for _, c := range chunks {
		if c.IsEntry() && c.EntryModuleID() != "" {
			dirs = append(dirs, path.Dir(c.EntryModuleID()))
		}
	}
	if len(dirs) == 0 {
		return ""
	}
	common := dirs[0]
	for _, d := range dirs[1:] {
		common = commonPrefixDir(common, d)
	}
	return common
}

func commonPrefixDir(a, b string) string {
	aParts := strings.Split(a, "/")
	bParts := strings.Split(b, "/")
	n := len(aParts)
	if len(bParts) < n {
		n = len(bParts)
	}
	var common []string
	for i := 0; i < n; i++ {
		if aParts[i] != bParts[i] {
			break
		}
		common = append(common, aParts[i])
	}
	return strings.Join(common, "/")
}

func composeOutputAddons(plugins []*buildmodel.Plugin, out *buildmodel.OutputOptions) (graphcore.RenderedAddons, error) {
	pluginAddon := func(pick func(*buildmodel.Plugin) buildmodel.Addon) []buildmodel.Addon {
		var addons []buildmodel.Addon
		for _, p := range plugins {
			if a := pick(p); a != nil {
				addons = append(addons, a)
			}
		}
		return addons
	}

	banner, err := buildmodel.ComposeAddons(pluginAddon(func(p *buildmodel.Plugin) buildmodel.Addon { return p.Banner }), out.Banner)
	if err != nil {
		return graphcore.RenderedAddons{}, err
	}
	footer, err := buildmodel.ComposeAddons(pluginAddon(func(p *buildmodel.Plugin) buildmodel.Addon { return p.Footer }), out.Footer)
	if err != nil {
		return graphcore.RenderedAddons{}, err
	}
	intro, err := buildmodel.ComposeAddons(pluginAddon(func(p *buildmodel.Plugin) buildmodel.Addon { return p.Intro }), out.Intro)
	if err != nil {
		return graphcore.RenderedAddons{}, err
	}
	outro, err := buildmodel.ComposeAddons(pluginAddon(func(p *buildmodel.Plugin) buildmodel.Addon { return p.Outro }), out.Outro)
	if err != nil {
		return graphcore.RenderedAddons{}, err
	}

	return graphcore.RenderedAddons{Banner: banner, Footer: footer, Intro: intro, Outro: outro}, nil
}

// nameChunk implements spec §4.5 step 11's three-way naming rule.
func nameChunk(chunk graphcore.Chunk, out *buildmodel.OutputOptions, preserveModules bool, inputBase string, taken map[string]bool) string {
	switch {
	case out.File != "":
		return path.Base(out.File)
	case preserveModules:
		name := chunk.GenerateIDPreserveModules(inputBase)
		return disambiguate(name, taken)
	case chunk.IsEntry():
		return chunk.GenerateID(out.EntryFileNames, inputBase, taken)
	default:
		return chunk.GenerateID(out.ChunkFileNames, inputBase, taken)
	}
}

func disambiguate(name string, taken map[string]bool) string {
	if !taken[name] {
		taken[name] = true
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := base + strconv.Itoa(i) + ext
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}

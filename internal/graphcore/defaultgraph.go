package graphcore

import (
	"sort"
	"strings"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/cache"
	"github.com/bundleforge/bundleforge/internal/fs"
)

// DefaultGraph is the minimal, self-contained Graph implementation this
// repository ships: one chunk per entry plus one chunk per manualChunks
// group, each built by running the resolveId/load/transform hook chains
// against the declared plugins (spec §4.3's note that this behavior "is
// consumed from the Graph"). It does no dependency-graph traversal,
// tree-shaking, or automatic chunk splitting — those are out of scope.
type DefaultGraph struct {
	FS    fs.FS
	Cache *cache.Set
}

func NewDefaultGraph(filesystem fs.FS, cacheSet *cache.Set) *DefaultGraph {
	return &DefaultGraph{FS: filesystem, Cache: cacheSet}
}

// SetCache implements graphcore.CacheAware, letting Coordinator.Run hand
// this graph the per-build transform cache it constructed from the
// caller's CacheSeed, after construction and before Build runs.
func (g *DefaultGraph) SetCache(cacheSet *cache.Set) {
	g.Cache = cacheSet
}

func (g *DefaultGraph) Build(ctx *buildmodel.Context, input *buildmodel.InputOptions) ([]Chunk, error) {
	var chunks []Chunk

	for _, alias := range input.Input.EntryOrder {
		modulePath := input.Input.Entries[alias]
		chunk, err := g.loadEntryChunk(ctx, input, modulePath)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	for _, name := range sortedKeys(input.ManualChunks) {
		shared, err := g.loadSharedChunk(ctx, input, name, input.ManualChunks[name])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, shared)
	}

	return chunks, nil
}

func (g *DefaultGraph) loadEntryChunk(ctx *buildmodel.Context, input *buildmodel.InputOptions, modulePath string) (Chunk, error) {
	id, external, err := g.resolve(ctx, input, modulePath, "")
	if err != nil {
		return nil, err
	}
	if external {
		return &moduleChunk{isEntry: true, isFacade: true, entryModuleID: id, moduleIDs: []string{id}}, nil
	}
	code, err := g.loadAndTransform(ctx, input.Plugins, id)
	if err != nil {
		return nil, err
	}
	return &moduleChunk{
		isEntry:       true,
		isFacade:      true,
		entryModuleID: id,
		moduleIDs:     []string{id},
		code:          code,
		exportNames:   []string{"default"},
	}, nil
}

func (g *DefaultGraph) loadSharedChunk(ctx *buildmodel.Context, input *buildmodel.InputOptions, name string, moduleIDs []string) (Chunk, error) {
	var bodies []string
	var resolvedIDs []string
	for _, m := range moduleIDs {
		id, external, err := g.resolve(ctx, input, m, "")
		if err != nil {
			return nil, err
		}
		if external {
			continue
		}
		code, err := g.loadAndTransform(ctx, input.Plugins, id)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, code)
		resolvedIDs = append(resolvedIDs, id)
	}
	return &moduleChunk{
		entryModuleID: name,
		moduleIDs:     resolvedIDs,
		code:          strings.Join(bodies, "\n"),
	}, nil
}

func (g *DefaultGraph) resolve(ctx *buildmodel.Context, input *buildmodel.InputOptions, id string, importer string) (string, bool, error) {
	result, found, err := buildmodel.FirstNonAbsent(input.Plugins, func(p *buildmodel.Plugin) (*buildmodel.ResolveResult, error) {
		if p.ResolveID == nil {
			return nil, nil
		}
		return p.ResolveID(ctx.ForPlugin(p.Name), id, importer)
	})
	if err != nil {
		return "", false, err
	}
	if found {
		if result.External || input.External.IsExternal(result.ID, importer, true) || ctx.IsExternal(result.ID, importer, true) {
			return result.ID, true, nil
		}
		return result.ID, false, nil
	}
	if input.External.IsExternal(id, importer, false) || ctx.IsExternal(id, importer, false) {
		return id, true, nil
	}
	return id, false, nil
}

func (g *DefaultGraph) loadAndTransform(ctx *buildmodel.Context, plugins []*buildmodel.Plugin, id string) (string, error) {
	result, found, err := buildmodel.FirstLoadResult(plugins, func(p *buildmodel.Plugin) (*buildmodel.LoadResult, error) {
		if p.Load == nil {
			return nil, nil
		}
		return p.Load(ctx.ForPlugin(p.Name), id)
	})
	if err != nil {
		return "", err
	}

	code := ""
	if found {
		code = result.Code
	} else if g.FS != nil {
		var contents string
		var ok bool
		if g.Cache != nil {
			contents, ok = g.Cache.ReadFile(g.FS, id)
		} else {
			contents, ok = g.FS.ReadFile(id)
		}
		if !ok {
			return "", buildmodel.NewError(buildmodel.CodeInvalidOption, "could not load module "+id)
		}
		code = contents
	}

	return buildmodel.SequentialTransform(plugins, code, func(p *buildmodel.Plugin, code string) (*buildmodel.TransformResult, error) {
		if p.Transform == nil {
			return nil, nil
		}
		return p.Transform(ctx.ForPlugin(p.Name), code, id)
	})
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package graphcore

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/bundleforge/bundleforge/internal/asset"
	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/helpers"
)

// moduleChunk is DefaultGraph's Chunk implementation. Since real chunk
// assignment is out of scope (spec §1), a moduleChunk simply wraps one
// already-resolved-and-transformed module (for an entry) or a
// concatenation of several (for a manualChunks group); it does not
// perform tree-shaking or import rewriting.
type moduleChunk struct {
	isEntry  bool
	isFacade bool

	entryModuleID string
	moduleIDs     []string
	code          string // transform-pipeline output, concatenated in moduleIDs order

	exportNames []string
	importIDs   []string

	exportMode buildmodel.ExportMode
	fileName   string
}

func (c *moduleChunk) IsEntry() bool            { return c.isEntry }
func (c *moduleChunk) IsFacade() bool           { return c.isFacade }
func (c *moduleChunk) EntryModuleID() string    { return c.entryModuleID }
func (c *moduleChunk) ModuleIDs() []string      { return c.moduleIDs }
func (c *moduleChunk) ExportNames() []string    { return c.exportNames }
func (c *moduleChunk) ImportIDs() []string      { return c.importIDs }

func (c *moduleChunk) GenerateInternalExports(format buildmodel.Format, mode buildmodel.ExportMode) {
	if mode == buildmodel.ExportAuto {
		if len(c.exportNames) == 0 {
			mode = buildmodel.ExportNone
		} else if len(c.exportNames) == 1 && c.exportNames[0] == "default" {
			mode = buildmodel.ExportDefault
		} else {
			mode = buildmodel.ExportNamed
		}
	}
	c.exportMode = mode
}

func (c *moduleChunk) PreRender(out *buildmodel.OutputOptions, inputBase string) {
	// Nothing to precompute beyond what Build already resolved: no real
	// import graph exists to re-walk here.
}

func (c *moduleChunk) GenerateID(template string, inputBase string, taken map[string]bool) string {
	name := chunkBaseName(c.entryModuleID, inputBase)
	id := expandChunkTemplate(template, name, []byte(c.code))
	return disambiguateChunkName(id, taken)
}

func (c *moduleChunk) GenerateIDPreserveModules(inputBase string) string {
	rel := strings.TrimPrefix(c.entryModuleID, inputBase)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = path.Base(c.entryModuleID)
	}
	return rel
}

func (c *moduleChunk) Render(out *buildmodel.OutputOptions, addons RenderedAddons) (string, []byte, error) {
	body := finalizeFormat(out.Format, c.code, c.exportNames, c.exportMode, out)

	var j helpers.Joiner
	if addons.Banner != "" {
		j.AddString(addons.Banner)
		j.AddString("\n")
	}
	if addons.Intro != "" {
		j.AddString(addons.Intro)
		j.AddString("\n")
	}
	j.AddString(body)
	if addons.Outro != "" {
		j.AddString("\n")
		j.AddString(addons.Outro)
	}
	if addons.Footer != "" {
		j.AddString("\n")
		j.AddString(addons.Footer)
	}

	var mapJSON []byte
	if out.Sourcemap != buildmodel.SourceMapOff {
		mapJSON = c.generateSourceMap()
	}
	return string(j.Done()), mapJSON, nil
}

// generateSourceMap builds a minimal v3 source map for this chunk: one
// "sources" entry per module id, a single "sourcesContent" entry holding
// the chunk's transformed code, and an empty "mappings" field, since
// computing real position-level mappings needs the parser this package
// doesn't have (spec §1). A sibling/inline map exists whenever one was
// requested, naming this chunk's modules.
func (c *moduleChunk) generateSourceMap() []byte {
	var j helpers.Joiner
	j.AddString("{\n  \"version\": 3,\n  \"sources\": [")
	for i, id := range c.moduleIDs {
		if i > 0 {
			j.AddString(", ")
		}
		j.AddString(strconv.Quote(id))
	}
	j.AddString("],\n  \"sourcesContent\": [")
	j.AddString(strconv.Quote(c.code))
	j.AddString("],\n  \"mappings\": \"\",\n  \"names\": []\n}\n")
	return j.Done()
}

func chunkBaseName(entryModuleID string, inputBase string) string {
	rel := strings.TrimPrefix(entryModuleID, inputBase)
	rel = strings.TrimPrefix(rel, "/")
	ext := path.Ext(rel)
	return strings.TrimSuffix(path.Base(rel), ext)
}

func expandChunkTemplate(template, name string, code []byte) string {
	out := template
	out = strings.ReplaceAll(out, "[name]", name)
	out = strings.ReplaceAll(out, "[hash]", asset.ContentHash(code))
	out = strings.ReplaceAll(out, "[format]", "js")
	out = strings.ReplaceAll(out, "[extname]", ".js")
	out = strings.ReplaceAll(out, "[ext]", "js")
	return out
}

func disambiguateChunkName(name string, taken map[string]bool) string {
	if !taken[name] {
		taken[name] = true
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d%s", base, i, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}

// finalizeFormat wraps rendered module code with the minimal textual
// scaffolding for the target format. The real finalizer (AST-aware
// module-wrapper emission) is an out-of-scope external collaborator
// (spec §1); this is a deliberately thin stand-in so DefaultGraph can
// produce runnable output end to end.
func finalizeFormat(format buildmodel.Format, body string, exportNames []string, mode buildmodel.ExportMode, out *buildmodel.OutputOptions) string {
	switch format {
	case buildmodel.FormatCJS:
		return body
	case buildmodel.FormatAMD:
		return "define(function (require, exports, module) {\n" + body + "\n});"
	case buildmodel.FormatSystemJS:
		return "System.register([], function (exports) {\n  return {\n    execute: function () {\n" + body + "\n    }\n  };\n});"
	case buildmodel.FormatIIFE:
		return "(function () {\n" + body + "\n})();"
	case buildmodel.FormatUMD:
		name := "bundle"
		for k := range out.Globals {
			name = k
			break
		}
		return fmt.Sprintf("(function (global, factory) {\n"+
			"  typeof exports === 'object' && typeof module !== 'undefined' ? factory(exports) :\n"+
			"  typeof define === 'function' && define.amd ? define(['exports'], factory) :\n"+
			"  (global = global || self, factory(global.%s = {}));\n"+
			"}(this, (function (exports) {\n%s\n})));", name, body)
	default: // FormatES
		return body
	}
}

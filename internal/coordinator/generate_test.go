package coordinator

import (
	"strings"
	"testing"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/fs"
	"github.com/bundleforge/bundleforge/internal/graphcore"
)

func buildOne(t *testing.T, files map[string]string, plugins []*buildmodel.Plugin) *Build {
	t.Helper()
	mock := fs.MockFS(files)
	c := NewCoordinator(graphcore.NewDefaultGraph(mock, nil))
	input := &buildmodel.InputOptions{
		Input: buildmodel.EntrySpec{
			EntryOrder: []string{"a"},
			Entries:    map[string]string{"a": "/src/a.js"},
		},
		Plugins: plugins,
	}
	build, err := c.Run(input, nil)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return build
}

func TestGenerateProducesOneChunkPerEntry(t *testing.T) {
	build := buildOne(t, map[string]string{"/src/a.js": "console.log('a')"}, nil)

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES}
	bundle, err := build.Generate(out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := bundle.Output()
	if len(items) != 1 {
		t.Fatalf("expected 1 output item, got %d", len(items))
	}
	chunk, ok := items[0].(*buildmodel.OutputChunk)
	if !ok {
		t.Fatalf("expected an *OutputChunk, got %T", items[0])
	}
	if !strings.Contains(chunk.Code, "console.log('a')") {
		t.Fatalf("expected rendered code to contain the module body, got %q", chunk.Code)
	}
}

func TestGenerateRejectsFileAndDirTogether(t *testing.T) {
	build := buildOne(t, map[string]string{"/src/a.js": "console.log('a')"}, nil)

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES, File: "out.js", Dir: "dist"}
	if _, err := build.Generate(out, false); err == nil {
		t.Fatal("expected an error when both file and dir are set")
	}
}

func TestGenerateEnforcesSingleChunkForIIFE(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/src/a.js": "console.log('a')",
		"/src/b.js": "console.log('b')",
	})
	c := NewCoordinator(graphcore.NewDefaultGraph(mock, nil))
	multi, err := c.Run(&buildmodel.InputOptions{
		Input: buildmodel.EntrySpec{
			EntryOrder: []string{"a", "b"},
			Entries:    map[string]string{"a": "/src/a.js", "b": "/src/b.js"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatIIFE}
	if _, err := multi.Generate(out, false); err == nil {
		t.Fatal("expected INVALID_OPTION chunk-count error for iife with 2 chunks")
	}
}

func TestGenerateComposesBannerAndFooter(t *testing.T) {
	build := buildOne(t, map[string]string{"/src/a.js": "body"}, nil)

	out := &buildmodel.OutputOptions{
		Format: buildmodel.FormatES,
		Banner: buildmodel.StringAddon("/* banner */"),
		Footer: buildmodel.StringAddon("/* footer */"),
	}
	bundle, err := build.Generate(out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunk := bundle.Output()[0].(*buildmodel.OutputChunk)
	if !strings.HasPrefix(chunk.Code, "/* banner */") {
		t.Fatalf("expected code to start with the banner, got %q", chunk.Code)
	}
	if !strings.HasSuffix(chunk.Code, "/* footer */") {
		t.Fatalf("expected code to end with the footer, got %q", chunk.Code)
	}
}

func TestGenerateProducesSourceMapWhenRequested(t *testing.T) {
	build := buildOne(t, map[string]string{"/src/a.js": "console.log('a')"}, nil)

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES, Sourcemap: buildmodel.SourceMapExternal}
	bundle, err := build.Generate(out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunk := bundle.Output()[0].(*buildmodel.OutputChunk)
	if chunk.Map == nil {
		t.Fatal("expected a non-nil source map when Sourcemap != SourceMapOff")
	}
	if !strings.Contains(string(chunk.Map.JSON), `"version": 3`) {
		t.Fatalf("expected map JSON to carry a version field, got %q", chunk.Map.JSON)
	}
}

func TestGenerateOmitsSourceMapByDefault(t *testing.T) {
	build := buildOne(t, map[string]string{"/src/a.js": "console.log('a')"}, nil)

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES}
	bundle, err := build.Generate(out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunk := bundle.Output()[0].(*buildmodel.OutputChunk)
	if chunk.Map != nil {
		t.Fatalf("expected a nil source map with Sourcemap left at the default Off, got %v", chunk.Map)
	}
}

func TestGenerateRunsGenerateBundleHook(t *testing.T) {
	var sawBundle *buildmodel.Bundle
	emitter := &buildmodel.Plugin{
		Name: "emitter",
		GenerateBundle: func(ctx *buildmodel.Context, out *buildmodel.OutputOptions, bundle *buildmodel.Bundle, isWrite bool) error {
			sawBundle = bundle
			id := ctx.EmitAsset("note.txt", []byte("hello"))
			return ctx.SetAssetSource(id, []byte("hello"))
		},
	}

	build := buildOne(t, map[string]string{"/src/a.js": "body"}, []*buildmodel.Plugin{emitter})
	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES}
	bundle, err := build.Generate(out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawBundle != bundle {
		t.Fatal("expected generateBundle to observe the same bundle Generate returns")
	}

	found := false
	for _, item := range bundle.Output() {
		if asset, ok := item.(*buildmodel.OutputAsset); ok && asset.FileName != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the asset emitted during generateBundle to appear in the output")
	}
}

func TestGenerateRunsTransformChunkHook(t *testing.T) {
	uppercase := &buildmodel.Plugin{
		Name: "uppercase",
		TransformChunk: func(ctx *buildmodel.Context, code string, out *buildmodel.OutputOptions) (*buildmodel.TransformResult, error) {
			return &buildmodel.TransformResult{Code: strings.ToUpper(code)}, nil
		},
	}
	shout := &buildmodel.Plugin{
		Name: "shout",
		TransformBundle: func(ctx *buildmodel.Context, code string, out *buildmodel.OutputOptions) (*buildmodel.TransformResult, error) {
			return &buildmodel.TransformResult{Code: code + "!"}, nil
		},
	}

	build := buildOne(t, map[string]string{"/src/a.js": "console.log('a')"}, []*buildmodel.Plugin{uppercase, shout})
	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES}
	bundle, err := build.Generate(out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunk := bundle.Output()[0].(*buildmodel.OutputChunk)
	if chunk.Code != "CONSOLE.LOG('A')!" {
		t.Fatalf("expected both transformChunk and transformBundle to run in order, got %q", chunk.Code)
	}
}

func TestGenerateFailsOnAssetWithNoSource(t *testing.T) {
	noSource := &buildmodel.Plugin{
		Name: "noSource",
		GenerateBundle: func(ctx *buildmodel.Context, out *buildmodel.OutputOptions, bundle *buildmodel.Bundle, isWrite bool) error {
			ctx.EmitAsset("empty.txt", nil)
			return nil
		},
	}

	build := buildOne(t, map[string]string{"/src/a.js": "body"}, []*buildmodel.Plugin{noSource})
	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES}
	if _, err := build.Generate(out, false); err == nil {
		t.Fatal("expected an ASSET_SOURCE_MISSING error")
	}
}

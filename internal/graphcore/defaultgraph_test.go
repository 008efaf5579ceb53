package graphcore

import (
	"testing"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/fs"
	"github.com/bundleforge/bundleforge/internal/logger"
)

func newTestContext() *buildmodel.Context {
	return buildmodel.NewContext(buildmodel.ContextConfig{Log: logger.NewDeferLog()})
}

func TestDefaultGraphBuildsOneChunkPerEntry(t *testing.T) {
	mock := fs.MockFS(map[string]string{
		"/src/a.js": "console.log('a')",
		"/src/b.js": "console.log('b')",
	})
	g := NewDefaultGraph(mock, nil)
	input := &buildmodel.InputOptions{
		Input: buildmodel.EntrySpec{
			EntryOrder: []string{"a", "b"},
			Entries:    map[string]string{"a": "/src/a.js", "b": "/src/b.js"},
		},
	}

	chunks, err := g.Build(newTestContext(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if !c.IsEntry() {
			t.Errorf("expected chunk %q to be an entry chunk", c.EntryModuleID())
		}
	}
}

func TestDefaultGraphRunsTransformPipeline(t *testing.T) {
	mock := fs.MockFS(map[string]string{"/src/a.js": "original"})
	g := NewDefaultGraph(mock, nil)

	upper := &buildmodel.Plugin{
		Name: "upper",
		Transform: func(ctx *buildmodel.Context, code string, id string) (*buildmodel.TransformResult, error) {
			return &buildmodel.TransformResult{Code: code + "-upper"}, nil
		},
	}
	exclaim := &buildmodel.Plugin{
		Name: "exclaim",
		Transform: func(ctx *buildmodel.Context, code string, id string) (*buildmodel.TransformResult, error) {
			return &buildmodel.TransformResult{Code: code + "!"}, nil
		},
	}

	input := &buildmodel.InputOptions{
		Input: buildmodel.EntrySpec{
			EntryOrder: []string{"a"},
			Entries:    map[string]string{"a": "/src/a.js"},
		},
		Plugins: []*buildmodel.Plugin{upper, exclaim},
	}

	chunks, err := g.Build(newTestContext(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mc := chunks[0].(*moduleChunk)
	if mc.code != "original-upper!" {
		t.Fatalf("expected pipeline order original-upper!, got %q", mc.code)
	}
}

func TestDefaultGraphTreatsExternalAsExternal(t *testing.T) {
	mock := fs.MockFS(map[string]string{"/src/a.js": "import x from 'lodash'"})
	g := NewDefaultGraph(mock, nil)

	input := &buildmodel.InputOptions{
		Input: buildmodel.EntrySpec{
			EntryOrder: []string{"lodash"},
			Entries:    map[string]string{"lodash": "lodash"},
		},
		External: buildmodel.ExternalPolicy{IDs: map[string]bool{"lodash": true}},
	}

	chunks, err := g.Build(newTestContext(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks[0].(*moduleChunk).code != "" {
		t.Fatalf("expected an external module to have no loaded code")
	}
}

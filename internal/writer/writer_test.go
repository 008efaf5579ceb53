package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/sourcemap"
)

func noopCtxFor(pluginName string) *buildmodel.Context {
	return buildmodel.NewContext(buildmodel.ContextConfig{})
}

func TestWriteExternalSourceMapWritesSiblingAndComment(t *testing.T) {
	dir := t.TempDir()
	bundle := buildmodel.NewBundle()
	chunk := bundle.AddChunkSkeleton("entry.js", true)
	chunk.Code = "console.log('hi')"
	chunk.Map = &sourcemap.Map{JSON: []byte(`{"version":3}`)}

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES, Sourcemap: buildmodel.SourceMapExternal}
	if err := Write(dir, out, bundle, nil, noopCtxFor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "entry.js"))
	if err != nil {
		t.Fatalf("expected entry.js to be written: %v", err)
	}
	if !strings.Contains(string(code), "//# sourceMappingURL=entry.js.map") {
		t.Fatalf("expected a sourceMappingURL comment pointing at the sibling map, got %q", code)
	}

	mapContents, err := os.ReadFile(filepath.Join(dir, "entry.js.map"))
	if err != nil {
		t.Fatalf("expected a sibling entry.js.map to be written: %v", err)
	}
	if string(mapContents) != `{"version":3}` {
		t.Fatalf("expected the sibling map to carry the chunk's map JSON, got %q", mapContents)
	}
}

func TestWriteInlineSourceMapEmbedsDataURL(t *testing.T) {
	dir := t.TempDir()
	bundle := buildmodel.NewBundle()
	chunk := bundle.AddChunkSkeleton("entry.js", true)
	chunk.Code = "console.log('hi')"
	chunk.Map = &sourcemap.Map{JSON: []byte(`{"version":3}`)}

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES, Sourcemap: buildmodel.SourceMapInline}
	if err := Write(dir, out, bundle, nil, noopCtxFor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "entry.js"))
	if err != nil {
		t.Fatalf("expected entry.js to be written: %v", err)
	}
	if !strings.Contains(string(code), "//# sourceMappingURL=data:application/json;base64,") {
		t.Fatalf("expected an inline data URL sourceMappingURL comment, got %q", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "entry.js.map")); err == nil {
		t.Fatal("expected no sibling .map file for inline sourcemaps")
	}
}

func TestWriteSkipsSourceMapWhenOff(t *testing.T) {
	dir := t.TempDir()
	bundle := buildmodel.NewBundle()
	chunk := bundle.AddChunkSkeleton("entry.js", true)
	chunk.Code = "console.log('hi')"
	chunk.Map = &sourcemap.Map{JSON: []byte(`{"version":3}`)}

	out := &buildmodel.OutputOptions{Format: buildmodel.FormatES}
	if err := Write(dir, out, bundle, nil, noopCtxFor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	code, err := os.ReadFile(filepath.Join(dir, "entry.js"))
	if err != nil {
		t.Fatalf("expected entry.js to be written: %v", err)
	}
	if strings.Contains(string(code), "sourceMappingURL") {
		t.Fatalf("expected no sourceMappingURL comment with Sourcemap off, got %q", code)
	}
}

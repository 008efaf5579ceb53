package optnorm

import (
	"testing"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
)

func TestNormalizeInputRequiresFormat(t *testing.T) {
	_, _, err := NormalizeInput(&RawInput{
		InputPath: "a.js",
		Output:    []RawOutput{{Dir: "d"}},
	})
	assertCode(t, err, buildmodel.CodeFormatRequired)
}

func TestNormalizeInputRejectsEs6Format(t *testing.T) {
	_, _, err := NormalizeInput(&RawInput{
		InputPath: "a.js",
		Output:    []RawOutput{{Format: "es6", Dir: "d"}},
	})
	assertCode(t, err, buildmodel.CodeFormatDeprecated)
}

func TestNormalizeInputRejectsLegacyTopLevelHooks(t *testing.T) {
	_, _, err := NormalizeInput(&RawInput{
		InputPath: "a.js",
		Load:      func() {},
		Output:    []RawOutput{{Format: "es", Dir: "d"}},
	})
	assertCode(t, err, buildmodel.CodeUnsupportedLegacyOption)
}

func TestNormalizeInputRejectsFileAndDirTogether(t *testing.T) {
	_, _, err := NormalizeInput(&RawInput{
		InputPath: "a.js",
		Output:    []RawOutput{{Format: "es", File: "out.js", Dir: "d"}},
	})
	assertCode(t, err, buildmodel.CodeInvalidOption)
}

func TestNormalizeInputRejectsInlineDynamicImportsWithManualChunks(t *testing.T) {
	_, _, err := NormalizeInput(&RawInput{
		InputPath:            "a.js",
		InlineDynamicImports: true,
		ManualChunks:         map[string][]string{"vendor": {"a.js"}},
		Output:               []RawOutput{{Format: "es", Dir: "d"}},
	})
	assertCode(t, err, buildmodel.CodeConflictingOption)
}

func TestNormalizeInputRejectsPreserveModulesWithOptimizeChunks(t *testing.T) {
	_, _, err := NormalizeInput(&RawInput{
		InputPath:       "a.js",
		PreserveModules: true,
		OptimizeChunks:  true,
		Output:          []RawOutput{{Format: "es", Dir: "d"}},
	})
	assertCode(t, err, buildmodel.CodeConflictingOption)
}

func TestNormalizeInputFoldsOptionsHookLeftToRight(t *testing.T) {
	seen := ""
	pluginA := &buildmodel.Plugin{
		Name: "a",
		Options: func(ctx *buildmodel.Context, opts *buildmodel.InputOptions) (*buildmodel.InputOptions, error) {
			next := *opts
			next.CacheSeed = "window"
			return &next, nil
		},
	}
	pluginB := &buildmodel.Plugin{
		Name: "b",
		Options: func(ctx *buildmodel.Context, opts *buildmodel.InputOptions) (*buildmodel.InputOptions, error) {
			seen, _ = opts.CacheSeed.(string)
			return opts, nil
		},
	}
	in, _, err := NormalizeInput(&RawInput{
		InputPath: "a.js",
		Plugins:   []*buildmodel.Plugin{pluginA, pluginB},
		Output:    []RawOutput{{Format: "es", Dir: "d"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "window" {
		t.Fatalf("expected plugin b to observe plugin a's mutation, got %q", seen)
	}
	if in.CacheSeed != "window" {
		t.Fatalf("expected fold result to carry through, got %v", in.CacheSeed)
	}
}

func TestNormalizeInputDefaultsFileNameTemplates(t *testing.T) {
	_, outs, err := NormalizeInput(&RawInput{
		InputPath: "a.js",
		Output:    []RawOutput{{Format: "es", Dir: "d"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := outs[0]
	if out.EntryFileNames != "[name].js" {
		t.Errorf("EntryFileNames = %q", out.EntryFileNames)
	}
	if out.ChunkFileNames != "[name]-[hash].js" {
		t.Errorf("ChunkFileNames = %q", out.ChunkFileNames)
	}
	if out.AssetFileNames != "assets/[name]-[hash][extname]" {
		t.Errorf("AssetFileNames = %q", out.AssetFileNames)
	}
}

func TestValidateChunkCountRejectsMultiChunkUMD(t *testing.T) {
	err := ValidateChunkCount(buildmodel.FormatUMD, 2)
	assertCode(t, err, buildmodel.CodeInvalidOption)
}

func TestValidateChunkCountAllowsSingleChunkIIFE(t *testing.T) {
	if err := ValidateChunkCount(buildmodel.FormatIIFE, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertCode(t *testing.T, err error, code buildmodel.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error with code %s, got nil", code)
	}
	structured, ok := err.(*buildmodel.Error)
	if !ok {
		t.Fatalf("expected *buildmodel.Error, got %T: %v", err, err)
	}
	if structured.Code != code {
		t.Fatalf("expected code %s, got %s", code, structured.Code)
	}
}

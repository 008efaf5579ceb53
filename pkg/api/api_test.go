package api

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempEntry(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.js")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write temp entry: %v", err)
	}
	return path
}

func TestBundleGenerateReturnsOneChunk(t *testing.T) {
	entry := writeTempEntry(t, "console.log('hi')")

	build, err := Bundle(&Input{InputPath: entry}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := build.Generate(&Output{Format: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Output) != 1 {
		t.Fatalf("expected 1 output item, got %d", len(result.Output))
	}
}

func TestBundleRejectsMissingFormat(t *testing.T) {
	entry := writeTempEntry(t, "console.log('hi')")

	build, err := Bundle(&Input{InputPath: entry}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := build.Generate(&Output{}); err == nil {
		t.Fatal("expected FORMAT_REQUIRED")
	}
}

func TestBundleRejectsMissingInput(t *testing.T) {
	if _, err := Bundle(&Input{}, nil); err == nil {
		t.Fatal("expected MISSING_OPTION for an input-less config")
	}
}

func TestBuildWritePersistsToDisk(t *testing.T) {
	entry := writeTempEntry(t, "console.log('hi')")
	outDir := t.TempDir()

	build, err := Bundle(&Input{InputPath: entry}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := build.Write(&Output{Format: "es", Dir: outDir}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	written, err := os.ReadFile(filepath.Join(outDir, "entry.js"))
	if err != nil {
		t.Fatalf("expected a written entry.js: %v", err)
	}
	if !strings.Contains(string(written), "console.log('hi')") {
		t.Fatalf("expected the written file to contain the entry's body, got %q", written)
	}
}

func TestBuildGetTimingsIsNilWithoutPerf(t *testing.T) {
	entry := writeTempEntry(t, "console.log('hi')")

	build, err := Bundle(&Input{InputPath: entry}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timings := build.GetTimings(); timings != nil {
		t.Fatalf("expected nil timings without Perf, got %v", timings)
	}
}

func TestBuildGetTimingsWithPerf(t *testing.T) {
	entry := writeTempEntry(t, "console.log('hi')")

	build, err := Bundle(&Input{InputPath: entry, Perf: true}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := build.GetTimings()["#BUILD"]; !ok {
		t.Fatalf("expected a #BUILD timing entry, got %v", build.GetTimings())
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/exitcode"
	"github.com/bundleforge/bundleforge/pkg/api"
)

const helpText = `
Usage:
  bundleforge [options] <entry point>

Options:
  --outfile=...    Write a single bundled file
  --outdir=...     Write the bundle to a directory
  --format=...     Output format: es, cjs, amd, system, iife, umd (default es)
  --sourcemap      Emit an external source map alongside each chunk
  --perf           Record BUILD/GENERATE timings and print them to stderr
`

func main() {
	exitcode.Exit(run(os.Args[1:]))
}

func run(osArgs []string) error {
	var entry, outfile, outdir, format string
	var sourcemap, perf bool
	format = "es"

	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		case arg == "-h" || arg == "--help":
			fmt.Fprint(os.Stderr, helpText)
			return nil
		case strings.HasPrefix(arg, "--outfile="):
			outfile = arg[len("--outfile="):]
		case strings.HasPrefix(arg, "--outdir="):
			outdir = arg[len("--outdir="):]
		case strings.HasPrefix(arg, "--format="):
			format = arg[len("--format="):]
		case arg == "--sourcemap":
			sourcemap = true
		case arg == "--perf":
			perf = true
		default:
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	if len(osArgs) != 1 {
		fmt.Fprint(os.Stderr, helpText)
		return exitcode.Set(fmt.Errorf("expected exactly one entry point, got %d", len(osArgs)), 1)
	}
	entry = osArgs[0]

	build, err := api.Bundle(&api.Input{
		InputPath: entry,
		Perf:      perf,
		OnWarn: func(msg api.Msg) {
			fmt.Fprintln(os.Stderr, "[warn]", msg.Text)
		},
	}, nil)
	if err != nil {
		return err
	}

	out := &api.Output{Format: format}
	if sourcemap {
		out.Sourcemap = true
	}

	if outfile == "" && outdir == "" {
		result, err := build.Generate(out)
		if err != nil {
			return err
		}
		for _, item := range result.Output {
			printItem(item)
		}
	} else {
		out.File = outfile
		out.Dir = outdir
		if _, err := build.Write(out); err != nil {
			return err
		}
	}

	if perf {
		for phase, ms := range build.GetTimings() {
			fmt.Fprintf(os.Stderr, "%s: %.2fms\n", phase, ms)
		}
	}

	return nil
}

func printItem(item buildmodel.Item) {
	switch v := item.(type) {
	case *buildmodel.OutputChunk:
		fmt.Println(v.Code)
	case *buildmodel.OutputAsset:
		fmt.Fprintf(os.Stderr, "[asset] %s (%d bytes)\n", v.FileName, len(v.Source))
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/pkg/api"
)

// svelteLikePlugin transforms any ".svelte"-suffixed module into plain JS
// before it reaches the rest of the pipeline. A real compiler would shell
// out to a toolchain here; this one just strips the template tags, enough
// to demonstrate where that call would live.
func svelteLikePlugin() *buildmodel.Plugin {
	return &buildmodel.Plugin{
		Name: "svelte-like",
		Transform: func(ctx *buildmodel.Context, code string, id string) (*buildmodel.TransformResult, error) {
			if !strings.HasSuffix(id, ".svelte") {
				return nil, nil
			}
			js := strings.NewReplacer("<script>", "", "</script>", "").Replace(code)
			return &buildmodel.TransformResult{Code: js}, nil
		},
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: example <entry-file>")
		os.Exit(1)
	}

	build, err := api.Bundle(&api.Input{
		InputPath: os.Args[1],
		Plugins:   []*buildmodel.Plugin{svelteLikePlugin()},
		OnWarn: func(msg api.Msg) {
			fmt.Fprintln(os.Stderr, "[warn]", msg.Text)
		},
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[error]", err)
		os.Exit(1)
	}

	result, err := build.Generate(&api.Output{Format: "es"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "[error]", err)
		os.Exit(1)
	}

	for _, item := range result.Output {
		if chunk, ok := item.(*buildmodel.OutputChunk); ok {
			fmt.Println(chunk.Code)
		}
	}
}

// Package writer implements the Output Writer (spec §4.7): persisting an
// already-generated bundle to disk, one file per chunk or asset, with the
// source-map sibling/inline handling and the legacy onwrite dispatch that
// only applies to chunks.
package writer

import (
	"os"
	"path/filepath"

	"github.com/bundleforge/bundleforge/internal/buildmodel"
	"github.com/bundleforge/bundleforge/internal/helpers"
)

// Write persists every entry of bundle under dir and runs each plugin's
// legacy onwrite hook once per chunk actually written (spec §4.7). Every
// file in the call is written concurrently; within one chunk its .map
// sibling is made durable before the code file, so a crash mid-write
// never leaves a code file pointing at a missing map (spec §4.7's
// ordering note, spec §5's suspension-point invariant).
func Write(dir string, out *buildmodel.OutputOptions, bundle *buildmodel.Bundle, plugins []*buildmodel.Plugin, ctxFor func(pluginName string) *buildmodel.Context) error {
	items := bundle.Output()

	wg := helpers.MakeThreadSafeWaitGroup()
	errs := make([]error, len(items))

	wg.Add(int32(len(items)))
	for i, item := range items {
		i, item := i, item
		go func() {
			defer wg.Done()
			errs[i] = writeItem(dir, out, item, plugins, ctxFor)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func writeItem(dir string, out *buildmodel.OutputOptions, item buildmodel.Item, plugins []*buildmodel.Plugin, ctxFor func(string) *buildmodel.Context) error {
	switch v := item.(type) {
	case *buildmodel.OutputAsset:
		return writeFile(filepath.Join(dir, v.FileName), v.Source)

	case *buildmodel.OutputChunk:
		code := v.Code
		if v.Map != nil && out.Sourcemap != buildmodel.SourceMapOff {
			if out.Sourcemap == buildmodel.SourceMapInline {
				code += sourceMappingComment(v.Map.DataURL())
			} else {
				mapFileName := v.FileName + ".map"
				if err := writeFile(filepath.Join(dir, mapFileName), v.Map.JSON); err != nil {
					return err
				}
				code += sourceMappingComment(filepath.Base(mapFileName))
			}
		}
		if err := writeFile(filepath.Join(dir, v.FileName), []byte(code)); err != nil {
			return err
		}
		return buildmodel.ParallelFanOut(plugins, func(p *buildmodel.Plugin) error {
			if p.OnWrite == nil {
				return nil
			}
			return p.OnWrite(ctxFor(p.Name), out, v)
		})

	default:
		return nil
	}
}

func sourceMappingComment(url string) string {
	return "\n//# sourceMappingURL=" + url + "\n"
}

func writeFile(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return buildmodel.NewError(buildmodel.CodeInvalidOption, "cannot create output directory: "+err.Error())
	}
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return buildmodel.NewError(buildmodel.CodeInvalidOption, "failed to write "+path+": "+err.Error())
	}
	return nil
}

package buildmodel

import (
	"strings"

	"github.com/bundleforge/bundleforge/internal/helpers"
)

// ParallelFanOut runs call once per plugin concurrently and waits for
// every call to finish before returning, regardless of whether one of
// them fails (spec §4.3: "parallel hooks ... wait for every plugin to
// finish even after one reports failure; the first error encountered,
// by plugin order, is the one surfaced"). It's used for buildStart,
// buildEnd, generateBundle, onGenerate and onWrite.
func ParallelFanOut(plugins []*Plugin, call func(p *Plugin) error) error {
	wg := helpers.MakeThreadSafeWaitGroup()
	errs := make([]error, len(plugins))

	wg.Add(int32(len(plugins)))
	for i, p := range plugins {
		i, p := i, p
		go func() {
			defer wg.Done()
			errs[i] = RunHook(func() error { return call(p) })
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

// ReducingFold threads acc through call once per plugin, left to right,
// each call seeing the previous plugin's result (spec §4.3: "the options
// hook ... is a left fold: each plugin receives the accumulated options
// from every plugin before it"). It stops and returns the error from the
// first plugin that fails.
func ReducingFold(plugins []*Plugin, acc *InputOptions, call func(p *Plugin, acc *InputOptions) (*InputOptions, error)) (*InputOptions, error) {
	for _, p := range plugins {
		var next *InputOptions
		err := RunHook(func() error {
			var callErr error
			next, callErr = call(p, acc)
			return callErr
		})
		if err != nil {
			return nil, err
		}
		if next != nil {
			acc = next
		}
	}
	return acc, nil
}

// FirstNonAbsent tries call against each plugin in order and returns the
// first non-nil result (spec §4.3: "resolveId, load and
// resolveDynamicImport ... the first plugin to return anything other
// than null/undefined wins; remaining plugins are not consulted"). The
// bool result reports whether any plugin answered at all.
func FirstNonAbsent(plugins []*Plugin, call func(p *Plugin) (*ResolveResult, error)) (*ResolveResult, bool, error) {
	for _, p := range plugins {
		var result *ResolveResult
		err := RunHook(func() error {
			var callErr error
			result, callErr = call(p)
			return callErr
		})
		if err != nil {
			return nil, false, err
		}
		if result != nil {
			return result, true, nil
		}
	}
	return nil, false, nil
}

// FirstLoadResult is FirstNonAbsent's counterpart for the load hook,
// which answers with a *LoadResult rather than a *ResolveResult.
func FirstLoadResult(plugins []*Plugin, call func(p *Plugin) (*LoadResult, error)) (*LoadResult, bool, error) {
	for _, p := range plugins {
		var result *LoadResult
		err := RunHook(func() error {
			var callErr error
			result, callErr = call(p)
			return callErr
		})
		if err != nil {
			return nil, false, err
		}
		if result != nil {
			return result, true, nil
		}
	}
	return nil, false, nil
}

// SequentialTransform threads code through call once per plugin in
// order, each plugin seeing the previous plugin's output (spec §4.3:
// "transform is a pipeline: each plugin's output becomes the next
// plugin's input"). A plugin returning a nil *TransformResult passes
// its input through unmodified.
func SequentialTransform(plugins []*Plugin, code string, call func(p *Plugin, code string) (*TransformResult, error)) (string, error) {
	for _, p := range plugins {
		var result *TransformResult
		err := RunHook(func() error {
			var callErr error
			result, callErr = call(p, code)
			return callErr
		})
		if err != nil {
			return "", err
		}
		if result != nil {
			code = result.Code
		}
	}
	return code, nil
}

// ComposeAddons joins every plugin's addon for the given slot with a
// newline, in plugin order, ahead of the output option's own addon if
// any (spec §9's addon composition note). Errors from any one addon
// abort the composition.
func ComposeAddons(pluginAddons []Addon, outputAddon Addon) (string, error) {
	var lines []string
	for _, a := range pluginAddons {
		text, err := expandAddon(a)
		if err != nil {
			return "", err
		}
		if text != "" {
			lines = append(lines, text)
		}
	}
	text, err := expandAddon(outputAddon)
	if err != nil {
		return "", err
	}
	if text != "" {
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n"), nil
}

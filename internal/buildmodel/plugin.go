package buildmodel

// Addon is a banner/footer/intro/outro contribution, normalized to a
// zero-argument callable returning a deferred literal (spec §9). A nil
// Addon contributes nothing.
type Addon func() (string, error)

// StringAddon wraps a literal as an Addon, for the common case of a
// plugin author with no need for a thunk.
func StringAddon(s string) Addon {
	return func() (string, error) { return s, nil }
}

func expandAddon(a Addon) (string, error) {
	if a == nil {
		return "", nil
	}
	return a()
}

// ResolveResult is the tagged result of a resolveId/resolveDynamicImport
// hook. A nil *ResolveResult from a hook means "absent" (try the next
// plugin); External true is the sentinel for "this id is external".
type ResolveResult struct {
	ID       string
	External bool
}

// LoadResult is the tagged result of a load hook. A nil *LoadResult means
// "absent" (try the next plugin, or fall back to reading the file system).
type LoadResult struct {
	Code string
}

// TransformResult is the result of a transform/transformChunk hook. A nil
// *TransformResult means "no change": the input code passes through to
// the next plugin in the pipeline unmodified.
type TransformResult struct {
	Code string
}

// Plugin mirrors the plugin object described in spec §6: a required name
// and any subset of hooks. Go has no notion of an optional method on an
// interface short of a type assertion per hook, which would make an
// ordered plugin list awkward to fan out over; a nilable function field
// per hook keeps the Hook Driver's loop uniform and keeps "this plugin
// doesn't implement this hook" a simple nil check.
type Plugin struct {
	Name string

	Options func(ctx *Context, opts *InputOptions) (*InputOptions, error)

	ResolveID            func(ctx *Context, id string, importer string) (*ResolveResult, error)
	ResolveDynamicImport func(ctx *Context, specifier string, importer string) (*ResolveResult, error)
	Load                 func(ctx *Context, id string) (*LoadResult, error)
	Transform            func(ctx *Context, code string, id string) (*TransformResult, error)
	TransformChunk       func(ctx *Context, code string, outputOptions *OutputOptions) (*TransformResult, error)
	TransformBundle      func(ctx *Context, code string, outputOptions *OutputOptions) (*TransformResult, error) // deprecated, runs alongside TransformChunk

	BuildStart func(ctx *Context) error
	BuildEnd   func(ctx *Context, buildErr error) error

	GenerateBundle func(ctx *Context, outputOptions *OutputOptions, bundle *Bundle, isWrite bool) error
	OnGenerate     func(ctx *Context, outputOptions *OutputOptions, chunk *OutputChunk) error // deprecated
	OnWrite        func(ctx *Context, outputOptions *OutputOptions, chunk *OutputChunk) error // deprecated

	Banner Addon
	Footer Addon
	Intro  Addon
	Outro  Addon
}

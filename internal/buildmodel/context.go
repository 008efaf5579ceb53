package buildmodel

import (
	"fmt"

	"github.com/bundleforge/bundleforge/internal/helpers"
	"github.com/bundleforge/bundleforge/internal/logger"
)

// Resolver is supplied by the Graph: it runs the full resolveId hook
// chain (spec §4.2 "delegate to the Graph's resolver").
type Resolver func(id string, importer string) (*ResolveResult, error)

// Parser is supplied by whoever owns the (out of scope) parser
// collaborator; nil means no parser is wired up.
type Parser func(src string, opts map[string]interface{}) (interface{}, error)

// Context is the per-build capability object passed as the first
// argument to every plugin hook (spec §4.2). One Context is constructed
// per Build (or, during generateBundle, a Context scoped to that
// generate call — see Derive); ForPlugin hands back a cheap shallow copy
// carrying the calling plugin's name for warning/error attribution.
type Context struct {
	pluginName string

	log        logger.Log
	resolve    Resolver
	isExternal func(id string, importer string, isResolved bool) bool
	parse      Parser
	assets     AssetOps
	watcher    interface{}
}

// AssetOps is the subset of the Asset Registry's API a Context exposes
// to plugins. It's an interface rather than a direct *asset.Registry
// reference so buildmodel doesn't need to import internal/asset, which
// in turn needs no dependency on buildmodel.
type AssetOps interface {
	Emit(name string, source []byte) string
	SetSource(assetID string, source []byte) error
	FileName(assetID string) (string, error)
}

type ContextConfig struct {
	Log        logger.Log
	Resolve    Resolver
	IsExternal func(id string, importer string, isResolved bool) bool
	Parse      Parser
	Assets     AssetOps
	Watcher    interface{}
}

func NewContext(cfg ContextConfig) *Context {
	return &Context{
		log:        cfg.Log,
		resolve:    cfg.Resolve,
		isExternal: cfg.IsExternal,
		parse:      cfg.Parse,
		assets:     cfg.Assets,
		watcher:    cfg.Watcher,
	}
}

// ForPlugin returns a shallow copy of ctx attributing subsequent
// warnings and errors to pluginName.
func (ctx *Context) ForPlugin(pluginName string) *Context {
	clone := *ctx
	clone.pluginName = pluginName
	return &clone
}

// Derive returns a copy of ctx whose asset operations go to assetOps.
// Generate calls it with the Build's own asset registry, so assets
// emitted by a generateBundle plugin land in the same registry as
// build-time assets.
func (ctx *Context) Derive(assetOps AssetOps) *Context {
	clone := *ctx
	clone.assets = assetOps
	return &clone
}

// Warn normalizes a plain warning into a structured Msg and forwards it
// to the build's warning sink.
func (ctx *Context) Warn(text string, pos *Pos) {
	ctx.log.AddMsg(logger.Msg{
		Kind:   logger.Warning,
		Text:   text,
		Plugin: ctx.pluginName,
		Pos:    toLoggerPos(pos),
	})
}

// Error raises a failure and never returns: it panics with a sentinel
// the Hook Driver recovers and turns into an ordinary returned error,
// mirroring the "throw" semantics of the hook it's called from.
func (ctx *Context) Error(err error, pos *Pos) {
	panic(pluginErrorPanic{toStructuredError(ctx.pluginName, err, pos)})
}

func toStructuredError(pluginName string, err error, pos *Pos) *Error {
	if structured, ok := err.(*Error); ok {
		if structured.Plugin == "" {
			structured.Plugin = pluginName
		}
		if structured.Pos == nil {
			structured.Pos = pos
		}
		return structured
	}
	return &Error{
		Code:    CodePluginError,
		Message: err.Error(),
		Plugin:  pluginName,
		Pos:     pos,
		Wrapped: err,
	}
}

// pluginErrorPanic is the sentinel ctx.Error panics with; RunHook turns
// it back into the structured error it carries.
type pluginErrorPanic struct {
	err *Error
}

// RunHook invokes fn, converting a ctx.Error panic into a returned
// error. A panic that isn't ctx.Error's sentinel is a genuine bug in the
// plugin rather than a reported failure; it's recovered the same way the
// teacher's linker recovers a renderer panic, as a PLUGIN_ERROR carrying
// the stack trace in Frame instead of taking down the whole process.
// Every place that calls into plugin code should go through this.
func RunHook(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(pluginErrorPanic); ok {
				err = pe.err
				return
			}
			err = &Error{
				Code:    CodePluginError,
				Message: fmt.Sprintf("panic: %v", r),
				Frame:   helpers.PrettyPrintedStack(),
			}
		}
	}()
	return fn()
}

func (ctx *Context) Parse(src string, opts map[string]interface{}) (interface{}, error) {
	if ctx.parse == nil {
		return nil, NewError(CodeInvalidOption, "no parser is configured for this build")
	}
	return ctx.parse(src, opts)
}

func (ctx *Context) ResolveID(id string, importer string) (*ResolveResult, error) {
	if ctx.resolve == nil {
		return nil, nil
	}
	return ctx.resolve(id, importer)
}

func (ctx *Context) IsExternal(id string, importer string, isResolved bool) bool {
	if ctx.isExternal == nil {
		return false
	}
	return ctx.isExternal(id, importer, isResolved)
}

func (ctx *Context) EmitAsset(name string, source []byte) string {
	return ctx.assets.Emit(name, source)
}

func (ctx *Context) SetAssetSource(assetID string, source []byte) error {
	return ctx.assets.SetSource(assetID, source)
}

func (ctx *Context) GetAssetFileName(assetID string) (string, error) {
	return ctx.assets.FileName(assetID)
}

// Watcher returns the enclosing watch reactor, or nil under a one-shot
// build (spec §4.2).
func (ctx *Context) Watcher() interface{} {
	return ctx.watcher
}

func toLoggerPos(pos *Pos) *logger.Pos {
	if pos == nil {
		return nil
	}
	return &logger.Pos{File: pos.File, Line: pos.Line, Column: pos.Column}
}

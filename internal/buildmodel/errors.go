package buildmodel

import "fmt"

// Code identifies the kind of failure, matching spec §7.
type Code string

const (
	CodeUnknownOption          Code = "UNKNOWN_OPTION"
	CodeInvalidOption          Code = "INVALID_OPTION"
	CodeMissingOption          Code = "MISSING_OPTION"
	CodeDeprecatedOptions      Code = "DEPRECATED_OPTIONS"
	CodeMissingOutputOption    Code = "MISSING_OUTPUT_OPTION"
	CodeUnsupportedLegacyOption Code = "UNSUPPORTED_LEGACY_OPTION"
	CodeFormatRequired         Code = "FORMAT_REQUIRED"
	CodeFormatDeprecated       Code = "FORMAT_DEPRECATED"
	CodeConflictingOption      Code = "CONFLICTING_OPTION"
	CodeAssetFinalized         Code = "ASSET_FINALIZED"
	CodeUnknownAsset           Code = "UNKNOWN_ASSET"
	CodeAssetSourceMissing     Code = "ASSET_SOURCE_MISSING"
	CodePluginError            Code = "PLUGIN_ERROR"
)

// Pos is the optional source position an error or warning can carry.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Error is the failure value surfaced by every public entry point
// (spec §6, §7): a code, a message, and whatever optional context is
// available.
type Error struct {
	Code    Code
	Message string
	URL     string
	Plugin  string
	Pos     *Pos
	Loc     *Pos
	Frame   string

	// Wrapped is the original plugin-thrown value, set only for
	// PLUGIN_ERROR.
	Wrapped error
}

func (e *Error) Error() string {
	if e.Plugin != "" {
		return fmt.Sprintf("%s: %s (plugin %s)", e.Code, e.Message, e.Plugin)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapPluginError turns a plugin-thrown value into a PLUGIN_ERROR,
// per spec §7: "Plugin errors ... wraps a plugin-thrown value with
// 'plugin' set."
func WrapPluginError(pluginName string, err error) *Error {
	if err == nil {
		return nil
	}
	if alreadyStructured, ok := err.(*Error); ok {
		if alreadyStructured.Plugin == "" {
			alreadyStructured.Plugin = pluginName
		}
		return alreadyStructured
	}
	return &Error{
		Code:    CodePluginError,
		Message: err.Error(),
		Plugin:  pluginName,
		Wrapped: err,
	}
}

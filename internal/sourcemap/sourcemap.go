// Package sourcemap holds the small amount of source-map handling that
// belongs to the core: composing the actual mapping data is the
// finalizer's job (out of scope, §1), but turning an already-rendered map
// into a companion file, a data URL, or a trailing comment is not.
package sourcemap

import "encoding/base64"

// Map is the opaque, already-serialized output of a Chunk's render step.
// The core never inspects its contents; it only writes them out in one of
// the three ways OutputOptions.Sourcemap selects.
type Map struct {
	JSON []byte
}

// DataURL returns the "data:application/json;base64,..." form used for
// inline source maps.
func (m Map) DataURL() string {
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(m.JSON)
}

// CommentLine returns the trailing "//# sourceMappingURL=..." comment for
// a chunk whose map is reachable at url (either a data URL or the
// basename of a companion ".map" file).
func CommentLine(url string) string {
	return "//# sourceMappingURL=" + url + "\n"
}

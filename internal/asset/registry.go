// Package asset implements the Asset Registry (spec §4.6): the map of
// emitted asset ids to pending-or-finalized assets, with name-template
// expansion and deterministic, collision-free filename assignment.
package asset

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrUnknownAsset       = errors.New("UNKNOWN_ASSET: no asset was emitted with this id")
	ErrAssetFinalized     = errors.New("ASSET_FINALIZED: asset already has a source and a file name")
	ErrAssetSourceMissing = errors.New("ASSET_SOURCE_MISSING: asset has no source and none was ever set")
)

type Asset struct {
	Name     string
	Source   []byte
	HasSource bool
	FileName string
	HasFileName bool
}

// Registry is the mutable state behind every PluginContext's
// emitAsset/setAssetSource/getAssetFileName operations for one Build,
// including those made from generateBundle hooks: there is no separate
// per-generate-call snapshot of the registry.
type Registry struct {
	mutex   sync.Mutex
	counter int
	assets  map[string]*Asset
}

func New() *Registry {
	return &Registry{assets: make(map[string]*Asset)}
}

// Emit allocates a fresh, deterministic asset id. Ids are derived from an
// incrementing counter seeded at build start, per spec §4.6.
func (r *Registry) Emit(name string, source []byte) string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.counter++
	id := "asset:" + strconv.Itoa(r.counter)
	r.assets[id] = &Asset{Name: name, Source: source, HasSource: source != nil}
	return id
}

// SetSource late-binds the source of an asset that was emitted without
// one. It fails if the id is unknown or if the asset was already
// finalized with both a source and a file name.
func (r *Registry) SetSource(assetID string, source []byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, ok := r.assets[assetID]
	if !ok {
		return ErrUnknownAsset
	}
	if a.HasSource && a.HasFileName {
		return ErrAssetFinalized
	}
	a.Source = source
	a.HasSource = true
	return nil
}

// FileName returns the finalized file name for assetID, failing if the
// name hasn't been assigned yet (spec §4.2 getAssetFileName).
func (r *Registry) FileName(assetID string) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, ok := r.assets[assetID]
	if !ok {
		return "", ErrUnknownAsset
	}
	if !a.HasFileName {
		return "", fmt.Errorf("asset %q has not been named yet", assetID)
	}
	return a.FileName, nil
}

// SourceOf returns the raw bytes of an emitted asset, or nil if it has
// none (or doesn't exist). Used by the Output Writer and the Generate
// Coordinator once an asset's filename has been finalized.
func (r *Registry) SourceOf(assetID string) []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	a, ok := r.assets[assetID]
	if !ok || !a.HasSource {
		return nil
	}
	return a.Source
}

// PendingWithSource returns the ids of every asset that has a source but
// no file name yet, in a deterministic (insertion) order.
func (r *Registry) PendingWithSource() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var ids []string
	for i := 1; i <= r.counter; i++ {
		id := "asset:" + strconv.Itoa(i)
		if a, ok := r.assets[id]; ok && a.HasSource && !a.HasFileName {
			ids = append(ids, id)
		}
	}
	return ids
}

// WithoutFileName returns every asset id that still has no file name,
// regardless of whether it has a source. Used to detect ASSET_SOURCE_MISSING
// at the end of a generate call.
func (r *Registry) WithoutFileName() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var ids []string
	for i := 1; i <= r.counter; i++ {
		id := "asset:" + strconv.Itoa(i)
		if a, ok := r.assets[id]; ok && !a.HasFileName {
			ids = append(ids, id)
		}
	}
	return ids
}

// Finalize expands template against the asset's name and content hash,
// disambiguating against takenNames, and assigns the resulting file name.
// It fails if the asset has no source yet.
func (r *Registry) Finalize(assetID string, template string, takenNames map[string]bool) (string, error) {
	r.mutex.Lock()
	a, ok := r.assets[assetID]
	r.mutex.Unlock()
	if !ok {
		return "", ErrUnknownAsset
	}
	if !a.HasSource {
		return "", ErrAssetSourceMissing
	}

	name := ExpandAssetTemplate(template, a.Name, a.Source)
	name = disambiguate(name, takenNames)

	r.mutex.Lock()
	a.FileName = name
	a.HasFileName = true
	r.mutex.Unlock()
	return name, nil
}

// ContentHash returns the first 8 hex characters of a stable hash over
// source, the form every "[hash]" placeholder expands to (spec §6).
func ContentHash(source []byte) string {
	sum := sha1.Sum(source)
	return hex.EncodeToString(sum[:])[:8]
}

// ExpandAssetTemplate expands "[name]", "[ext]", "[extname]", and "[hash]"
// against name and source. It does not handle "[format]", which only
// applies to chunk name templates.
func ExpandAssetTemplate(template, name string, source []byte) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	extNoDot := strings.TrimPrefix(ext, ".")

	out := template
	out = strings.ReplaceAll(out, "[name]", base)
	out = strings.ReplaceAll(out, "[extname]", ext)
	out = strings.ReplaceAll(out, "[ext]", extNoDot)
	out = strings.ReplaceAll(out, "[hash]", ContentHash(source))
	return out
}

func disambiguate(name string, taken map[string]bool) string {
	if !taken[name] {
		taken[name] = true
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d%s", base, i, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}

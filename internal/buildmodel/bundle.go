package buildmodel

import (
	"sync"

	"github.com/bundleforge/bundleforge/internal/sourcemap"
)

// OutputChunk is the code-bearing half of an OutputBundle entry
// (spec §3).
type OutputChunk struct {
	FileName    string
	Code        string
	Map         *sourcemap.Map
	IsEntry     bool
	IsFacade    bool
	ImportIDs   []string
	ExportNames []string
	ModuleIDs   []string
}

// OutputAsset is the non-code half of an OutputBundle entry (spec §3).
type OutputAsset struct {
	FileName string
	Source   []byte
}

// Bundle is the OutputBundle described in spec §3: an ordered mapping
// from final file name to either an OutputChunk or an OutputAsset,
// created fresh per generate/write call. Ordering within the Output
// slice follows spec §6: entry chunks first in emission order, then
// shared chunks, then assets, stable within each category.
type Bundle struct {
	mutex sync.Mutex

	chunks map[string]*OutputChunk
	assets map[string]*OutputAsset

	entryOrder  []string
	sharedOrder []string
	assetOrder  []string
}

func NewBundle() *Bundle {
	return &Bundle{
		chunks: make(map[string]*OutputChunk),
		assets: make(map[string]*OutputAsset),
	}
}

// AddChunkSkeleton materializes a bundle entry for fileName with code and
// map left unset (spec §4.5 step 12). It is an error to call this twice
// for the same file name within one generate call.
func (b *Bundle) AddChunkSkeleton(fileName string, isEntry bool) *OutputChunk {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	chunk := &OutputChunk{FileName: fileName, IsEntry: isEntry}
	b.chunks[fileName] = chunk
	if isEntry {
		b.entryOrder = append(b.entryOrder, fileName)
	} else {
		b.sharedOrder = append(b.sharedOrder, fileName)
	}
	return chunk
}

// AddAsset inserts a finalized asset into the bundle.
func (b *Bundle) AddAsset(fileName string, source []byte) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.assets[fileName] = &OutputAsset{FileName: fileName, Source: source}
	b.assetOrder = append(b.assetOrder, fileName)
}

// Chunk looks up a chunk skeleton by file name.
func (b *Bundle) Chunk(fileName string) (*OutputChunk, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	c, ok := b.chunks[fileName]
	return c, ok
}

// Has reports whether fileName is already taken by either a chunk or an
// asset, used to disambiguate name-template collisions.
func (b *Bundle) Has(fileName string) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	_, isChunk := b.chunks[fileName]
	_, isAsset := b.assets[fileName]
	return isChunk || isAsset
}

// TakenNames returns a fresh snapshot of every file name already present
// in the bundle, suitable as the "taken" set for asset name disambiguation.
func (b *Bundle) TakenNames() map[string]bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	taken := make(map[string]bool, len(b.chunks)+len(b.assets))
	for name := range b.chunks {
		taken[name] = true
	}
	for name := range b.assets {
		taken[name] = true
	}
	return taken
}

// Item is either an *OutputChunk or an *OutputAsset, returned by Output
// in the order spec §6 mandates.
type Item interface{}

// Output returns every bundle entry sorted entry chunks first (in
// emission order), then shared chunks, then assets, stable within each
// category. This is the order Build.Generate's result list uses.
func (b *Bundle) Output() []Item {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	items := make([]Item, 0, len(b.chunks)+len(b.assets))
	for _, name := range b.entryOrder {
		items = append(items, b.chunks[name])
	}
	for _, name := range b.sharedOrder {
		items = append(items, b.chunks[name])
	}
	for _, name := range b.assetOrder {
		items = append(items, b.assets[name])
	}
	return items
}

// ChunkFileNames returns every chunk file name currently materialized in
// the bundle, used to detect a chunk whose code was never rendered.
func (b *Bundle) ChunkFileNames() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	names := make([]string, 0, len(b.entryOrder)+len(b.sharedOrder))
	names = append(names, b.entryOrder...)
	names = append(names, b.sharedOrder...)
	return names
}

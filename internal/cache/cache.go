// Package cache implements the serializable per-module transform snapshot
// that a Build exposes through its Cache method (spec §3, §9: "Cache as
// serializable snapshot"). A caller can feed a previous Build's snapshot
// back into the next InputOptions.CacheSeed to skip re-reading files whose
// metadata hasn't changed since they were last read.
package cache

import (
	"sync"

	"github.com/bundleforge/bundleforge/internal/fs"
)

// Entry is one cached module: the file contents the Graph saw last time,
// keyed by a cheap metadata fingerprint rather than a content hash so
// that checking staleness never requires re-reading the file.
type Entry struct {
	Contents string
	ModKey   fs.ModKey
	Usable   bool
}

// Snapshot is the plain, serializable structure returned by Build.Cache
// and accepted back by InputOptions.CacheSeed. It deliberately holds only
// data, no behavior, so it can be marshaled by a caller between process
// runs if desired.
type Snapshot struct {
	Entries map[string]Entry
}

// Set is the live, concurrency-safe cache a Build consults and updates
// while it runs. It wraps a Snapshot so a fresh one can be handed back
// to the caller at any time via Export.
type Set struct {
	mutex   sync.Mutex
	entries map[string]Entry
}

// New creates an empty cache set, or one seeded from a previously
// exported Snapshot (InputOptions.CacheSeed).
func New(seed *Snapshot) *Set {
	entries := make(map[string]Entry)
	if seed != nil {
		for k, v := range seed.Entries {
			entries[k] = v
		}
	}
	return &Set{entries: entries}
}

// ReadFile reads path through fsys, reusing the cached contents if the
// file's ModKey fingerprint hasn't changed since it was last cached.
func (s *Set) ReadFile(fsys fs.FS, path string) (string, bool) {
	modKey, modKeyErr := fsys.ModKeyOf(path)

	s.mutex.Lock()
	entry, ok := s.entries[path]
	s.mutex.Unlock()

	if ok && entry.Usable && modKeyErr == nil && entry.ModKey == modKey {
		return entry.Contents, true
	}

	contents, ok := fsys.ReadFile(path)
	if !ok {
		return "", false
	}

	s.mutex.Lock()
	s.entries[path] = Entry{
		Contents: contents,
		ModKey:   modKey,
		Usable:   modKeyErr == nil,
	}
	s.mutex.Unlock()
	return contents, true
}

// Export returns a plain snapshot suitable for Build.Cache, safe to hand
// to the caller once the build has finished mutating the set.
func (s *Set) Export() *Snapshot {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	entries := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	return &Snapshot{Entries: entries}
}

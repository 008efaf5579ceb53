package fs

import "errors"

// ModKey is a cheap fingerprint of a file's metadata (not its contents).
// The Build cache (internal/cache) uses it to skip re-reading and re-
// transforming a module when nothing about the underlying file has
// changed since the fingerprint was taken.
type ModKey struct {
	inode      uint64
	size       int64
	mtime_sec  int64
	mtime_nsec int64
	mode       uint32
	uid        uint32
}

const modKeySafetyGap = 2 // in seconds

var modKeyUnusable = errors.New("the modification key is unusable")

// ModKeyOf returns a fingerprint for path, or an error if the file system
// doesn't expose the metadata needed to detect changes reliably (e.g. a
// mock file system used in tests, or a file modified too recently for the
// safety gap above to have elapsed).
func (fs *realFS) ModKeyOf(path string) (ModKey, error) {
	return modKey(path)
}

func (*mockFS) ModKeyOf(path string) (ModKey, error) {
	return ModKey{}, modKeyUnusable
}

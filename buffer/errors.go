package buffer

import "errors"

// ErrPagePinned is returned by DeletePage when the page is resident and
// at least one pin on it is still outstanding.
var ErrPagePinned = errors.New("buffer: page is pinned")

// ErrBadBuffer is returned when the pool has no free frame and the
// replacer cannot find an evictable victim either.
var ErrBadBuffer = errors.New("buffer: no frame available")

// ErrPageChecksum is returned when a page read from disk fails its
// xxhash64 trailer check, signalling on-disk corruption rather than a
// pool-management condition.
var ErrPageChecksum = errors.New("buffer: page checksum mismatch")

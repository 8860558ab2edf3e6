package buffer

import (
	"sync"
	"sync/atomic"

	"bptreeidx/storage/disk"
)

func (f *frame) pin() {
	f.pins.Add(1)
}

func (f *frame) unpin() int32 {
	n := f.pins.Add(-1)
	if n < 0 {
		// a caller unpinned more times than it pinned; clamp rather than
		// let the count wrap negative and make the frame un-evictable
		// forever.
		f.pins.Store(0)
		return 0
	}
	return n
}

func (f *frame) reset() {
	f.dirty = false
	f.pins.Store(0)
	f.pageID = disk.InvalidPageID
	for i := range f.data {
		f.data[i] = 0
	}
}

// frame is one slot of the pool's fixed-size backing array. mu guards
// concurrent readers/writers of the same resident page; pins tracks how
// many guards are outstanding against it.
type frame struct {
	mu     sync.RWMutex
	id     int
	data   []byte
	pins   atomic.Int32
	dirty  bool
	pageID int
}

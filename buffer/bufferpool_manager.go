package buffer

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"bptreeidx/storage/disk"
)

// NewBufferpoolManager builds a pool of `size` frames backed by
// scheduler, replacing pages with the given LRU-K lookback once the pool
// is full.
func NewBufferpoolManager(size int, replacer *lrukReplacer, scheduler *disk.Scheduler) *BufferpoolManager {
	frames := make([]*frame, size)
	freeFrames := make([]int, size)

	for i := 0; i < size; i++ {
		frames[i] = &frame{id: i, data: make([]byte, disk.PageSize), pageID: disk.InvalidPageID}
		freeFrames[i] = i
	}

	bpm := &BufferpoolManager{
		frames:     frames,
		pageTable:  make(map[int]int),
		replacer:   replacer,
		scheduler:  scheduler,
		freeFrames: freeFrames,
	}
	bpm.cond = sync.NewCond(&bpm.mu)
	return bpm
}

// NewPage allocates a fresh page id and returns a write guard over a
// zeroed frame for it. It never reads from disk: the page has no content
// yet, so there is nothing to read and no checksum to check. (Taking a
// frame may still write a dirty victim back first.)
func (b *BufferpoolManager) NewPage() (int, *WritePageGuard, error) {
	b.mu.Lock()
	pageID, err := b.scheduler.Allocate()
	if err != nil {
		b.mu.Unlock()
		return disk.InvalidPageID, nil, err
	}

	f, err := b.acquireFrame(pageID)
	if err != nil {
		b.mu.Unlock()
		return disk.InvalidPageID, nil, err
	}
	f.reset()
	f.pageID = pageID
	f.pin()
	f.mu.Lock()
	b.mu.Unlock()

	return pageID, newWritePageGuard(f, b), nil
}

// FetchPageRead pins pageId for reading, pulling it from disk on a miss
// and verifying its checksum trailer.
func (b *BufferpoolManager) FetchPageRead(pageID int) (*ReadPageGuard, error) {
	f, fromDisk, err := b.fetch(pageID)
	if err != nil {
		return nil, err
	}
	if fromDisk {
		if err := verifyChecksum(f.data); err != nil {
			b.releasePin(f.id)
			return nil, err
		}
	}
	f.mu.RLock()
	return newReadPageGuard(f, b), nil
}

// FetchPageWrite pins pageId for writing, pulling it from disk on a miss
// and verifying its checksum trailer.
func (b *BufferpoolManager) FetchPageWrite(pageID int) (*WritePageGuard, error) {
	f, fromDisk, err := b.fetch(pageID)
	if err != nil {
		return nil, err
	}
	if fromDisk {
		if err := verifyChecksum(f.data); err != nil {
			b.releasePin(f.id)
			return nil, err
		}
	}
	f.mu.Lock()
	return newWritePageGuard(f, b), nil
}

// fetch pins and returns the frame for pageId, reading it from disk on
// a miss. The caller still needs to take frame.mu itself: the read/write
// lock choice differs between FetchPageRead and FetchPageWrite.
func (b *BufferpoolManager) fetch(pageID int) (*frame, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.pageTable[pageID]; ok {
		f := b.frames[id]
		b.replacer.recordAccess(f.id)
		b.replacer.setEvictable(f.id, false)
		f.pin()
		return f, false, nil
	}

	f, err := b.acquireFrame(pageID)
	if err != nil {
		return nil, false, err
	}

	f.reset()
	f.pageID = pageID
	f.pin()

	resp := <-b.scheduler.Schedule(disk.NewRequest(pageID, nil, false))
	if !resp.Success {
		f.unpin()
		return nil, false, resp.Err
	}
	copy(f.data, resp.Data)

	return f, true, nil
}

// acquireFrame finds a frame for pageId, taking a free one if available
// or evicting a victim, flushing it first if it is dirty. The pool lock
// must already be held. When every frame is pinned it fails with
// ErrBadBuffer; otherwise, if the replacer has no victim yet, it waits
// on the pool's condition variable, which is signalled whenever a guard
// is dropped.
func (b *BufferpoolManager) acquireFrame(pageID int) (*frame, error) {
	for {
		if len(b.freeFrames) > 0 {
			id := b.freeFrames[0]
			b.freeFrames = b.freeFrames[1:]
			f := b.frames[id]
			b.bindFrame(f, pageID)
			return f, nil
		}

		if id, err := b.replacer.evict(); err == nil {
			f := b.frames[id]
			if err := b.flushLocked(f); err != nil {
				return nil, err
			}
			delete(b.pageTable, f.pageID)
			b.bindFrame(f, pageID)
			return f, nil
		}

		if b.noWaitersPossible() {
			return nil, ErrBadBuffer
		}

		b.cond.Wait()
	}
}

func (b *BufferpoolManager) bindFrame(f *frame, pageID int) {
	b.pageTable[pageID] = f.id
	b.replacer.recordAccess(f.id)
	b.replacer.setEvictable(f.id, false)
}

// noWaitersPossible reports whether every frame in the pool is pinned,
// in which case waiting for the condition variable would block forever.
func (b *BufferpoolManager) noWaitersPossible() bool {
	for _, f := range b.frames {
		if f.pins.Load() == 0 {
			return false
		}
	}
	return true
}

// releasePin is called by PageGuard.Drop after it has released the
// frame's RWMutex, to update pin bookkeeping and wake any waiter in
// acquireFrame.
func (b *BufferpoolManager) releasePin(frameID int) {
	b.mu.Lock()
	f := b.frames[frameID]
	if f.unpin() == 0 {
		b.replacer.setEvictable(f.id, true)
	}
	b.cond.Signal()
	b.mu.Unlock()
}

// DeletePage reclaims pageId's on-disk slot. It fails with
// ErrPagePinned if the page is currently resident and pinned: the index
// never deletes pages while a caller elsewhere might still be reading
// one, but this guards the invariant even if that ever changes.
func (b *BufferpoolManager) DeletePage(pageID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.pageTable[pageID]; ok {
		f := b.frames[id]
		if f.pins.Load() > 0 {
			return ErrPagePinned
		}
		b.replacer.remove(f.id)
		delete(b.pageTable, pageID)
		b.freeFrames = append(b.freeFrames, f.id)
	}

	b.scheduler.Delete(pageID)
	return nil
}

// FlushFile writes every dirty resident frame back to disk and fsyncs
// the underlying file. It does not require frames to be unpinned: a
// flush may legitimately happen while the index is mid-operation.
func (b *BufferpoolManager) FlushFile() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, f := range b.frames {
		if f.pageID == disk.InvalidPageID {
			continue
		}
		if err := b.flushLocked(f); err != nil {
			return err
		}
	}

	return b.scheduler.Sync()
}

// flushLocked writes f's checksum trailer and bytes to disk if dirty.
// Caller must hold b.mu.
func (b *BufferpoolManager) flushLocked(f *frame) error {
	if !f.dirty {
		return nil
	}

	writeChecksum(f.data)
	resp := <-b.scheduler.Schedule(disk.NewRequest(f.pageID, f.data, true))
	if !resp.Success {
		return resp.Err
	}
	f.dirty = false
	return nil
}

// NextPageID and RestoreNextPageID pass through to the scheduler's
// allocation watermark, letting a domain layer persist where page
// allocation left off and restore it after a reopen.
func (b *BufferpoolManager) NextPageID() int {
	return b.scheduler.NextPageID()
}

func (b *BufferpoolManager) RestoreNextPageID(id int) {
	b.scheduler.RestoreNextPageID(id)
}

// Close flushes everything and releases the underlying file.
func (b *BufferpoolManager) Close() error {
	if err := b.FlushFile(); err != nil {
		return err
	}
	return b.scheduler.Close()
}

// writeChecksum stamps the xxhash64 of data[:UsablePageSize] into the
// trailing ChecksumSize bytes of data.
func writeChecksum(data []byte) {
	sum := xxhash.Sum64(data[:disk.UsablePageSize])
	putUint64(data[disk.UsablePageSize:], sum)
}

// verifyChecksum recomputes the xxhash64 of the content region and
// compares it against the stored trailer.
func verifyChecksum(data []byte) error {
	want := getUint64(data[disk.UsablePageSize:])
	got := xxhash.Sum64(data[:disk.UsablePageSize])
	if want != got {
		return ErrPageChecksum
	}
	return nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

type BufferpoolManager struct {
	mu         sync.Mutex
	cond       *sync.Cond
	frames     []*frame
	pageTable  map[int]int
	scheduler  *disk.Scheduler
	replacer   *lrukReplacer
	freeFrames []int
}

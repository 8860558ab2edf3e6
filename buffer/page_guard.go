package buffer

// PageGuard is the shared state of a scoped pin: the frame it pins and
// the pool it must report back to on release. Its embedders fix the
// dirty-on-drop policy at acquisition time, so callers never have to
// remember to mark a page dirty themselves.
type PageGuard struct {
	frame  *frame
	bpm    *BufferpoolManager
	pageID int
	marksDirty bool
	dropped bool
}

// Drop releases the pin this guard holds. It is safe to call more than
// once and safe to call on a nil guard; both are no-ops past the first
// real release, mirroring how a deferred Drop and an early explicit Drop
// can coexist in the same function.
func (pg *PageGuard) Drop() {
	if pg == nil || pg.dropped {
		return
	}
	pg.dropped = true

	if pg.marksDirty {
		pg.frame.dirty = true
		pg.frame.mu.Unlock()
	} else {
		pg.frame.mu.RUnlock()
	}

	pg.bpm.releasePin(pg.frame.id)
}

// PageID reports which page this guard is pinning.
func (pg *PageGuard) PageID() int {
	return pg.pageID
}

// ReadPageGuard never marks its frame dirty on Drop.
type ReadPageGuard struct {
	PageGuard
}

// WritePageGuard always marks its frame dirty on Drop.
type WritePageGuard struct {
	PageGuard
}

func newReadPageGuard(f *frame, bpm *BufferpoolManager) *ReadPageGuard {
	return &ReadPageGuard{PageGuard{frame: f, bpm: bpm, pageID: f.pageID, marksDirty: false}}
}

func newWritePageGuard(f *frame, bpm *BufferpoolManager) *WritePageGuard {
	return &WritePageGuard{PageGuard{frame: f, bpm: bpm, pageID: f.pageID, marksDirty: true}}
}

// GetData exposes the page's bytes for reading.
func (pg *ReadPageGuard) GetData() []byte {
	return pg.frame.data
}

// GetData exposes the page's bytes for reading; a write guard can read
// its own page too, e.g. before patching a handful of fields.
func (pg *WritePageGuard) GetData() []byte {
	return pg.frame.data
}

// GetDataMut exposes the page's bytes for in-place mutation.
func (pg *WritePageGuard) GetDataMut() []byte {
	return pg.frame.data
}

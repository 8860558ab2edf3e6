// Package bptree implements a disk-resident B+ tree secondary index
// over a single 32-bit signed integer attribute. Each index is backed
// by its own paged file (storage/disk) accessed through a buffer pool
// (buffer); the tree itself assumes a single caller at a time and
// leaves concurrency control to whatever embeds it.
package bptree

import (
	"bptreeidx/buffer"
)

// Index is a constructed B+ tree index over one relation's attribute.
// Use New to build-or-open one and Close to shut it down cleanly.
type Index struct {
	bpm  *buffer.BufferpoolManager
	meta indexMeta
	cur  *cursor
}

func (idx *Index) rootPageNo() int32 {
	return idx.meta.rootPageNo
}

// setRootPageNo updates the in-memory root and persists the header
// page; every root change (first insert, root split) goes through
// this so the two never drift apart.
func (idx *Index) setRootPageNo(pageNo int32) error {
	idx.meta.rootPageNo = pageNo
	return writeMeta(idx.bpm, idx.meta)
}

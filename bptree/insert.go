package bptree

import (
	"bptreeidx/buffer"
	"bptreeidx/heap"
)

// InsertEntry adds one (key, rid) pair to the index. Duplicate keys are
// allowed to coexist; this never deduplicates or replaces an existing
// entry for the same key.
func (idx *Index) InsertEntry(key Key, rid heap.RecordId) error {
	if idx.rootPageNo() == 0 {
		return idx.bootstrapRoot(key, rid)
	}

	propKey, propPageNo, split, err := idx.insertRecursive(idx.rootPageNo(), key, rid)
	if err != nil {
		return err
	}
	if !split {
		return nil
	}

	return idx.growRoot(propKey, idx.rootPageNo(), propPageNo)
}

// bootstrapRoot handles the very first insert into an empty index: the
// root is simply a single leaf holding that one entry. No separate
// permanent empty sentinel leaf is kept alongside it — see DESIGN.md's
// note on this open question.
func (idx *Index) bootstrapRoot(key Key, rid heap.RecordId) error {
	pageID, guard, err := idx.bpm.NewPage()
	if err != nil {
		return err
	}

	leaf := newLeafNode()
	leaf.insertAt(0, key, rid)
	leaf.encode(guard.GetDataMut())
	guard.Drop()

	return idx.setRootPageNo(int32(pageID))
}

// growRoot is called once insertRecursive reports that the existing
// root itself split: a fresh internal root is created one level taller
// than the old root, with the old root and its new sibling as its only
// two children.
func (idx *Index) growRoot(propKey Key, oldRootPageNo, newSiblingPageNo int32) error {
	oldRootLevel, err := idx.nodeLevel(oldRootPageNo)
	if err != nil {
		return err
	}

	newRootID, guard, err := idx.bpm.NewPage()
	if err != nil {
		return err
	}

	root := newInternalNode(oldRootLevel + 1)
	root.numKeys = 1
	root.keys[0] = propKey
	root.children[0] = oldRootPageNo
	root.children[1] = newSiblingPageNo
	root.encode(guard.GetDataMut())
	guard.Drop()

	return idx.setRootPageNo(int32(newRootID))
}

// nodeLevel reports a page's level: 0 for a leaf, its stored level
// field for an internal node.
func (idx *Index) nodeLevel(pageNo int32) (int32, error) {
	guard, err := idx.bpm.FetchPageRead(int(pageNo))
	if err != nil {
		return 0, err
	}
	defer guard.Drop()

	if isLeafPage(guard.GetData()) {
		return 0, nil
	}
	return decodeInternal(guard.GetData()).level, nil
}

// insertRecursive descends to the leaf for key, inserts, and on its way
// back up propagates a (separatorKey, newPageNo) pair one level at a
// time whenever the node it just touched had to split. Returning to the
// caller without a split means the tree's shape above this point is
// unchanged.
func (idx *Index) insertRecursive(pageNo int32, key Key, rid heap.RecordId) (Key, int32, bool, error) {
	guard, err := idx.bpm.FetchPageWrite(int(pageNo))
	if err != nil {
		return 0, 0, false, err
	}

	if isLeafPage(guard.GetData()) {
		return idx.insertIntoLeaf(pageNo, guard, key, rid)
	}

	node := decodeInternal(guard.GetData())
	childIdx := node.childIndex(key)
	childPageNo := node.children[childIdx]

	// Recurse before deciding whether this page needs to change: we
	// only know if the child split, and what to insert here, once the
	// child has finished.
	propKey, propPageNo, childSplit, err := idx.insertRecursive(childPageNo, key, rid)
	if err != nil {
		guard.Drop()
		return 0, 0, false, err
	}

	if !childSplit {
		guard.Drop()
		return 0, 0, false, nil
	}

	return idx.insertIntoInternal(pageNo, guard, node, childIdx, propKey, propPageNo)
}

func (idx *Index) insertIntoLeaf(pageNo int32, guard *buffer.WritePageGuard, key Key, rid heap.RecordId) (Key, int32, bool, error) {
	leaf := decodeLeaf(guard.GetData())
	insertIdx := leaf.findInsertIdx(key)

	if leaf.numKeys < LeafCapacity {
		leaf.insertAt(insertIdx, key, rid)
		leaf.encode(guard.GetDataMut())
		guard.Drop()
		return 0, 0, false, nil
	}

	// Leaf is full: merge its existing entries with the new one into a
	// temporary over-capacity buffer, then split at the midpoint.
	keys := make([]Key, 0, LeafCapacity+1)
	rids := make([]heap.RecordId, 0, LeafCapacity+1)
	keys = append(keys, leaf.keys[:insertIdx]...)
	rids = append(rids, leaf.rids[:insertIdx]...)
	keys = append(keys, key)
	rids = append(rids, rid)
	keys = append(keys, leaf.keys[insertIdx:leaf.numKeys]...)
	rids = append(rids, leaf.rids[insertIdx:leaf.numKeys]...)

	m := (LeafCapacity + 1) / 2

	newPageID, newGuard, err := idx.bpm.NewPage()
	if err != nil {
		guard.Drop()
		return 0, 0, false, err
	}

	left := newLeafNode()
	for i := 0; i < m; i++ {
		left.keys[i] = keys[i]
		left.rids[i] = rids[i]
	}
	left.numKeys = m
	left.rightSibling = int32(newPageID)

	right := newLeafNode()
	for i := m; i < len(keys); i++ {
		right.keys[i-m] = keys[i]
		right.rids[i-m] = rids[i]
	}
	right.numKeys = len(keys) - m
	right.rightSibling = leaf.rightSibling

	left.encode(guard.GetDataMut())
	right.encode(newGuard.GetDataMut())

	separator := right.keys[0]
	guard.Drop()
	newGuard.Drop()

	return separator, int32(newPageID), true, nil
}

func (idx *Index) insertIntoInternal(pageNo int32, guard *buffer.WritePageGuard, node *internalNode, childIdx int, propKey Key, propPageNo int32) (Key, int32, bool, error) {
	if node.numKeys < InternalCapacity {
		node.insertAt(childIdx, propKey, propPageNo)
		node.encode(guard.GetDataMut())
		guard.Drop()
		return 0, 0, false, nil
	}

	// Internal node is full: same merge-then-split idea as the leaf
	// case, except the middle key is promoted rather than copied.
	keys := make([]Key, 0, InternalCapacity+1)
	children := make([]int32, 0, InternalCapacity+2)
	keys = append(keys, node.keys[:childIdx]...)
	children = append(children, node.children[:childIdx+1]...)
	keys = append(keys, propKey)
	children = append(children, propPageNo)
	keys = append(keys, node.keys[childIdx:node.numKeys]...)
	children = append(children, node.children[childIdx+1:node.numKeys+1]...)

	m := InternalCapacity / 2
	middleKey := keys[m]

	newPageID, newGuard, err := idx.bpm.NewPage()
	if err != nil {
		guard.Drop()
		return 0, 0, false, err
	}

	left := newInternalNode(node.level)
	for i := 0; i < m; i++ {
		left.keys[i] = keys[i]
	}
	for i := 0; i <= m; i++ {
		left.children[i] = children[i]
	}
	left.numKeys = m

	right := newInternalNode(node.level)
	for i := m + 1; i < len(keys); i++ {
		right.keys[i-m-1] = keys[i]
	}
	for i := m + 1; i < len(children); i++ {
		right.children[i-m-1] = children[i]
	}
	right.numKeys = len(keys) - m - 1

	left.encode(guard.GetDataMut())
	right.encode(newGuard.GetDataMut())

	guard.Drop()
	newGuard.Drop()

	return middleKey, int32(newPageID), true, nil
}

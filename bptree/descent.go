package bptree

// findLeafPageID walks from the root to the leaf that would contain
// key, following the internal-node rule "smallest i such that
// key < keys[i], else the last child." Each page is pinned only for as
// long as it takes to read its child pointer and decide where to go
// next; the single-writer-at-a-time model means there is never a
// concurrent mutation to race with a strictly top-down read pass.
func (idx *Index) findLeafPageID(key Key) (int32, error) {
	pageNo := idx.rootPageNo()

	for {
		guard, err := idx.bpm.FetchPageRead(int(pageNo))
		if err != nil {
			return 0, err
		}

		if isLeafPage(guard.GetData()) {
			guard.Drop()
			return pageNo, nil
		}

		node := decodeInternal(guard.GetData())
		guard.Drop()

		childIdx := node.childIndex(key)
		pageNo = node.children[childIdx]
	}
}

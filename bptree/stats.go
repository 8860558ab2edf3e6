package bptree

// Stats is a point-in-time snapshot of a built index's shape, used by
// the inspect tool and by tests asserting a bulk load produced the
// expected tree depth.
type Stats struct {
	RootPageNo    int32
	Height        int
	KeyCount      int
	LeafCount     int
	InternalCount int
}

// Stats walks the whole tree once to compute a fresh snapshot. It is a
// diagnostic operation, not part of the hot insert/scan path, so an
// O(pages) full traversal is acceptable.
func (idx *Index) Stats() (Stats, error) {
	if idx.rootPageNo() == 0 {
		return Stats{}, nil
	}

	s := Stats{RootPageNo: idx.rootPageNo()}
	height, err := idx.walkStats(idx.rootPageNo(), &s)
	if err != nil {
		return Stats{}, err
	}
	s.Height = height
	return s, nil
}

func (idx *Index) walkStats(pageNo int32, s *Stats) (int, error) {
	guard, err := idx.bpm.FetchPageRead(int(pageNo))
	if err != nil {
		return 0, err
	}

	if isLeafPage(guard.GetData()) {
		leaf := decodeLeaf(guard.GetData())
		guard.Drop()
		s.LeafCount++
		s.KeyCount += leaf.numKeys
		return 1, nil
	}

	node := decodeInternal(guard.GetData())
	guard.Drop()
	s.InternalCount++

	maxChildHeight := 0
	for i := 0; i <= node.numKeys; i++ {
		childHeight, err := idx.walkStats(node.children[i], s)
		if err != nil {
			return 0, err
		}
		if childHeight > maxChildHeight {
			maxChildHeight = childHeight
		}
	}

	return maxChildHeight + 1, nil
}

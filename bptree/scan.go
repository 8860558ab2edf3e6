package bptree

import "bptreeidx/heap"

// Operator is one of the four comparison operators a scan boundary can
// use. There is no fifth "equals": an equality scan is expressed as
// Gte/Lte on the same value.
type Operator int

const (
	Gt Operator = iota
	Gte
	Lt
	Lte
)

func (op Operator) isLowOp() bool {
	return op == Gt || op == Gte
}

func (op Operator) isHighOp() bool {
	return op == Lt || op == Lte
}

// satisfiesLow reports whether key clears the scan's lower boundary.
func satisfiesLow(key, lowVal Key, lowOp Operator) bool {
	if lowOp == Gte {
		return key >= lowVal
	}
	return key > lowVal
}

// satisfiesHigh reports whether key is still within the scan's upper
// boundary.
func satisfiesHigh(key, highVal Key, highOp Operator) bool {
	if highOp == Lte {
		return key <= highVal
	}
	return key < highVal
}

// cursor is the scan-in-progress state: the leaf page currently being
// read, the next slot in it to return, and the upper boundary every
// returned key is checked against. done marks a cursor that has run
// past its bound or off the end of the sibling chain; it stays alive
// in that terminal state until EndScan, so repeated ScanNext calls
// keep raising IndexScanCompleted instead of ScanNotInitialized.
type cursor struct {
	leafPageNo int32
	slotIdx    int
	highVal    Key
	highOp     Operator
	done       bool
}

// StartScan positions a new scan at the first entry satisfying
// (lowVal, lowOp) and remembers (highVal, highOp) as the stopping
// condition for ScanNext. Only one scan may be in progress on an Index
// at a time; starting a new one without ending the last simply replaces
// it, matching the single-cursor cooperative model the index assumes
// throughout.
func (idx *Index) StartScan(lowVal Key, lowOp Operator, highVal Key, highOp Operator) error {
	if !lowOp.isLowOp() || !highOp.isHighOp() {
		return BadOpcodes()
	}

	if lowVal > highVal {
		return BadScanRange()
	}

	if idx.rootPageNo() == 0 {
		return NoSuchKeyFound()
	}

	leafPageNo, err := idx.findLeafPageID(lowVal)
	if err != nil {
		return err
	}

	for {
		guard, err := idx.bpm.FetchPageRead(int(leafPageNo))
		if err != nil {
			return err
		}
		leaf := decodeLeaf(guard.GetData())
		guard.Drop()

		slotIdx := 0
		for ; slotIdx < leaf.numKeys; slotIdx++ {
			if satisfiesLow(leaf.keys[slotIdx], lowVal, lowOp) {
				break
			}
		}

		if slotIdx < leaf.numKeys {
			// Keys are sorted ascending, so the first one clearing the low
			// bound is the only candidate that could also clear the high
			// bound; if it doesn't, nothing later in the chain will either.
			if !satisfiesHigh(leaf.keys[slotIdx], highVal, highOp) {
				return NoSuchKeyFound()
			}
			idx.cur = &cursor{leafPageNo: leafPageNo, slotIdx: slotIdx, highVal: highVal, highOp: highOp}
			return nil
		}

		if leaf.rightSibling == 0 {
			return NoSuchKeyFound()
		}
		leafPageNo = leaf.rightSibling
	}
}

// ScanNext returns the next matching RecordId in key order, advancing
// across leaf sibling pointers as needed, and raises IndexScanCompleted
// once the cursor passes highVal or runs off the end of the chain.
func (idx *Index) ScanNext() (heap.RecordId, error) {
	if idx.cur == nil {
		return heap.RecordId{}, ScanNotInitialized()
	}
	if idx.cur.done {
		return heap.RecordId{}, IndexScanCompleted()
	}

	guard, err := idx.bpm.FetchPageRead(int(idx.cur.leafPageNo))
	if err != nil {
		return heap.RecordId{}, err
	}
	leaf := decodeLeaf(guard.GetData())
	guard.Drop()

	if idx.cur.slotIdx >= leaf.numKeys {
		if leaf.rightSibling == 0 {
			idx.cur.done = true
			return heap.RecordId{}, IndexScanCompleted()
		}
		idx.cur.leafPageNo = leaf.rightSibling
		idx.cur.slotIdx = 0
		return idx.ScanNext()
	}

	key := leaf.keys[idx.cur.slotIdx]
	if !satisfiesHigh(key, idx.cur.highVal, idx.cur.highOp) {
		idx.cur.done = true
		return heap.RecordId{}, IndexScanCompleted()
	}

	rid := leaf.rids[idx.cur.slotIdx]
	idx.cur.slotIdx++
	return rid, nil
}

// EndScan releases the current scan's cursor.
func (idx *Index) EndScan() error {
	if idx.cur == nil {
		return ScanNotInitialized()
	}
	idx.cur = nil
	return nil
}

package buffer

import (
	"fmt"
	"sync"
)

// NewLrukReplacer builds a replacer over `capacity` frame ids, each
// frame preferring eviction once its k-th most recent access is furthest
// in the past (classic LRU-K "backward k-distance").
func NewLrukReplacer(capacity, k int) *lrukReplacer {
	return &lrukReplacer{
		k:            k,
		nodeStore:    make(map[int]*lrukNode, capacity),
		replacerSize: capacity,
	}
}

// recordAccess logs a touch of frameId, creating its tracking node on
// first use.
func (lru *lrukReplacer) recordAccess(frameID int) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameID]
	if !ok {
		node = &lrukNode{frameID: frameID, k: lru.k}
		lru.nodeStore[frameID] = node
	}

	lru.currTimestamp++
	node.addTimestamp(lru.currTimestamp)
}

// setEvictable flips whether a frame is a candidate victim; the buffer
// pool calls this with false while a frame is pinned and true once its
// pin count drops to zero.
func (lru *lrukReplacer) setEvictable(frameID int, evictable bool) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	node, ok := lru.nodeStore[frameID]
	if !ok {
		return
	}

	if node.isEvictable && !evictable {
		lru.currSize--
	} else if !node.isEvictable && evictable {
		lru.currSize++
	}
	node.isEvictable = evictable
}

// evict picks the evictable frame with the largest backward k-distance,
// breaking ties (including nodes with fewer than k accesses, which have
// an infinite distance) in favor of the one accessed least recently.
func (lru *lrukReplacer) evict() (int, error) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	victim := invalidFrameID
	var victimEarliest int
	victimHasFullHistory := true

	for frameID, node := range lru.nodeStore {
		if !node.isEvictable {
			continue
		}

		if !node.hasKAccess() {
			earliest := node.kthAccess()
			if victim == invalidFrameID || victimHasFullHistory || earliest < victimEarliest {
				victim = frameID
				victimEarliest = earliest
				victimHasFullHistory = false
			}
			continue
		}

		if victimHasFullHistory {
			earliest := node.kthAccess()
			if victim == invalidFrameID || earliest < victimEarliest {
				victim = frameID
				victimEarliest = earliest
			}
		}
	}

	if victim == invalidFrameID {
		return invalidFrameID, fmt.Errorf("buffer: no evictable frame")
	}

	delete(lru.nodeStore, victim)
	lru.currSize--
	return victim, nil
}

func (lru *lrukReplacer) remove(frameID int) {
	lru.mu.Lock()
	defer lru.mu.Unlock()

	if node, ok := lru.nodeStore[frameID]; ok && node.isEvictable {
		lru.currSize--
	}
	delete(lru.nodeStore, frameID)
}

func (lru *lrukReplacer) size() int {
	lru.mu.Lock()
	defer lru.mu.Unlock()
	return lru.currSize
}

type lrukReplacer struct {
	mu            sync.Mutex
	nodeStore     map[int]*lrukNode
	replacerSize  int
	currSize      int
	currTimestamp int
	k             int
}

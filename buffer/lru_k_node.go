package buffer

const invalidFrameID = -1

// lrukNode tracks a frame's last k access timestamps. A frame with fewer
// than k accesses so far has the largest possible "backward k-distance"
// and is preferred for eviction over any frame with a full k-history.
type lrukNode struct {
	prev        *lrukNode
	next        *lrukNode
	frameID     int
	k           int
	history     []int
	isEvictable bool
}

func (n *lrukNode) hasKAccess() bool {
	return len(n.history) >= n.k
}

// kthAccess returns the access timestamp k-back, or the oldest one the
// node has if it hasn't been accessed k times yet.
func (n *lrukNode) kthAccess() int {
	if len(n.history) == 0 {
		return -1
	}
	return n.history[0]
}

func (n *lrukNode) addTimestamp(timestamp int) {
	if len(n.history) < n.k {
		n.history = append(n.history, timestamp)
		return
	}

	n.history = append(n.history[1:], timestamp)
}

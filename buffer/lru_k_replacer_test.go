package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLrukReplacer(t *testing.T) {
	t.Run("evicts the frame with fewer than k accesses first", func(t *testing.T) {
		r := NewLrukReplacer(4, 2)

		r.recordAccess(1)
		r.recordAccess(1)
		r.recordAccess(2)
		r.setEvictable(1, true)
		r.setEvictable(2, true)

		victim, err := r.evict()
		assert.NoError(t, err)
		assert.Equal(t, 2, victim)
	})

	t.Run("among full histories, evicts the one with the oldest k-th access", func(t *testing.T) {
		r := NewLrukReplacer(4, 2)

		r.recordAccess(1)
		r.recordAccess(1)
		r.recordAccess(2)
		r.recordAccess(2)
		r.setEvictable(1, true)
		r.setEvictable(2, true)

		victim, err := r.evict()
		assert.NoError(t, err)
		assert.Equal(t, 1, victim)
	})

	t.Run("non-evictable frames are never picked", func(t *testing.T) {
		r := NewLrukReplacer(4, 2)

		r.recordAccess(1)
		r.setEvictable(1, false)

		_, err := r.evict()
		assert.Error(t, err)
	})

	t.Run("size tracks evictable frame count", func(t *testing.T) {
		r := NewLrukReplacer(4, 2)
		r.recordAccess(1)
		assert.Equal(t, 0, r.size())

		r.setEvictable(1, true)
		assert.Equal(t, 1, r.size())

		r.setEvictable(1, false)
		assert.Equal(t, 0, r.size())
	})

	t.Run("remove drops a frame's tracking entirely", func(t *testing.T) {
		r := NewLrukReplacer(4, 2)
		r.recordAccess(1)
		r.setEvictable(1, true)

		r.remove(1)
		assert.Equal(t, 0, r.size())
		_, err := r.evict()
		assert.Error(t, err)
	})
}

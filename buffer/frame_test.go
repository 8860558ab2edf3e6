package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrame(t *testing.T) {
	t.Run("pin and unpin track outstanding references", func(t *testing.T) {
		f := &frame{id: 0, data: make([]byte, 16)}

		f.pin()
		f.pin()
		assert.Equal(t, int32(2), f.pins.Load())

		assert.Equal(t, int32(1), f.unpin())
		assert.Equal(t, int32(0), f.unpin())
	})

	t.Run("unpin below zero clamps at zero instead of going negative", func(t *testing.T) {
		f := &frame{id: 0, data: make([]byte, 16)}
		assert.Equal(t, int32(0), f.unpin())
		assert.Equal(t, int32(0), f.pins.Load())
	})

	t.Run("reset clears dirty bit, pin count and page bytes", func(t *testing.T) {
		f := &frame{id: 0, data: []byte{1, 2, 3}, dirty: true}
		f.pin()

		f.reset()

		assert.False(t, f.dirty)
		assert.Equal(t, int32(0), f.pins.Load())
		assert.Equal(t, []byte{0, 0, 0}, f.data)
	})
}

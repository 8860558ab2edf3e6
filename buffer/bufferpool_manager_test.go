package buffer

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bptreeidx/storage/disk"
)

func newTestPool(t *testing.T, size, k int) *BufferpoolManager {
	t.Helper()
	dbFile := path.Join(t.TempDir(), "test.db")
	file, err := os.OpenFile(dbFile, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(file.Name(), int64(disk.DefaultPageCapacity)*disk.PageSize))

	scheduler := disk.NewScheduler(disk.NewManager(file))
	return NewBufferpoolManager(size, NewLrukReplacer(size, k), scheduler)
}

func TestBufferpoolManager(t *testing.T) {
	t.Run("new page is writable and content survives a flush+refetch", func(t *testing.T) {
		bpm := newTestPool(t, 2, 2)

		pageID, guard, err := bpm.NewPage()
		require.NoError(t, err)
		copy(guard.GetDataMut(), []byte("hello world"))
		guard.Drop()

		require.NoError(t, bpm.FlushFile())

		readGuard, err := bpm.FetchPageRead(pageID)
		require.NoError(t, err)
		assert.Equal(t, byte('h'), readGuard.GetData()[0])
		readGuard.Drop()
	})

	t.Run("eviction flushes a dirty victim before reuse", func(t *testing.T) {
		bpm := newTestPool(t, 1, 2)

		id1, g1, err := bpm.NewPage()
		require.NoError(t, err)
		copy(g1.GetDataMut(), []byte("first"))
		g1.Drop()

		id2, g2, err := bpm.NewPage()
		require.NoError(t, err)
		copy(g2.GetDataMut(), []byte("second"))
		g2.Drop()

		readGuard, err := bpm.FetchPageRead(id1)
		require.NoError(t, err)
		assert.Equal(t, byte('f'), readGuard.GetData()[0])
		readGuard.Drop()

		assert.NotEqual(t, id1, id2)
	})

	t.Run("pinned pages cannot be deleted", func(t *testing.T) {
		bpm := newTestPool(t, 2, 2)

		pageID, guard, err := bpm.NewPage()
		require.NoError(t, err)

		err = bpm.DeletePage(pageID)
		assert.ErrorIs(t, err, ErrPagePinned)

		guard.Drop()
		assert.NoError(t, bpm.DeletePage(pageID))
	})

	t.Run("a corrupted checksum trailer surfaces on fetch", func(t *testing.T) {
		dbFile := path.Join(t.TempDir(), "test.db")
		file, err := os.OpenFile(dbFile, os.O_CREATE|os.O_RDWR, 0644)
		require.NoError(t, err)
		require.NoError(t, os.Truncate(file.Name(), int64(disk.DefaultPageCapacity)*disk.PageSize))

		bpm := NewBufferpoolManager(2, NewLrukReplacer(2, 2), disk.NewScheduler(disk.NewManager(file)))

		pageID, guard, err := bpm.NewPage()
		require.NoError(t, err)
		copy(guard.GetDataMut(), []byte("trustworthy"))
		guard.Drop()
		require.NoError(t, bpm.FlushFile())

		// corrupt the on-disk bytes directly, bypassing bpm's own cache
		rawScheduler := disk.NewScheduler(disk.NewManager(file))
		resp := <-rawScheduler.Schedule(disk.NewRequest(pageID, nil, false))
		require.NoError(t, resp.Err)
		corrupted := resp.Data
		corrupted[0] ^= 0xFF
		writeResp := <-rawScheduler.Schedule(disk.NewRequest(pageID, corrupted, true))
		require.NoError(t, writeResp.Err)

		// a fresh pool has no cached entry for pageID, so this fetch must
		// go to disk and observe the corruption
		bpm2 := NewBufferpoolManager(2, NewLrukReplacer(2, 2), disk.NewScheduler(disk.NewManager(file)))
		_, err = bpm2.FetchPageRead(pageID)
		assert.ErrorIs(t, err, ErrPageChecksum)
	})
}

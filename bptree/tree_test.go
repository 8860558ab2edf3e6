package bptree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bptreeidx/heap"
)

func newTestIndex(t *testing.T, poolSize int) *Index {
	t.Helper()
	idx, _, err := NewWithPoolSize(t.TempDir(), "employee", 0, nil, poolSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func drainScan(t *testing.T, idx *Index) []int32 {
	t.Helper()
	var got []int32
	for {
		rid, err := idx.ScanNext()
		if err == IndexScanCompleted() || (err != nil && err.Error() == IndexScanCompleted().Error()) {
			break
		}
		require.NoError(t, err)
		got = append(got, rid.PageNo)
	}
	return got
}

func TestInsertAndScan(t *testing.T) {
	t.Run("scan over an empty index reports no such key", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		err := idx.StartScan(0, Gte, 100, Lte)
		assert.ErrorIs(t, err, NoSuchKeyFound())
	})

	t.Run("basic inserts come back in key order within a range", func(t *testing.T) {
		idx := newTestIndex(t, 16)

		for i, k := range []Key{30, 10, 50, 20, 40} {
			require.NoError(t, idx.InsertEntry(k, heap.RecordId{PageNo: int32(i), SlotNo: 0}))
		}

		require.NoError(t, idx.StartScan(15, Gte, 45, Lte))
		var pages []int32
		for {
			rid, err := idx.ScanNext()
			if isIndexScanCompleted(err) {
				break
			}
			require.NoError(t, err)
			pages = append(pages, rid.PageNo)
		}
		assert.Len(t, pages, 3)
		// keys 20, 30, 40 were inserted at positions 3, 0, 4
		assert.Equal(t, []int32{3, 0, 4}, pages)
	})

	t.Run("scan honors strict Gt/Lt boundaries", func(t *testing.T) {
		idx := newTestIndex(t, 16)
		for _, k := range []Key{10, 20, 30} {
			require.NoError(t, idx.InsertEntry(k, heap.RecordId{}))
		}

		require.NoError(t, idx.StartScan(10, Gt, 30, Lt))
		count := 0
		for {
			_, err := idx.ScanNext()
			if isIndexScanCompleted(err) {
				break
			}
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 1, count) // only 20
	})

	t.Run("bad opcodes are rejected", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		err := idx.StartScan(0, Lt, 10, Lte)
		assert.ErrorIs(t, err, BadOpcodes())
	})

	t.Run("an inverted range is rejected", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		err := idx.StartScan(10, Gte, 5, Lte)
		assert.ErrorIs(t, err, BadScanRange())
	})

	t.Run("an equal strict boundary that admits no key reports no such key, not a bad range", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		require.NoError(t, idx.InsertEntry(5, heap.RecordId{}))

		err := idx.StartScan(5, Gt, 5, Lte)
		assert.ErrorIs(t, err, NoSuchKeyFound())
	})

	t.Run("a first candidate that already exceeds the high bound reports no such key", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		require.NoError(t, idx.InsertEntry(10, heap.RecordId{}))

		err := idx.StartScan(5, Gte, 8, Lte)
		assert.ErrorIs(t, err, NoSuchKeyFound())
	})

	t.Run("scanning before StartScan fails", func(t *testing.T) {
		idx := newTestIndex(t, 8)
		_, err := idx.ScanNext()
		assert.ErrorIs(t, err, ScanNotInitialized())
	})

	t.Run("ending a scan twice fails the second time", func(t *testing.T) {
		idx := newTestIndex(t, 16)
		require.NoError(t, idx.InsertEntry(1, heap.RecordId{}))
		require.NoError(t, idx.StartScan(0, Gte, 10, Lte))
		require.NoError(t, idx.EndScan())
		assert.ErrorIs(t, idx.EndScan(), ScanNotInitialized())
	})

	t.Run("scanning past completion keeps raising IndexScanCompleted until EndScan", func(t *testing.T) {
		idx := newTestIndex(t, 16)
		require.NoError(t, idx.InsertEntry(1, heap.RecordId{}))
		require.NoError(t, idx.StartScan(0, Gte, 10, Lte))

		_, err := idx.ScanNext()
		require.NoError(t, err)

		_, err = idx.ScanNext()
		assert.ErrorIs(t, err, IndexScanCompleted())

		_, err = idx.ScanNext()
		assert.ErrorIs(t, err, IndexScanCompleted())

		require.NoError(t, idx.EndScan())
		_, err = idx.ScanNext()
		assert.ErrorIs(t, err, ScanNotInitialized())
	})

	t.Run("a bulk insert large enough to split leaves still scans in sorted order", func(t *testing.T) {
		idx := newTestIndex(t, 32)

		const n = 1500
		for i := Key(0); i < n; i++ {
			// insert in a shuffled-ish order to exercise mid-array inserts
			k := (i * 7919) % n
			require.NoError(t, idx.InsertEntry(k, heap.RecordId{PageNo: k}))
		}

		require.NoError(t, idx.StartScan(0, Gte, n-1, Lte))
		var prev Key = -1
		count := 0
		for {
			rid, err := idx.ScanNext()
			if isIndexScanCompleted(err) {
				break
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, rid.PageNo, prev)
			prev = rid.PageNo
			count++
		}
		assert.Equal(t, n, count)

		stats, err := idx.Stats()
		require.NoError(t, err)
		assert.Greater(t, stats.Height, 1, "enough keys should force at least one internal level")
		assert.Equal(t, n, stats.KeyCount)
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("reopening an index preserves its entries", func(t *testing.T) {
		dir := t.TempDir()

		idx, _, err := NewWithPoolSize(dir, "employee", 4, nil, 8)
		require.NoError(t, err)
		for _, k := range []Key{1, 2, 3} {
			require.NoError(t, idx.InsertEntry(k, heap.RecordId{PageNo: k}))
		}
		require.NoError(t, idx.Close())

		reopened, report, err := NewWithPoolSize(dir, "employee", 4, nil, 8)
		require.NoError(t, err)
		assert.False(t, report.BuiltFresh)
		t.Cleanup(func() { _ = reopened.Close() })

		require.NoError(t, reopened.StartScan(1, Gte, 3, Lte))
		count := 0
		for {
			_, err := reopened.ScanNext()
			if isIndexScanCompleted(err) {
				break
			}
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 3, count)
	})

	t.Run("inserting after a reopen does not clobber existing pages", func(t *testing.T) {
		dir := t.TempDir()

		idx, _, err := NewWithPoolSize(dir, "employee", 4, nil, 8)
		require.NoError(t, err)
		for _, k := range []Key{1, 2, 3} {
			require.NoError(t, idx.InsertEntry(k, heap.RecordId{PageNo: k}))
		}
		require.NoError(t, idx.Close())

		reopened, _, err := NewWithPoolSize(dir, "employee", 4, nil, 8)
		require.NoError(t, err)
		t.Cleanup(func() { _ = reopened.Close() })

		for _, k := range []Key{4, 5, 6} {
			require.NoError(t, reopened.InsertEntry(k, heap.RecordId{PageNo: k}))
		}

		require.NoError(t, reopened.StartScan(1, Gte, 6, Lte))
		var prev Key = -1
		count := 0
		for {
			rid, err := reopened.ScanNext()
			if isIndexScanCompleted(err) {
				break
			}
			require.NoError(t, err)
			assert.Greater(t, rid.PageNo, prev)
			prev = rid.PageNo
			count++
		}
		assert.Equal(t, 6, count)
	})

	t.Run("opening with a mismatched attribute offset fails", func(t *testing.T) {
		dir := t.TempDir()
		idx, _, err := NewWithPoolSize(dir, "employee", 4, nil, 8)
		require.NoError(t, err)
		require.NoError(t, idx.Close())

		// the file name embeds the offset, so present the offset-4 file
		// under the offset-8 name to reach the header check
		require.NoError(t, os.Rename(filepath.Join(dir, "employee.4"), filepath.Join(dir, "employee.8")))

		_, _, err = NewWithPoolSize(dir, "employee", 8, nil, 8)
		assert.ErrorIs(t, err, BadIndexInfo("header page does not match relation/attribute requested"))
	})

	t.Run("building fresh from a heap file indexes every record", func(t *testing.T) {
		dir := t.TempDir()
		heapFile, err := heap.Create(dir, "employee", 16)
		require.NoError(t, err)

		for i := int32(0); i < 50; i++ {
			rec := make([]byte, 16)
			rec[0] = byte(i)
			rec[1] = byte(i >> 8)
			rec[2] = byte(i >> 16)
			rec[3] = byte(i >> 24)
			_, err := heapFile.InsertRecord(rec)
			require.NoError(t, err)
		}

		idx, report, err := NewWithPoolSize(filepath.Join(dir, "idx"), "employee", 0, heapFile, 16)
		require.NoError(t, err)
		t.Cleanup(func() { _ = idx.Close() })

		assert.Equal(t, 50, report.KeysProcessed)

		require.NoError(t, idx.StartScan(0, Gte, 49, Lte))
		count := 0
		for {
			_, err := idx.ScanNext()
			if isIndexScanCompleted(err) {
				break
			}
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 50, count)
	})
}

func isIndexScanCompleted(err error) bool {
	if err == nil {
		return false
	}
	return err.Error() == IndexScanCompleted().Error()
}

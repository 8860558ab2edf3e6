package bptree

import (
	"encoding/binary"
	"fmt"
	"log"

	"bptreeidx/buffer"
	"bptreeidx/heap"
	"bptreeidx/storage/disk"
)

// DefaultBufferPoolSize and DefaultReplacerK size the buffer pool a
// freshly constructed index uses unless a caller overrides them.
const (
	DefaultBufferPoolSize = 64
	DefaultReplacerK      = 2
)

// BuildReport summarizes what construction actually did: how many
// source records were indexed, and the resulting root page, useful for
// the inspect tool and for tests asserting a bulk load behaved as
// expected.
type BuildReport struct {
	KeysProcessed int
	RootPageNo    int32
	BuiltFresh    bool
}

// New opens relationName's index in dir if its file already exists, or
// builds one from scratch otherwise. When building fresh and heapFile
// is non-nil, it drives heapFile's scanner to completion, inserting the
// little-endian 32-bit integer at byte offset attrByteOffset of every
// record as a key. Passing a
// nil heapFile builds an empty index that the caller populates with its
// own InsertEntry calls instead.
func New(dir, relationName string, attrByteOffset int, heapFile *heap.File) (*Index, *BuildReport, error) {
	return NewWithPoolSize(dir, relationName, attrByteOffset, heapFile, DefaultBufferPoolSize)
}

// NewWithPoolSize is New with an explicit buffer pool frame count,
// split out so tests and the inspect tool can exercise small pools.
func NewWithPoolSize(dir, relationName string, attrByteOffset int, heapFile *heap.File, poolSize int) (*Index, *BuildReport, error) {
	fileName := indexFileName(relationName, attrByteOffset)

	if disk.Exists(dir, fileName) {
		return openExisting(dir, fileName, relationName, attrByteOffset, poolSize)
	}

	return buildFresh(dir, fileName, relationName, attrByteOffset, heapFile, poolSize)
}

// indexFileName composes the on-disk file base name from the relation
// and attribute offset, so one relation can carry a separate index per
// indexed attribute.
func indexFileName(relationName string, attrByteOffset int) string {
	return fmt.Sprintf("%s.%d", relationName, attrByteOffset)
}

func openExisting(dir, fileName, relationName string, attrByteOffset, poolSize int) (*Index, *BuildReport, error) {
	manager, err := disk.Open(dir, fileName)
	if err != nil {
		return nil, nil, err
	}

	bpm := newPool(manager, poolSize)
	meta, err := readMeta(bpm)
	if err != nil {
		return nil, nil, err
	}

	if meta.relationName != relationName || meta.attrByteOffset != attrByteOffset {
		return nil, nil, BadIndexInfo("header page does not match relation/attribute requested")
	}
	if meta.keyType != keyTypeInteger {
		return nil, nil, BadIndexInfo("header page key type is " + meta.keyType + ", not " + keyTypeInteger)
	}

	bpm.RestoreNextPageID(int(meta.nextPageNo))

	idx := &Index{bpm: bpm, meta: meta}
	return idx, &BuildReport{RootPageNo: meta.rootPageNo, BuiltFresh: false}, nil
}

func buildFresh(dir, fileName, relationName string, attrByteOffset int, heapFile *heap.File, poolSize int) (*Index, *BuildReport, error) {
	manager, err := disk.Create(dir, fileName)
	if err != nil {
		return nil, nil, err
	}

	bpm := newPool(manager, poolSize)
	meta := indexMeta{
		relationName:   relationName,
		attrByteOffset: attrByteOffset,
		keyType:        keyTypeInteger,
		rootPageNo:     0,
	}
	if err := initMeta(bpm, meta); err != nil {
		return nil, nil, err
	}

	idx := &Index{bpm: bpm, meta: meta}
	report := &BuildReport{BuiltFresh: true}

	if heapFile != nil {
		if err := idx.bulkLoad(heapFile, attrByteOffset, report); err != nil {
			return nil, nil, err
		}
	}

	report.RootPageNo = idx.rootPageNo()
	return idx, report, nil
}

func newPool(manager *disk.Manager, poolSize int) *buffer.BufferpoolManager {
	scheduler := disk.NewScheduler(manager)
	replacer := buffer.NewLrukReplacer(poolSize, DefaultReplacerK)
	return buffer.NewBufferpoolManager(poolSize, replacer, scheduler)
}

// bulkLoad drives heapFile's scanner to EndOfFile, inserting every
// record's key. Progress is logged periodically rather than per key,
// matching the hot-path logging rule the rest of the package follows.
func (idx *Index) bulkLoad(heapFile *heap.File, attrByteOffset int, report *BuildReport) error {
	scanner := heap.NewScanner(heapFile)

	for {
		rid, record, err := scanner.ScanNext()
		if err == heap.ErrEndOfFile {
			break
		}
		if err != nil {
			return err
		}

		key := int32(binary.LittleEndian.Uint32(record[attrByteOffset:]))
		if err := idx.InsertEntry(key, rid); err != nil {
			return err
		}

		report.KeysProcessed++
		if report.KeysProcessed%10000 == 0 {
			log.Printf("bptree: bulk load progress, %d keys indexed", report.KeysProcessed)
		}
	}

	log.Printf("bptree: bulk load complete, %d keys indexed", report.KeysProcessed)
	return nil
}

// Close ends any in-progress scan, persists the current allocation
// watermark so the next Open resumes handing out fresh page ids from
// the right place, and flushes the index to disk. The header write is
// best-effort like every other writeMeta call, and a failure there
// must never skip the mandatory flush-and-release that follows:
// destruction must not raise, and the file handle always gets
// released even if the header update was lost.
func (idx *Index) Close() error {
	if idx.cur != nil {
		_ = idx.EndScan()
	}

	idx.meta.nextPageNo = int32(idx.bpm.NextPageID())
	metaErr := writeMeta(idx.bpm, idx.meta)

	if err := idx.bpm.Close(); err != nil {
		return err
	}
	return metaErr
}

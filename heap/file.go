package heap

import (
	"fmt"
	"strconv"
	"strings"

	"bptreeidx/storage/disk"
)

// metaPageNo is the fixed location of the heap file's own header,
// mirroring the index's header-page convention: a short comma-separated
// text record rather than a binary layout.
const metaPageNo = 0

const slotHeaderSize = 2 // uint16 live-slot count

// File is a minimal fixed-length-record heap file: an append-only
// sequence of slotted pages. It exists only to hand the index's initial
// bulk load (RecordId, rawRecord) pairs; nothing in this package reads
// back a record once the index has been built.
type File struct {
	scheduler  *disk.Scheduler
	recordSize int
	numPages   int32
}

// Create lays down a brand new heap file with a fixed record width.
func Create(dir, relationName string, recordSize int) (*File, error) {
	if recordSize <= 0 || recordSize > disk.PageSize-slotHeaderSize {
		return nil, fmt.Errorf("heap: invalid record size %d", recordSize)
	}

	manager, err := disk.Create(dir, heapFileName(relationName))
	if err != nil {
		return nil, err
	}

	f := &File{
		scheduler:  disk.NewScheduler(manager),
		recordSize: recordSize,
		numPages:   0,
	}

	if err := f.writeMeta(); err != nil {
		return nil, err
	}

	return f, nil
}

// Exists reports whether a relation's heap file is already on disk.
func Exists(dir, relationName string) bool {
	return disk.Exists(dir, heapFileName(relationName))
}

// Open attaches to an existing heap file, recovering its record size
// and page count from the meta page.
func Open(dir, relationName string) (*File, error) {
	manager, err := disk.Open(dir, heapFileName(relationName))
	if err != nil {
		return nil, err
	}

	f := &File{scheduler: disk.NewScheduler(manager)}
	if err := f.readMeta(); err != nil {
		return nil, err
	}

	return f, nil
}

func heapFileName(relationName string) string {
	return relationName + ".heap"
}

func (f *File) writeMeta() error {
	buf := make([]byte, disk.PageSize)
	text := fmt.Sprintf("%d,%d", f.recordSize, f.numPages)
	copy(buf, text)

	resp := <-f.scheduler.Schedule(disk.NewRequest(metaPageNo, buf, true))
	return resp.Err
}

func (f *File) readMeta() error {
	resp := <-f.scheduler.Schedule(disk.NewRequest(metaPageNo, nil, false))
	if resp.Err != nil {
		return resp.Err
	}

	text := strings.TrimRight(string(resp.Data), "\x00")
	parts := strings.SplitN(text, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("heap: malformed meta page %q", text)
	}

	recordSize, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("heap: malformed record size: %w", err)
	}
	numPages, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("heap: malformed page count: %w", err)
	}

	f.recordSize = recordSize
	f.numPages = int32(numPages)
	return nil
}

// slotsPerPage is how many fixed-width records fit in one data page,
// after the live-slot-count header.
func (f *File) slotsPerPage() int32 {
	return int32((disk.PageSize - slotHeaderSize) / f.recordSize)
}

// InsertRecord appends data (zero-padded to the file's fixed record
// size; longer data is rejected with ErrRecordTooLarge) to the last
// page with room, allocating a new data page when the last one is full.
func (f *File) InsertRecord(data []byte) (RecordId, error) {
	if len(data) > f.recordSize {
		return RecordId{}, ErrRecordTooLarge
	}

	if f.numPages == 0 {
		if err := f.appendPage(); err != nil {
			return RecordId{}, err
		}
	}

	pageNo := f.numPages
	page, err := f.readDataPage(pageNo)
	if err != nil {
		return RecordId{}, err
	}

	numSlots := getUint16(page)
	if int32(numSlots) >= f.slotsPerPage() {
		if err := f.appendPage(); err != nil {
			return RecordId{}, err
		}
		pageNo = f.numPages
		page, err = f.readDataPage(pageNo)
		if err != nil {
			return RecordId{}, err
		}
		numSlots = getUint16(page)
	}

	offset := slotHeaderSize + int(numSlots)*f.recordSize
	record := make([]byte, f.recordSize)
	copy(record, data)
	copy(page[offset:offset+f.recordSize], record)
	putUint16(page, numSlots+1)

	if err := f.writeDataPage(pageNo, page); err != nil {
		return RecordId{}, err
	}

	return RecordId{PageNo: pageNo, SlotNo: int32(numSlots)}, nil
}

func (f *File) appendPage() error {
	f.numPages++
	blank := make([]byte, disk.PageSize)
	if err := f.writeDataPage(f.numPages, blank); err != nil {
		f.numPages--
		return err
	}
	return f.writeMeta()
}

func (f *File) readDataPage(pageNo int32) ([]byte, error) {
	resp := <-f.scheduler.Schedule(disk.NewRequest(int(pageNo), nil, false))
	return resp.Data, resp.Err
}

func (f *File) writeDataPage(pageNo int32, data []byte) error {
	resp := <-f.scheduler.Schedule(disk.NewRequest(int(pageNo), data, true))
	return resp.Err
}

// RecordAt returns the raw bytes stored at rid, for callers that
// already know exactly where to look. (Scanner reads whole pages itself
// and does not go through RecordAt.)
func (f *File) RecordAt(rid RecordId) ([]byte, error) {
	page, err := f.readDataPage(rid.PageNo)
	if err != nil {
		return nil, err
	}

	offset := slotHeaderSize + int(rid.SlotNo)*f.recordSize
	record := make([]byte, f.recordSize)
	copy(record, page[offset:offset+f.recordSize])
	return record, nil
}

// Close flushes nothing beyond what's already been written (every
// insert writes synchronously) and releases the backing file.
func (f *File) Close() error {
	return f.scheduler.Close()
}

func getUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

package bptree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bptreeidx/buffer"
	"bptreeidx/storage/disk"
)

// metaPageID is the fixed location of the index's header page: always
// the first page of the file, exactly like a freshly created file's
// first allocation.
const metaPageID = 0

// keyTypeInteger is the only key type this index understands; it is
// still written out so a header page is self-describing and a caller
// opening the wrong kind of index gets a clear BadIndexInfo instead of
// silent garbage.
const keyTypeInteger = "INTEGER"

// indexMeta is the decoded form of the header page: the record
// "<relationName>,<attrByteOffset>,<keyType>,<rootPageNumber>,<nextPageNo>".
// nextPageNo is not part of the spec's own header record; it is this
// port's way of letting the disk layer's allocation watermark survive a
// close/reopen cycle without an in-memory allocation-order table (see
// DESIGN.md).
type indexMeta struct {
	relationName   string
	attrByteOffset int
	keyType        string
	rootPageNo     int32
	nextPageNo     int32
}

func encodeMeta(m indexMeta) []byte {
	buf := make([]byte, disk.UsablePageSize)
	text := fmt.Sprintf("%s,%d,%s,%d,%d", m.relationName, m.attrByteOffset, m.keyType, m.rootPageNo, m.nextPageNo)
	copy(buf, text)
	return buf
}

func decodeMeta(data []byte) (indexMeta, error) {
	text := strings.TrimRight(string(data[:disk.UsablePageSize]), "\x00")
	parts := strings.SplitN(text, ",", 5)
	if len(parts) != 5 {
		return indexMeta{}, fmt.Errorf("bptree: malformed header page %q", text)
	}

	attrByteOffset, err := strconv.Atoi(parts[1])
	if err != nil {
		return indexMeta{}, fmt.Errorf("bptree: malformed attrByteOffset: %w", err)
	}
	rootPageNo, err := strconv.Atoi(parts[3])
	if err != nil {
		return indexMeta{}, fmt.Errorf("bptree: malformed root page number: %w", err)
	}
	nextPageNo, err := strconv.Atoi(parts[4])
	if err != nil {
		return indexMeta{}, fmt.Errorf("bptree: malformed next page number: %w", err)
	}

	return indexMeta{
		relationName:   parts[0],
		attrByteOffset: attrByteOffset,
		keyType:        parts[2],
		rootPageNo:     int32(rootPageNo),
		nextPageNo:     int32(nextPageNo),
	}, nil
}

// readMeta loads and decodes the header page.
func readMeta(bpm *buffer.BufferpoolManager) (indexMeta, error) {
	guard, err := bpm.FetchPageRead(metaPageID)
	if err != nil {
		return indexMeta{}, err
	}
	defer guard.Drop()

	return decodeMeta(guard.GetData())
}

// writeMeta persists m to the header page. Header writes are
// best-effort: a PagePinned/BadBuffer from the buffer manager is
// swallowed rather than propagated, since losing a header update does
// not corrupt the tree's structural invariants (the in-memory root
// page number stays correct for the life of this process either way).
func writeMeta(bpm *buffer.BufferpoolManager, m indexMeta) error {
	guard, err := bpm.FetchPageWrite(metaPageID)
	if err != nil {
		if errors.Is(err, buffer.ErrPagePinned) || errors.Is(err, buffer.ErrBadBuffer) {
			return nil
		}
		return err
	}
	defer guard.Drop()

	copy(guard.GetDataMut(), encodeMeta(m))
	return nil
}

// initMeta is used only at construction of a brand new index, when the
// header page does not exist yet and must be allocated rather than
// fetched.
func initMeta(bpm *buffer.BufferpoolManager, m indexMeta) error {
	pageID, guard, err := bpm.NewPage()
	if err != nil {
		return err
	}
	defer guard.Drop()

	if pageID != metaPageID {
		return fmt.Errorf("bptree: expected header page to be page %d, got %d", metaPageID, pageID)
	}

	copy(guard.GetDataMut(), encodeMeta(m))
	return nil
}

package heap

// Scanner is a forward-only cursor over every record in a heap file, in
// (page, slot) order. It is the collaborator the index's construct step
// drives once, while bulk loading a fresh index from an existing
// relation.
type Scanner struct {
	file        *File
	pageCache   []byte
	pageNo      int32
	slotNo      int32
	slotsOnPage int32
}

// NewScanner starts a scan positioned before the first record.
func NewScanner(f *File) *Scanner {
	return &Scanner{file: f, pageNo: 1, slotNo: 0}
}

// ScanNext returns the next record's id and raw bytes, or ErrEndOfFile
// once the heap file is exhausted.
func (s *Scanner) ScanNext() (RecordId, []byte, error) {
	for {
		if s.pageNo > s.file.numPages {
			return RecordId{}, nil, ErrEndOfFile
		}

		if s.pageCache == nil {
			page, err := s.file.readDataPage(s.pageNo)
			if err != nil {
				return RecordId{}, nil, err
			}
			s.pageCache = page
			s.slotsOnPage = int32(getUint16(page))
			s.slotNo = 0
		}

		if s.slotNo >= s.slotsOnPage {
			s.pageCache = nil
			s.pageNo++
			continue
		}

		offset := slotHeaderSize + int(s.slotNo)*s.file.recordSize
		record := make([]byte, s.file.recordSize)
		copy(record, s.pageCache[offset:offset+s.file.recordSize])

		rid := RecordId{PageNo: s.pageNo, SlotNo: s.slotNo}
		s.slotNo++
		return rid, record, nil
	}
}

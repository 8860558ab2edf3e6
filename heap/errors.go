package heap

import "errors"

// ErrEndOfFile is raised by Scanner.ScanNext once every record in the
// heap file has been returned.
var ErrEndOfFile = errors.New("heap: end of file")

// ErrRecordTooLarge is returned by File.InsertRecord when a record
// would not fit the file's fixed slot width.
var ErrRecordTooLarge = errors.New("heap: record exceeds fixed record size")

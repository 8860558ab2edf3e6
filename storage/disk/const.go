// Package disk implements the paged-file collaborator: fixed-size page
// storage backed by a single OS file per relation, plus the file-factory
// operations (exists/create/open) the index construct step drives.
package disk

// PageSize is the fixed unit of disk I/O. The trailing ChecksumSize bytes
// of every page are reserved for the buffer manager's corruption check;
// callers above the disk layer address UsablePageSize bytes.
const PageSize = 4096

// ChecksumSize is the width of the xxhash64 trailer the buffer manager
// writes into the last bytes of every page.
const ChecksumSize = 8

// UsablePageSize is the portion of a page available to page content.
const UsablePageSize = PageSize - ChecksumSize

// InvalidPageID marks "no page" the way a zero page number does for the
// index's own root-page-number convention; disk-layer code that deals in
// raw page ids (which can legitimately be 0) uses -1 instead.
const InvalidPageID = -1

// DefaultPageCapacity is the initial number of pages a freshly created
// file is sized for before the first doubling.
const DefaultPageCapacity = 16

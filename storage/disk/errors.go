package disk

import "errors"

// ErrFileNotFound is returned by Open when the relation's file does not
// exist; callers use Exists first when they want to branch on it instead.
var ErrFileNotFound = errors.New("disk: file not found")

// ErrFileExists is returned by Create when the relation's file is already
// present.
var ErrFileExists = errors.New("disk: file already exists")

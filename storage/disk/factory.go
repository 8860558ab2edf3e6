package disk

import (
	"os"
	"path/filepath"
)

// Exists reports whether fileName is already on disk under dir.
func Exists(dir, fileName string) bool {
	_, err := os.Stat(filepath.Join(dir, fileName))
	return err == nil
}

// Create makes a brand new, empty file at dir/fileName and returns a
// Manager positioned at the front of it. It fails if the file already
// exists so callers don't silently clobber another index's data.
func Create(dir, fileName string) (*Manager, error) {
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return nil, ErrFileExists
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	if err := os.Truncate(file.Name(), int64(DefaultPageCapacity)*PageSize); err != nil {
		file.Close()
		return nil, err
	}

	return NewManager(file), nil
}

// Open attaches a Manager to an existing file at dir/fileName.
func Open(dir, fileName string) (*Manager, error) {
	path := filepath.Join(dir, fileName)
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if os.IsNotExist(err) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	capacity := int(info.Size() / PageSize)
	if capacity < 1 {
		capacity = DefaultPageCapacity
	}

	return newManagerWithCapacity(file, capacity), nil
}

package util

import "github.com/vmihailenco/msgpack"

// MarshalSnapshot msgpack-encodes obj, used only for the inspect tool's
// offline debug dump — never for on-disk page content, which keeps its
// own fixed binary layout.
func MarshalSnapshot[T any](obj T) ([]byte, error) {
	return msgpack.Marshal(obj)
}

// UnmarshalSnapshot decodes bytes produced by MarshalSnapshot.
func UnmarshalSnapshot[T any](data []byte) (T, error) {
	var res T
	err := msgpack.Unmarshal(data, &res)
	return res, err
}

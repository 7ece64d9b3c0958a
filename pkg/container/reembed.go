package container

import (
	"bytes"
	"errors"
)

var (
	tiffLittleEndian = []byte{'I', 'I', 0x2a, 0x00}
	tiffBigEndian    = []byte{'M', 'M', 0x00, 0x2a}
)

// ErrReembedUnsupported is returned when a container cannot carry a
// rewritten tag table.
var ErrReembedUnsupported = errors.New("tag tables can only be embedded into jpeg and webp files")

func isTIFF(data []byte) bool {
	return bytes.HasPrefix(data, tiffLittleEndian) || bytes.HasPrefix(data, tiffBigEndian)
}

// Reembed returns a copy of data with its tag table replaced by tagBytes,
// which must start at the TIFF header.
func Reembed(tagBytes, data []byte) ([]byte, error) {
	switch {
	case isJPEG(data):
		return reembedJPEG(tagBytes, data)
	case isWebP(data):
		return reembedWebP(tagBytes, data)
	}

	return nil, ErrReembedUnsupported
}

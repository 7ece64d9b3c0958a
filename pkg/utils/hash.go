package utils

import (
	"fmt"
	"hash/crc32"
)

// CRC32Hash is used for ETags of embedded assets.
func CRC32Hash(bs []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(bs))
}

package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// pngExif returns the payload of the eXIf chunk, if any.
func pngExif(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("not a png")
	}

	offset := len(pngSignature)
	for offset < len(data) {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("truncated chunk header at offset %d", offset)
		}

		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		typ := string(data[offset+4 : offset+8])
		start := offset + 8

		// payload plus crc
		if length < 0 || start+length+4 > len(data) {
			return nil, fmt.Errorf("chunk %q overruns file", typ)
		}

		switch typ {
		case "eXIf":
			return data[start : start+length], nil
		case "IEND":
			return nil, nil
		}

		offset = start + length + 4
	}

	return nil, nil
}

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerAPP0 = 0xe0
	markerAPP1 = 0xe1

	maxSegmentPayload = 0xffff - 2
)

var exifHeader = []byte("Exif\x00\x00")

type jpegSegment struct {
	marker byte
	data   []byte
}

func isJPEG(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xff && data[1] == markerSOI && data[2] == 0xff
}

// standalone markers carry no length field.
func standalone(marker byte) bool {
	return marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7)
}

// parseJPEG splits the header segments of a JPEG up to and including the
// start of scan. tail holds everything after that.
func parseJPEG(data []byte) (segments []jpegSegment, tail []byte, err error) {
	if !isJPEG(data) {
		return nil, nil, errors.New("not a jpeg")
	}

	i := 2
	for {
		for i+1 < len(data) && data[i] == 0xff && data[i+1] == 0xff {
			i++
		}

		if i+2 > len(data) {
			return nil, nil, errors.New("truncated jpeg: missing start of scan")
		}

		if data[i] != 0xff {
			return nil, nil, fmt.Errorf("expected marker at offset %d", i)
		}

		marker := data[i+1]

		if marker == markerEOI {
			return segments, data[i:], nil
		}

		if standalone(marker) {
			segments = append(segments, jpegSegment{marker: marker})
			i += 2
			continue
		}

		if i+4 > len(data) {
			return nil, nil, fmt.Errorf("truncated segment 0x%02x", marker)
		}

		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return nil, nil, fmt.Errorf("segment 0x%02x has invalid length %d", marker, length)
		}

		segments = append(segments, jpegSegment{marker: marker, data: data[i+4 : i+2+length]})
		i += 2 + length

		if marker == markerSOS {
			return segments, data[i:], nil
		}
	}
}

func writeJPEG(segments []jpegSegment, tail []byte) []byte {
	var buf bytes.Buffer

	buf.Write([]byte{0xff, markerSOI})

	for _, s := range segments {
		buf.Write([]byte{0xff, s.marker})
		if standalone(s.marker) {
			continue
		}

		_ = binary.Write(&buf, binary.BigEndian, uint16(len(s.data)+2))
		buf.Write(s.data)
	}

	buf.Write(tail)

	return buf.Bytes()
}

func jpegExif(data []byte) ([]byte, error) {
	segments, _, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}

	for _, s := range segments {
		if s.marker == markerAPP1 && bytes.HasPrefix(s.data, exifHeader) {
			return s.data[len(exifHeader):], nil
		}
	}

	return nil, nil
}

// reembedJPEG replaces the Exif APP1 segment of data, or inserts one after
// any JFIF APP0 segment when there is none.
func reembedJPEG(tagBytes, data []byte) ([]byte, error) {
	segments, tail, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}

	payload := append(append([]byte{}, exifHeader...), tagBytes...)
	if len(payload) > maxSegmentPayload {
		return nil, fmt.Errorf("tag table of %d bytes does not fit in a jpeg segment", len(tagBytes))
	}

	exifSegment := jpegSegment{marker: markerAPP1, data: payload}

	for i, s := range segments {
		if s.marker == markerAPP1 && bytes.HasPrefix(s.data, exifHeader) {
			segments[i] = exifSegment
			return writeJPEG(segments, tail), nil
		}
	}

	at := 0
	for at < len(segments) && segments[at].marker == markerAPP0 {
		at++
	}

	out := make([]jpegSegment, 0, len(segments)+1)
	out = append(out, segments[:at]...)
	out = append(out, exifSegment)
	out = append(out, segments[at:]...)

	return writeJPEG(out, tail), nil
}

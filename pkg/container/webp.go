package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/image/webp"
)

const (
	vp8xFlagAlpha = 0x10
	vp8xFlagExif  = 0x08
	vp8xSize      = 10
)

type riffChunk struct {
	id   string
	data []byte
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

func parseWebP(data []byte) ([]riffChunk, error) {
	if !isWebP(data) {
		return nil, errors.New("not a webp")
	}

	var chunks []riffChunk

	offset := 12
	for offset < len(data) {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("truncated chunk header at offset %d", offset)
		}

		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		offset += 8

		if size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("chunk %q overruns file", id)
		}

		chunks = append(chunks, riffChunk{id: id, data: data[offset : offset+size]})

		offset += size
		if size%2 != 0 {
			offset++
		}
	}

	return chunks, nil
}

func writeWebP(chunks []riffChunk) []byte {
	size := 4
	for _, c := range chunks {
		size += 8 + len(c.data) + len(c.data)%2
	}

	var buf bytes.Buffer

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(size))
	buf.WriteString("WEBP")

	for _, c := range chunks {
		buf.WriteString(c.id)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(c.data)))
		buf.Write(c.data)
		if len(c.data)%2 != 0 {
			buf.WriteByte(0)
		}
	}

	return buf.Bytes()
}

func webpExif(data []byte) ([]byte, error) {
	chunks, err := parseWebP(data)
	if err != nil {
		return nil, err
	}

	for _, c := range chunks {
		if c.id == "EXIF" {
			return bytes.TrimPrefix(c.data, exifHeader), nil
		}
	}

	return nil, nil
}

// reembedWebP replaces any EXIF chunks with one holding tagBytes and marks
// it in the VP8X header, converting a simple file to the extended format
// when needed.
func reembedWebP(tagBytes, data []byte) ([]byte, error) {
	chunks, err := parseWebP(data)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return nil, errors.New("webp has no image data")
	}

	out := make([]riffChunk, 0, len(chunks)+2)
	for _, c := range chunks {
		if c.id != "EXIF" {
			out = append(out, c)
		}
	}

	if out[0].id == "VP8X" {
		if len(out[0].data) < vp8xSize {
			return nil, errors.New("vp8x chunk is too short")
		}

		header := append([]byte{}, out[0].data...)
		header[0] |= vp8xFlagExif
		out[0] = riffChunk{id: "VP8X", data: header}
	} else {
		header, err := extendedHeader(data, out)
		if err != nil {
			return nil, err
		}

		out = append([]riffChunk{{id: "VP8X", data: header}}, out...)
	}

	exifChunk := riffChunk{id: "EXIF", data: tagBytes}

	// XMP stays last.
	at := len(out)
	if out[at-1].id == "XMP " {
		at--
	}

	out = append(out[:at], append([]riffChunk{exifChunk}, out[at:]...)...)

	return writeWebP(out), nil
}

func extendedHeader(data []byte, chunks []riffChunk) ([]byte, error) {
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read webp dimensions: %w", err)
	}

	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, errors.New("webp has no dimensions")
	}

	flags := byte(vp8xFlagExif)
	for _, c := range chunks {
		switch c.id {
		case "ALPH":
			flags |= vp8xFlagAlpha
		case "VP8L":
			// alpha_is_used follows the 14 bit width and height
			if len(c.data) >= 5 && binary.LittleEndian.Uint32(c.data[1:5])>>28&1 == 1 {
				flags |= vp8xFlagAlpha
			}
		}
	}

	header := make([]byte, vp8xSize)
	header[0] = flags
	putUint24(header[4:7], uint32(cfg.Width-1))
	putUint24(header[7:10], uint32(cfg.Height-1))

	return header, nil
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

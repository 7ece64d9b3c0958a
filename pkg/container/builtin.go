package container

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// builtin opens every format with a registered image decoder.
var builtin Opener = stdOpener{}

type stdOpener struct{}

func (stdOpener) Name() string {
	return "builtin"
}

func (stdOpener) Sniff([]byte) bool {
	return true
}

func (stdOpener) Open(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}

	img := &Image{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}

	switch format {
	case "jpeg":
		img.ExifBytes, err = jpegExif(data)
	case "webp":
		img.ExifBytes, err = webpExif(data)
	case "png":
		img.ExifBytes, err = pngExif(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s structure: %w", format, err)
	}

	return img, nil
}

package vips

import (
	"errors"
	"fmt"

	govips "github.com/davidbyttow/govips/v2/vips"
	"github.com/sirupsen/logrus"

	"github.com/charlieegan3/metadata-console/pkg/container"
	"github.com/charlieegan3/metadata-console/pkg/tags"
)

// brands of the ISO base media file types that libvips reads through
// libheif.
var brands = map[string]string{
	"heic": "heif",
	"heix": "heif",
	"hevc": "heif",
	"hevx": "heif",
	"heim": "heif",
	"heis": "heif",
	"mif1": "heif",
	"msf1": "heif",
	"avif": "avif",
	"avis": "avif",
}

// Opener opens HEIF and AVIF images with libvips.
type Opener struct{}

// New starts libvips, sending its warnings to logger. Close must be called
// when the opener is no longer used.
func New(logger logrus.FieldLogger) *Opener {
	govips.LoggingSettings(func(domain string, level govips.LogLevel, msg string) {
		entry := logger.WithField("domain", domain)
		if level <= govips.LogLevelCritical {
			entry.Error(msg)
			return
		}
		entry.Warn(msg)
	}, govips.LogLevelWarning)
	govips.Startup(nil)

	return &Opener{}
}

func (o *Opener) Close() {
	govips.Shutdown()
}

func (o *Opener) Name() string {
	return "vips"
}

func (o *Opener) Sniff(data []byte) bool {
	_, ok := brand(data)
	return ok
}

func (o *Opener) Open(data []byte) (*container.Image, error) {
	format, ok := brand(data)
	if !ok {
		return nil, errors.New("not a heif or avif file")
	}

	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	defer ref.Close()

	switch ref.Format() {
	case govips.ImageTypeHEIF, govips.ImageTypeAVIF:
	default:
		return nil, fmt.Errorf("unexpected image type %d", ref.Format())
	}

	img := &container.Image{
		Width:  ref.Width(),
		Height: ref.Height(),
		Format: format,
	}

	// the Exif item is stored as a TIFF header prefixed by its offset
	raw, err := tags.Search(data)
	if err == nil {
		img.ExifBytes = raw
	} else if !errors.Is(err, tags.ErrNoTags) {
		return nil, fmt.Errorf("failed to locate exif item: %w", err)
	}

	return img, nil
}

func brand(data []byte) (string, bool) {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return "", false
	}

	format, ok := brands[string(data[8:12])]

	return format, ok
}

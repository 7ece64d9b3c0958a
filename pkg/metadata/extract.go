package metadata

import (
	"github.com/charlieegan3/metadata-console/pkg/container"
	"github.com/charlieegan3/metadata-console/pkg/gps"
	"github.com/charlieegan3/metadata-console/pkg/tags"
	"github.com/charlieegan3/metadata-console/pkg/values"
)

// readableSections are merged, in order, into Result.Exif.
var readableSections = []tags.Section{
	tags.SectionImage,
	tags.SectionExif,
	tags.SectionInterop,
}

type ImageInfo struct {
	Width  int
	Height int
	MIME   string
	Size   int
}

// Result is the structured metadata of one image.
type Result struct {
	Image ImageInfo

	// Exif is keyed by tag name and holds the primary image, Exif and
	// Interop sections. A later section wins on a name collision.
	Exif map[string]any
	GPS  gps.Coordinates

	// Raw holds every non-empty section keyed by section name, then tag
	// name. Tags missing from the catalogue use their decimal id.
	Raw map[string]map[string]any

	// ExifBytes is the tag table stored in the container, kept for editing.
	ExifBytes []byte
	MIME      string
}

// Extract reads the dimensions and tag table of an image. filename and
// contentType are only used to determine the MIME type and may be empty.
func Extract(data []byte, filename, contentType string) (*Result, error) {
	mimeType := container.GuessMIME(filename, contentType)

	img, err := container.Open(data)
	if err != nil {
		return nil, &Error{Message: msgCannotProcess, Err: err}
	}

	var table *tags.Table
	if len(img.ExifBytes) > 0 {
		table, err = tags.Decode(img.ExifBytes)
		if err != nil {
			return nil, &Error{Message: msgLoadExif, Err: err}
		}
	} else {
		table = tags.NewTable()

		// the generic accessor is best effort
		entries, err := container.GenericTags(img)
		if err == nil {
			for id, v := range entries {
				table.Set(tags.SectionImage, id, v)
			}
		}
	}

	exif, raw := normalizeTable(table, tags.Standard())

	r := &Result{
		Image: ImageInfo{
			Width:  img.Width,
			Height: img.Height,
			MIME:   mimeType,
			Size:   len(data),
		},
		Exif: exif,
		GPS:  gps.Extract(table.Section(tags.SectionGPS)),
		Raw:  raw,
		MIME: mimeType,
	}

	if len(img.ExifBytes) > 0 {
		r.ExifBytes = img.ExifBytes
	}

	return r, nil
}

func normalizeTable(table *tags.Table, schema *tags.Schema) (map[string]any, map[string]map[string]any) {
	exif := make(map[string]any)
	raw := make(map[string]map[string]any)

	for _, section := range tags.Sections {
		ids := table.IDs(section)
		if len(ids) == 0 {
			continue
		}

		entries := make(map[string]any, len(ids))
		for _, id := range ids {
			v, _ := table.Get(section, id)
			entries[schema.Name(section, id)] = values.Normalize(v)
		}

		raw[section.String()] = entries
	}

	for _, section := range readableSections {
		for name, v := range raw[section.String()] {
			exif[name] = v
		}
	}

	return exif, raw
}

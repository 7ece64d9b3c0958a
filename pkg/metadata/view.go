package metadata

import (
	"encoding/base64"

	"github.com/charlieegan3/metadata-console/pkg/gps"
)

const defaultEditFilename = "edited-image.jpg"

// View is the JSON response for an extracted image.
type View struct {
	Image ImageView                 `json:"image"`
	Exif  map[string]any            `json:"exif"`
	GPS   gps.Coordinates           `json:"gps"`
	Raw   map[string]map[string]any `json:"raw"`
}

type ImageView struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	MIME   *string `json:"mime"`
	Size   int     `json:"size"`
}

// EditView is the JSON response for an edited image. It carries the new
// file inline.
type EditView struct {
	View
	File FileView `json:"file"`
}

type FileView struct {
	Filename string  `json:"filename"`
	MIME     *string `json:"mime"`
	Base64   string  `json:"base64"`
	Size     int     `json:"size"`
}

func NewView(r *Result) View {
	return View{
		Image: ImageView{
			Width:  r.Image.Width,
			Height: r.Image.Height,
			MIME:   optional(r.Image.MIME),
			Size:   r.Image.Size,
		},
		Exif: r.Exif,
		GPS:  r.GPS,
		Raw:  r.Raw,
	}
}

func NewEditView(data []byte, filename string, r *Result) EditView {
	if filename == "" {
		filename = defaultEditFilename
	}

	return EditView{
		View: NewView(r),
		File: FileView{
			Filename: filename,
			MIME:     optional(r.MIME),
			Base64:   base64.StdEncoding.EncodeToString(data),
			Size:     len(data),
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

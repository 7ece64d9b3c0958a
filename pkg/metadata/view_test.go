package metadata

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/charlieegan3/metadata-console/pkg/gps"
)

func TestNewViewJSON(t *testing.T) {
	r := &Result{
		Image: ImageInfo{Width: 2, Height: 3, Size: 10},
		Exif:  map[string]any{"Make": "Canon"},
		GPS:   gps.Coordinates{},
		Raw:   map[string]map[string]any{"0th": {"Make": "Canon"}},
	}

	b, err := json.Marshal(NewView(r))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	exp := `{"image":{"width":2,"height":3,"mime":null,"size":10},"exif":{"Make":"Canon"},"gps":{},"raw":{"0th":{"Make":"Canon"}}}`
	if got := string(b); got != exp {
		t.Fatalf("expected %s, got %s", exp, got)
	}
}

func TestNewEditView(t *testing.T) {
	r := &Result{
		Image: ImageInfo{Width: 1, Height: 1, MIME: "image/webp", Size: 4},
		MIME:  "image/webp",
	}

	data := []byte("data")

	tests := map[string]struct {
		filename string
		expected string
	}{
		"default filename":  {filename: "", expected: "edited-image.jpg"},
		"supplied filename": {filename: "holiday.webp", expected: "holiday.webp"},
	}

	for description, tc := range tests {
		t.Run(description, func(t *testing.T) {
			v := NewEditView(data, tc.filename, r)

			if got := v.File.Filename; got != tc.expected {
				t.Fatalf("expected filename %s, got %s", tc.expected, got)
			}

			decoded, err := base64.StdEncoding.DecodeString(v.File.Base64)
			if err != nil || string(decoded) != "data" {
				t.Fatalf("expected base64 of the data, got %s", v.File.Base64)
			}

			if v.File.Size != 4 || v.File.MIME == nil || *v.File.MIME != "image/webp" {
				t.Fatalf("unexpected file view %+v", v.File)
			}

			b, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			var fields map[string]json.RawMessage
			if err := json.Unmarshal(b, &fields); err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			for _, key := range []string{"image", "exif", "gps", "raw", "file"} {
				if _, ok := fields[key]; !ok {
					t.Fatalf("expected %s in %s", key, b)
				}
			}
		})
	}
}

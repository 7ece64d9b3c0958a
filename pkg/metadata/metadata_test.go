package metadata

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"reflect"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/charlieegan3/metadata-console/pkg/container"
	"github.com/charlieegan3/metadata-console/pkg/tags"
	"github.com/charlieegan3/metadata-console/pkg/values"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 20), B: 64, A: 255})
		}
	}

	return img
}

func plainJPEG(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %s", err)
	}

	return buf.Bytes()
}

func taggedJPEG(t *testing.T, table *tags.Table) []byte {
	t.Helper()

	raw, err := tags.Encode(table)
	if err != nil {
		t.Fatalf("failed to encode tags: %s", err)
	}

	data, err := container.Reembed(raw, plainJPEG(t))
	if err != nil {
		t.Fatalf("failed to embed tags: %s", err)
	}

	return data
}

func whole(n int64) tags.Rational {
	return tags.Rational{Numerator: n, Denominator: 1}
}

func cameraTable() *tags.Table {
	table := tags.NewTable()
	table.Set(tags.SectionImage, 0x010f, tags.AsciiValue("Canon"))
	table.Set(tags.SectionImage, 0x0110, tags.AsciiValue("Canon EOS 5D"))
	table.Set(tags.SectionImage, 0x0112, tags.IntValue(tags.TypeShort, 1))
	table.Set(tags.SectionExif, 0x829a, tags.RationalValue(tags.TypeRational, tags.Rational{Numerator: 1, Denominator: 250}))
	table.Set(tags.SectionExif, 0x9003, tags.AsciiValue("2024:05:01 10:00:00"))
	table.Set(tags.SectionGPS, 0x0000, tags.IntValue(tags.TypeByte, 2, 3, 0, 0))
	table.Set(tags.SectionGPS, 0x0001, tags.AsciiValue("N"))
	table.Set(tags.SectionGPS, 0x0002, tags.RationalValue(tags.TypeRational, whole(40), whole(26), tags.Rational{Numerator: 463, Denominator: 10}))
	table.Set(tags.SectionGPS, 0x0003, tags.AsciiValue("W"))
	table.Set(tags.SectionGPS, 0x0004, tags.RationalValue(tags.TypeRational, whole(79), whole(58), whole(56)))

	return table
}

func assertMetadataError(t *testing.T, err error, message string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected an error")
	}

	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("expected *Error, got %T: %s", err, err)
	}

	if message != "" && me.Message != message {
		t.Fatalf("expected message %q, got %q", message, me.Message)
	}
}

func assertNear(t *testing.T, name string, exp float64, got *float64) {
	t.Helper()

	if got == nil {
		t.Fatalf("expected %s %f, got none", name, exp)
	}

	if math.Abs(exp-*got) > 1e-6 {
		t.Fatalf("expected %s %f, got %f", name, exp, *got)
	}
}

func TestExtract(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := r.Exif["Make"], "Canon"; got != exp {
		t.Fatalf("expected Make %q, got %v", exp, got)
	}

	if got, exp := r.Exif["ExposureTime"], 0.004; got != exp {
		t.Fatalf("expected ExposureTime %v, got %v", exp, got)
	}

	if got, exp := r.Exif["DateTimeOriginal"], "2024:05:01 10:00:00"; got != exp {
		t.Fatalf("expected DateTimeOriginal %q, got %v", exp, got)
	}

	if _, ok := r.Exif["GPSLatitude"]; ok {
		t.Fatalf("expected GPS tags to be left out of exif")
	}

	assertNear(t, "lat", 40.446194, r.GPS.Lat)
	assertNear(t, "lon", -79.982222, r.GPS.Lon)

	if r.GPS.Alt != nil {
		t.Fatalf("expected no altitude, got %f", *r.GPS.Alt)
	}

	for _, section := range []string{"0th", "Exif", "GPS"} {
		if _, ok := r.Raw[section]; !ok {
			t.Fatalf("expected raw section %s in %v", section, r.Raw)
		}
	}

	for _, section := range []string{"Interop", "1st"} {
		if _, ok := r.Raw[section]; ok {
			t.Fatalf("expected empty section %s to be left out", section)
		}
	}

	if got, exp := r.Raw["GPS"]["GPSVersionID"], []any{int64(2), int64(3), int64(0), int64(0)}; !reflect.DeepEqual(got, exp) {
		t.Fatalf("expected GPSVersionID %v, got %v", exp, got)
	}

	if r.Image.Width != 16 || r.Image.Height != 12 {
		t.Fatalf("expected 16x12, got %dx%d", r.Image.Width, r.Image.Height)
	}

	if got, exp := r.Image.Size, len(data); got != exp {
		t.Fatalf("expected size %d, got %d", exp, got)
	}

	if got, exp := r.MIME, "image/jpeg"; got != exp {
		t.Fatalf("expected mime %s, got %s", exp, got)
	}

	if len(r.ExifBytes) == 0 {
		t.Fatalf("expected exif bytes to be kept")
	}
}

func TestExtractNormalizesAwkwardValues(t *testing.T) {
	table := tags.NewTable()
	table.Set(tags.SectionExif, 0x829a, tags.RationalValue(tags.TypeRational, tags.Rational{Numerator: 1, Denominator: 0}))
	table.Set(tags.SectionExif, 0x927c, tags.BytesValue(tags.TypeUndefined, []byte{0xff, 0xfe}))
	table.Set(tags.SectionExif, 0xfe00, tags.IntValue(tags.TypeLong, 7))

	r, err := Extract(taggedJPEG(t, table), "", "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	v, ok := r.Exif["ExposureTime"]
	if !ok || v != nil {
		t.Fatalf("expected ExposureTime to be present and nil, got %v", v)
	}

	if got, exp := r.Exif["MakerNote"], "//4="; got != exp {
		t.Fatalf("expected MakerNote %q, got %v", exp, got)
	}

	if got, exp := r.Raw["Exif"]["65024"], int64(7); got != exp {
		t.Fatalf("expected unknown tag by id, got %v", got)
	}
}

func TestExtractWithoutGPS(t *testing.T) {
	r, err := Extract(plainJPEG(t), "plain.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if r.GPS.Lat != nil || r.GPS.Lon != nil || r.GPS.Alt != nil {
		t.Fatalf("expected no coordinates, got %s", r.GPS)
	}

	if len(r.Exif) != 0 || len(r.Raw) != 0 {
		t.Fatalf("expected no tags, got %v", r.Raw)
	}

	if r.ExifBytes != nil {
		t.Fatalf("expected no exif bytes")
	}
}

func TestExtractErrors(t *testing.T) {
	corrupt, err := container.Reembed([]byte("this is not a tag table"), plainJPEG(t))
	if err != nil {
		t.Fatalf("failed to build fixture: %s", err)
	}

	tests := map[string]struct {
		data    []byte
		message string
	}{
		"not an image": {data: []byte("hello"), message: msgCannotProcess},
		"empty":        {data: nil, message: msgCannotProcess},
		"corrupt exif": {data: corrupt, message: msgLoadExif},
	}

	for description, tc := range tests {
		t.Run(description, func(t *testing.T) {
			_, err := Extract(tc.data, "a.jpg", "")
			assertMetadataError(t, err, tc.message)
		})
	}
}

func TestExtractTIFF(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("failed to encode tiff: %s", err)
	}

	r, err := Extract(buf.Bytes(), "scan.tiff", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := r.MIME, "image/tiff"; got != exp {
		t.Fatalf("expected mime %s, got %s", exp, got)
	}

	if got, exp := r.Exif["ImageWidth"], int64(16); got != exp {
		t.Fatalf("expected ImageWidth %v, got %v", exp, got)
	}

	if _, ok := r.Raw["0th"]; !ok {
		t.Fatalf("expected generic tags in the primary section")
	}

	_, _, err = Edit(buf.Bytes(), r, map[string]values.Input{"Make": values.String("Nikon")}, nil)
	assertMetadataError(t, err, msgApplyExif)
}

func TestEditScenario(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	assertNear(t, "lat", 40.446194, r.GPS.Lat)

	out, edited, err := Edit(data, r, map[string]values.Input{"Make": values.String("Nikon")}, []string{"GPSLatitude"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := edited.Exif["Make"], "Nikon"; got != exp {
		t.Fatalf("expected Make %q, got %v", exp, got)
	}

	if edited.GPS.Lat != nil {
		t.Fatalf("expected no latitude, got %f", *edited.GPS.Lat)
	}

	assertNear(t, "lon", -79.982222, edited.GPS.Lon)

	if got, exp := edited.MIME, "image/jpeg"; got != exp {
		t.Fatalf("expected mime %s to carry over, got %s", exp, got)
	}

	if got, exp := edited.Image.Size, len(out); got != exp {
		t.Fatalf("expected size %d, got %d", exp, got)
	}

	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("expected edited image to decode: %s", err)
	}
}

func TestEditNoOpRoundTrip(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	_, edited, err := Edit(data, r, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !reflect.DeepEqual(r.Exif, edited.Exif) {
		t.Fatalf("expected exif %v, got %v", r.Exif, edited.Exif)
	}

	if !reflect.DeepEqual(r.Raw, edited.Raw) {
		t.Fatalf("expected raw %v, got %v", r.Raw, edited.Raw)
	}

	if !reflect.DeepEqual(r.GPS, edited.GPS) {
		t.Fatalf("expected gps %s, got %s", r.GPS, edited.GPS)
	}

	if r.Image.Width != edited.Image.Width || r.Image.Height != edited.Image.Height {
		t.Fatalf("expected dimensions to be unchanged")
	}
}

func TestEditUnknownTags(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	_, _, err = Edit(data, r, map[string]values.Input{
		"Make":        values.String("Nikon"),
		"NotARealTag": values.String("x"),
	}, nil)
	assertMetadataError(t, err, "unsupported EXIF tag: NotARealTag")

	_, edited, err := Edit(data, r, nil, []string{"NotARealTag"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !reflect.DeepEqual(r.Raw, edited.Raw) {
		t.Fatalf("expected raw %v, got %v", r.Raw, edited.Raw)
	}
}

func TestEditUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("failed to encode png: %s", err)
	}

	r, err := Extract(buf.Bytes(), "image.png", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	tests := map[string]struct {
		updates  map[string]values.Input
		removals []string
	}{
		"nothing":  {},
		"update":   {updates: map[string]values.Input{"Make": values.String("Nikon")}},
		"removal":  {removals: []string{"Make"}},
		"unknowns": {updates: map[string]values.Input{"Nope": values.Int(1)}, removals: []string{"Nope"}},
	}

	for description, tc := range tests {
		t.Run(description, func(t *testing.T) {
			_, _, err := Edit(buf.Bytes(), r, tc.updates, tc.removals)
			assertMetadataError(t, err, msgNotEditable)
		})
	}

	r.MIME = ""
	_, _, err = Edit(buf.Bytes(), r, nil, nil)
	assertMetadataError(t, err, msgNotEditable)
}

func TestEditWithoutExistingTags(t *testing.T) {
	data := plainJPEG(t)

	r, err := Extract(data, "plain.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	_, edited, err := Edit(data, r, map[string]values.Input{
		"Make":           values.String("Nikon"),
		"GPSLatitude":    values.List(values.Int(51), values.Int(30), values.Int(0)),
		"GPSLatitudeRef": values.String("S"),
	}, []string{"Model"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := edited.Exif["Make"], "Nikon"; got != exp {
		t.Fatalf("expected Make %q, got %v", exp, got)
	}

	assertNear(t, "lat", -51.5, edited.GPS.Lat)

	if edited.ExifBytes == nil {
		t.Fatalf("expected edited image to carry exif bytes")
	}
}

func TestEditRationalForms(t *testing.T) {
	data := plainJPEG(t)

	r, err := Extract(data, "plain.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	pairs := values.List(
		values.List(values.Int(40), values.Int(1)),
		values.List(values.Int(26), values.Int(1)),
		values.List(values.Int(463), values.Int(10)),
	)

	latitudes := map[string]values.Input{
		"fraction strings": values.List(values.String("40/1"), values.String("26/1"), values.String("463/10")),
		"numeric pairs":    pairs,
		"decimal strings":  values.List(values.String("40"), values.String("26"), values.String("46.3")),
	}

	for description, lat := range latitudes {
		t.Run(description, func(t *testing.T) {
			_, edited, err := Edit(data, r, map[string]values.Input{"GPSLatitude": lat}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			assertNear(t, "lat", 40.446194, edited.GPS.Lat)
		})
	}

	exposures := map[string]values.Input{
		"fraction string": values.String("1/250"),
		"numeric pair":    values.List(values.Int(1), values.Int(250)),
		"decimal string":  values.String("0.004"),
	}

	for description, exposure := range exposures {
		t.Run(description, func(t *testing.T) {
			_, edited, err := Edit(data, r, map[string]values.Input{"ExposureTime": exposure}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			if got, exp := edited.Exif["ExposureTime"], 0.004; got != exp {
				t.Fatalf("expected %v, got %v", exp, got)
			}
		})
	}
}

func TestEditInvalidValues(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	tests := map[string]values.Input{
		"Orientation":  values.String("sideways"),
		"Make":         values.List(values.Int(5)),
		"ExposureTime": values.String("fast"),
		"GPSLatitude":  values.String("-1/2"),
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Edit(data, r, map[string]values.Input{name: in}, nil)
			assertMetadataError(t, err, "")

			var ce *values.ConversionError
			if !errors.As(err, &ce) {
				t.Fatalf("expected a conversion error cause, got %s", err)
			}
		})
	}
}

func TestEditStringifiesAndTruncatesNumbers(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	_, edited, err := Edit(data, r, map[string]values.Input{
		"ImageDescription": values.Int(2024),
		"Orientation":      values.Float(6.7),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := edited.Exif["ImageDescription"], "2024"; got != exp {
		t.Fatalf("expected ImageDescription %q, got %v", exp, got)
	}

	if got, exp := edited.Exif["Orientation"], int64(6); got != exp {
		t.Fatalf("expected Orientation %v, got %v (%T)", exp, got, got)
	}
}

func TestEditEmptyUserComment(t *testing.T) {
	data := taggedJPEG(t, cameraTable())

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	out, edited, err := Edit(data, r, map[string]values.Input{"UserComment": values.String("")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := edited.Exif["UserComment"], ""; got != exp {
		t.Fatalf("expected UserComment %q, got %v", exp, got)
	}

	// the edited image is itself editable
	_, again, err := Edit(out, edited, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error editing again: %s", err)
	}

	if !reflect.DeepEqual(edited.Raw, again.Raw) {
		t.Fatalf("expected raw %v, got %v", edited.Raw, again.Raw)
	}
}

func TestThumbnailSurvivesEdit(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("failed to encode thumbnail: %s", err)
	}
	thumbnail := buf.Bytes()

	table := cameraTable()
	table.Set(tags.SectionFirstThumbnail, 0x0103, tags.IntValue(tags.TypeShort, 6))
	table.Thumbnail = thumbnail

	data := taggedJPEG(t, table)

	r, err := Extract(data, "photo.jpg", "")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	first := r.Raw["1st"]
	if _, ok := first["JPEGInterchangeFormat"]; ok {
		t.Fatalf("expected no thumbnail offset in %v", first)
	}

	if got, exp := first["JPEGInterchangeFormatLength"], int64(len(thumbnail)); got != exp {
		t.Fatalf("expected thumbnail length %v, got %v", exp, got)
	}

	out, edited, err := Edit(data, r, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !reflect.DeepEqual(r.Raw, edited.Raw) {
		t.Fatalf("expected raw %v, got %v", r.Raw, edited.Raw)
	}

	img, err := container.Open(out)
	if err != nil {
		t.Fatalf("unexpected error opening edited image: %s", err)
	}

	decoded, err := tags.Decode(img.ExifBytes)
	if err != nil {
		t.Fatalf("unexpected error decoding edited tags: %s", err)
	}

	if !bytes.Equal(decoded.Thumbnail, thumbnail) {
		t.Fatalf("expected thumbnail to survive the edit")
	}
}

func TestEditUnreadableResult(t *testing.T) {
	// headers only, with no frame to decode
	data := []byte{0xff, 0xd8, 0xff, 0xd9}

	_, _, err := Edit(data, &Result{MIME: "image/jpeg"}, map[string]values.Input{"Make": values.String("Nikon")}, nil)
	assertMetadataError(t, err, msgApplyExif)
}

func TestEditRequiresResult(t *testing.T) {
	_, _, err := Edit(plainJPEG(t), nil, nil, nil)
	assertMetadataError(t, err, msgMissingResult)
}

package container

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rwcarlsen/goexif/tiff"

	"github.com/charlieegan3/metadata-console/pkg/tags"
)

// pointer tags in IFD0 that lead to other sections.
var pointerTags = map[uint16]bool{
	0x8769: true,
	0x8825: true,
	0xa005: true,
}

// GenericTags returns the primary image tags of a container that stores
// no separate tag table. TIFF files are read directly. Other formats are
// scanned for an embedded TIFF header; finding none is not an error.
func GenericTags(img *Image) (map[uint16]tags.Value, error) {
	if isTIFF(img.data) {
		return tiffTags(img.data)
	}

	raw, err := tags.Search(img.data)
	if errors.Is(err, tags.ErrNoTags) {
		return map[uint16]tags.Value{}, nil
	} else if err != nil {
		return nil, err
	}

	t, err := tags.Decode(raw)
	if err != nil {
		return nil, err
	}

	return t.Section(tags.SectionImage), nil
}

func tiffTags(data []byte) (map[uint16]tags.Value, error) {
	tf, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode tiff: %w", err)
	}

	out := make(map[uint16]tags.Value)
	if len(tf.Dirs) == 0 {
		return out, nil
	}

	for _, tag := range tf.Dirs[0].Tags {
		if pointerTags[tag.Id] {
			continue
		}

		v, ok, err := tiffValue(tag)
		if err != nil {
			return nil, fmt.Errorf("tag 0x%04x: %w", tag.Id, err)
		}

		if ok {
			out[tag.Id] = v
		}
	}

	return out, nil
}

func tiffValue(tag *tiff.Tag) (tags.Value, bool, error) {
	t := tags.ValueType(tag.Type)
	n := int(tag.Count)

	switch {
	case t.IsBytes():
		return tags.BytesValue(t, append([]byte{}, tag.Val...)), true, nil
	case t.IsInteger():
		ints := make([]int64, n)
		for i := range ints {
			v, err := tag.Int64(i)
			if err != nil {
				return tags.Value{}, false, err
			}
			ints[i] = v
		}

		return tags.IntValue(t, ints...), true, nil
	case t.IsRational():
		rationals := make([]tags.Rational, n)
		for i := range rationals {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return tags.Value{}, false, err
			}
			rationals[i] = tags.Rational{Numerator: num, Denominator: den}
		}

		return tags.RationalValue(t, rationals...), true, nil
	case t.IsFloat():
		floats := make([]float64, n)
		for i := range floats {
			v, err := tag.Float(i)
			if err != nil {
				return tags.Value{}, false, err
			}
			floats[i] = v
		}

		return tags.FloatValue(t, floats...), true, nil
	}

	// signed bytes have no tag table type
	return tags.Value{}, false, nil
}

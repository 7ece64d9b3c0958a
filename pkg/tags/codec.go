package tags

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
)

// Tag ids that are owned by the codec: sub-IFD pointers are derived from
// which sections are populated and the thumbnail location tags are derived
// from Table.Thumbnail.
const (
	exifPointerID     uint16 = 0x8769
	gpsPointerID      uint16 = 0x8825
	interopPointerID  uint16 = 0xa005
	thumbnailOffsetID uint16 = 0x0201
	thumbnailLengthID uint16 = 0x0202
)

// ErrNoTags is returned by Search when no tag table could be found.
var ErrNoTags = errors.New("no tag table found")

// Search scans arbitrary bytes for an embedded TIFF header and returns the
// tag table that starts there.
func Search(data []byte) ([]byte, error) {
	raw, err := exif.SearchAndExtractExif(data)
	if errors.Is(err, exif.ErrNoExif) {
		return nil, ErrNoTags
	} else if err != nil {
		return nil, fmt.Errorf("failed to search for tag table: %w", err)
	}

	return raw, nil
}

// Decode parses a binary tag table (TIFF header followed by the IFD chain)
// into a Table.
func Decode(raw []byte) (*Table, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("failed to create IFD mapping: %w", err)
	}

	ti := exif.NewTagIndex()

	_, index, err := exif.Collect(im, ti, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to collect exif data: %w", err)
	}

	t := NewTable()

	for _, ifd := range index.Ifds {
		section, ok := sectionForIfd(ifd.IfdIdentity())
		if !ok {
			continue
		}

		for _, ite := range ifd.Entries() {
			if ite.ChildIfdPath() != "" {
				continue
			}

			// The thumbnail offset is rewritten on encode from Table.Thumbnail.
			if section == SectionFirstThumbnail && ite.TagId() == thumbnailOffsetID {
				continue
			}

			v, err := decodeEntry(ite)
			if err != nil {
				return nil, fmt.Errorf("could not decode tag 0x%04x in %s: %w", ite.TagId(), section, err)
			}

			t.Set(section, ite.TagId(), v)
		}

		if section == SectionFirstThumbnail {
			thumbnail, err := ifd.Thumbnail()
			if err == nil {
				t.Thumbnail = thumbnail
			}
		}
	}

	return t, nil
}

func sectionForIfd(ii *exifcommon.IfdIdentity) (Section, bool) {
	switch ii.String() {
	case exifcommon.IfdStandardIfdIdentity.String():
		return SectionImage, true
	case exifcommon.IfdExifStandardIfdIdentity.String():
		return SectionExif, true
	case exifcommon.IfdGpsInfoStandardIfdIdentity.String():
		return SectionGPS, true
	case exifcommon.IfdExifIopStandardIfdIdentity.String():
		return SectionInterop, true
	case exifcommon.Ifd1StandardIfdIdentity.String():
		return SectionFirstThumbnail, true
	}

	return 0, false
}

func decodeEntry(ite *exif.IfdTagEntry) (Value, error) {
	if ite.TagType() == exifcommon.TypeUndefined {
		if ite.UnitCount() == 0 {
			return BytesValue(TypeUndefined, []byte{}), nil
		}

		raw, err := ite.GetRawBytes()
		if err != nil {
			return Value{}, fmt.Errorf("could not read raw bytes: %w", err)
		}

		return BytesValue(TypeUndefined, raw), nil
	}

	raw, err := ite.Value()
	if err != nil {
		return Value{}, fmt.Errorf("could not get value: %w", err)
	}

	switch v := raw.(type) {
	case string:
		return AsciiValue(v), nil
	case []byte:
		ints := make([]int64, len(v))
		for i, b := range v {
			ints[i] = int64(b)
		}

		return IntValue(TypeByte, ints...), nil
	case []uint16:
		ints := make([]int64, len(v))
		for i, n := range v {
			ints[i] = int64(n)
		}

		return IntValue(TypeShort, ints...), nil
	case []uint32:
		ints := make([]int64, len(v))
		for i, n := range v {
			ints[i] = int64(n)
		}

		return IntValue(TypeLong, ints...), nil
	case []int32:
		ints := make([]int64, len(v))
		for i, n := range v {
			ints[i] = int64(n)
		}

		return IntValue(TypeSLong, ints...), nil
	case []exifcommon.Rational:
		rationals := make([]Rational, len(v))
		for i, r := range v {
			rationals[i] = Rational{Numerator: int64(r.Numerator), Denominator: int64(r.Denominator)}
		}

		return RationalValue(TypeRational, rationals...), nil
	case []exifcommon.SignedRational:
		rationals := make([]Rational, len(v))
		for i, r := range v {
			rationals[i] = Rational{Numerator: int64(r.Numerator), Denominator: int64(r.Denominator)}
		}

		return RationalValue(TypeSRational, rationals...), nil
	case []float32:
		floats := make([]float64, len(v))
		for i, f := range v {
			floats[i] = float64(f)
		}

		return FloatValue(TypeFloat, floats...), nil
	case []float64:
		return FloatValue(TypeDouble, v...), nil
	}

	return Value{}, fmt.Errorf("unsupported value of type %T", raw)
}

// Encode serializes a Table into a binary tag table. Empty sections are
// left out, except that the Exif section is written whenever Interop has
// entries since Interop hangs off it.
func Encode(t *Table) ([]byte, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("failed to create IFD mapping: %w", err)
	}

	ti := exif.NewTagIndex()
	bo := exifcommon.EncodeDefaultByteOrder

	rootIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, bo)
	err = addEntries(rootIb, t.Section(SectionImage), bo, exifPointerID, gpsPointerID)
	if err != nil {
		return nil, fmt.Errorf("could not build %s: %w", SectionImage, err)
	}

	if len(t.Section(SectionExif)) > 0 || len(t.Section(SectionInterop)) > 0 {
		exifIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdExifStandardIfdIdentity, bo)
		err = addEntries(exifIb, t.Section(SectionExif), bo, interopPointerID)
		if err != nil {
			return nil, fmt.Errorf("could not build %s: %w", SectionExif, err)
		}

		if len(t.Section(SectionInterop)) > 0 {
			iopIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdExifIopStandardIfdIdentity, bo)
			err = addEntries(iopIb, t.Section(SectionInterop), bo)
			if err != nil {
				return nil, fmt.Errorf("could not build %s: %w", SectionInterop, err)
			}

			if err := exifIb.AddChildIb(iopIb); err != nil {
				return nil, fmt.Errorf("could not attach %s: %w", SectionInterop, err)
			}
		}

		if err := rootIb.AddChildIb(exifIb); err != nil {
			return nil, fmt.Errorf("could not attach %s: %w", SectionExif, err)
		}
	}

	if len(t.Section(SectionGPS)) > 0 {
		gpsIb := exif.NewIfdBuilder(im, ti, exifcommon.IfdGpsInfoStandardIfdIdentity, bo)
		err = addEntries(gpsIb, t.Section(SectionGPS), bo)
		if err != nil {
			return nil, fmt.Errorf("could not build %s: %w", SectionGPS, err)
		}

		if err := rootIb.AddChildIb(gpsIb); err != nil {
			return nil, fmt.Errorf("could not attach %s: %w", SectionGPS, err)
		}
	}

	if len(t.Section(SectionFirstThumbnail)) > 0 || len(t.Thumbnail) > 0 {
		firstIb := exif.NewIfdBuilder(im, ti, exifcommon.Ifd1StandardIfdIdentity, bo)
		err = addEntries(firstIb, t.Section(SectionFirstThumbnail), bo, thumbnailOffsetID, thumbnailLengthID)
		if err != nil {
			return nil, fmt.Errorf("could not build %s: %w", SectionFirstThumbnail, err)
		}

		if len(t.Thumbnail) > 0 {
			if err := firstIb.SetThumbnail(t.Thumbnail); err != nil {
				return nil, fmt.Errorf("could not set thumbnail: %w", err)
			}
		}

		if err := rootIb.SetNextIb(firstIb); err != nil {
			return nil, fmt.Errorf("could not attach %s: %w", SectionFirstThumbnail, err)
		}
	}

	ibe := exif.NewIfdByteEncoder()

	raw, err := ibe.EncodeToExif(rootIb)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tag table: %w", err)
	}

	return raw, nil
}

func addEntries(ib *exif.IfdBuilder, entries map[uint16]Value, bo binary.ByteOrder, skip ...uint16) error {
	ifdPath := ib.IfdIdentity().UnindexedString()

	for _, id := range sortedIDs(entries) {
		if containsID(skip, id) {
			continue
		}

		encoded, typeID, err := encodeValue(entries[id], bo)
		if err != nil {
			return fmt.Errorf("tag 0x%04x: %w", id, err)
		}

		bt := exif.NewBuilderTag(
			ifdPath,
			id,
			typeID,
			exif.NewIfdBuilderTagValueFromBytes(encoded),
			bo,
		)

		if err := ib.Add(bt); err != nil {
			return fmt.Errorf("tag 0x%04x: %w", id, err)
		}
	}

	return nil
}

func containsID(ids []uint16, id uint16) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}

func encodeValue(v Value, bo binary.ByteOrder) ([]byte, exifcommon.TagTypePrimitive, error) {
	if v.Type == TypeUndefined {
		if v.Bytes == nil {
			return []byte{}, exifcommon.TypeUndefined, nil
		}

		return v.Bytes, exifcommon.TypeUndefined, nil
	}

	var native interface{}

	switch v.Type {
	case TypeAscii:
		native = string(v.Bytes)
	case TypeByte:
		out := make([]byte, len(v.Ints))
		for i, n := range v.Ints {
			if n < 0 || n > math.MaxUint8 {
				return nil, 0, fmt.Errorf("value %d out of range for %s", n, v.Type)
			}
			out[i] = byte(n)
		}
		native = out
	case TypeShort:
		out := make([]uint16, len(v.Ints))
		for i, n := range v.Ints {
			if n < 0 || n > math.MaxUint16 {
				return nil, 0, fmt.Errorf("value %d out of range for %s", n, v.Type)
			}
			out[i] = uint16(n)
		}
		native = out
	case TypeLong:
		out := make([]uint32, len(v.Ints))
		for i, n := range v.Ints {
			if n < 0 || n > math.MaxUint32 {
				return nil, 0, fmt.Errorf("value %d out of range for %s", n, v.Type)
			}
			out[i] = uint32(n)
		}
		native = out
	case TypeSLong:
		out := make([]int32, len(v.Ints))
		for i, n := range v.Ints {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, 0, fmt.Errorf("value %d out of range for %s", n, v.Type)
			}
			out[i] = int32(n)
		}
		native = out
	case TypeRational:
		out := make([]exifcommon.Rational, len(v.Rationals))
		for i, r := range v.Rationals {
			if r.Numerator < 0 || r.Numerator > math.MaxUint32 || r.Denominator < 0 || r.Denominator > math.MaxUint32 {
				return nil, 0, fmt.Errorf("value %s out of range for %s", r, v.Type)
			}
			out[i] = exifcommon.Rational{Numerator: uint32(r.Numerator), Denominator: uint32(r.Denominator)}
		}
		native = out
	case TypeSRational:
		out := make([]exifcommon.SignedRational, len(v.Rationals))
		for i, r := range v.Rationals {
			if r.Numerator < math.MinInt32 || r.Numerator > math.MaxInt32 || r.Denominator < math.MinInt32 || r.Denominator > math.MaxInt32 {
				return nil, 0, fmt.Errorf("value %s out of range for %s", r, v.Type)
			}
			out[i] = exifcommon.SignedRational{Numerator: int32(r.Numerator), Denominator: int32(r.Denominator)}
		}
		native = out
	case TypeFloat:
		out := make([]float32, len(v.Floats))
		for i, f := range v.Floats {
			out[i] = float32(f)
		}
		native = out
	case TypeDouble:
		native = v.Floats
	default:
		// SShort has no encoder in the IFD builder.
		return nil, 0, fmt.Errorf("values of type %s cannot be encoded", v.Type)
	}

	ve := exifcommon.NewValueEncoder(bo)

	ed, err := ve.Encode(native)
	if err != nil {
		return nil, 0, fmt.Errorf("could not encode %s value: %w", v.Type, err)
	}

	return ed.Encoded, ed.Type, nil
}

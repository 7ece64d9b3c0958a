package tags

import (
	"fmt"
	"slices"
)

// Section is a named group within a tag table, each with its own tag id
// namespace.
type Section int

const (
	SectionImage Section = iota
	SectionExif
	SectionGPS
	SectionInterop
	SectionFirstThumbnail
)

// Sections lists every section in table order.
var Sections = []Section{
	SectionImage,
	SectionExif,
	SectionGPS,
	SectionInterop,
	SectionFirstThumbnail,
}

var sectionNames = map[Section]string{
	SectionImage:          "0th",
	SectionExif:           "Exif",
	SectionGPS:            "GPS",
	SectionInterop:        "Interop",
	SectionFirstThumbnail: "1st",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Section(%d)", int(s))
}

// ParseSection maps a section name as used in the catalogue and in
// responses back to a Section.
func ParseSection(name string) (Section, bool) {
	for s, n := range sectionNames {
		if n == name {
			return s, true
		}
	}

	return 0, false
}

// ValueType is the on-wire type of a tag value. The numeric values are the
// type codes used in IFD entries.
type ValueType int

const (
	TypeByte      ValueType = 1
	TypeAscii     ValueType = 2
	TypeShort     ValueType = 3
	TypeLong      ValueType = 4
	TypeRational  ValueType = 5
	TypeUndefined ValueType = 7
	TypeSShort    ValueType = 8
	TypeSLong     ValueType = 9
	TypeSRational ValueType = 10
	TypeFloat     ValueType = 11
	TypeDouble    ValueType = 12
)

var valueTypeNames = map[ValueType]string{
	TypeByte:      "Byte",
	TypeAscii:     "Ascii",
	TypeShort:     "Short",
	TypeLong:      "Long",
	TypeRational:  "Rational",
	TypeUndefined: "Undefined",
	TypeSShort:    "SShort",
	TypeSLong:     "SLong",
	TypeSRational: "SRational",
	TypeFloat:     "Float",
	TypeDouble:    "Double",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ValueType(%d)", int(t))
}

// ParseValueType maps a catalogue type name such as "Rational" to a
// ValueType.
func ParseValueType(name string) (ValueType, bool) {
	for t, n := range valueTypeNames {
		if n == name {
			return t, true
		}
	}

	return 0, false
}

// IsInteger reports whether values of this type are stored as integers.
func (t ValueType) IsInteger() bool {
	switch t {
	case TypeByte, TypeShort, TypeLong, TypeSShort, TypeSLong:
		return true
	}

	return false
}

// IsRational reports whether values of this type are numerator/denominator
// pairs.
func (t ValueType) IsRational() bool {
	return t == TypeRational || t == TypeSRational
}

// IsFloat reports whether values of this type are IEEE floating point.
func (t ValueType) IsFloat() bool {
	return t == TypeFloat || t == TypeDouble
}

// IsBytes reports whether values of this type are stored as a byte string.
func (t ValueType) IsBytes() bool {
	return t == TypeAscii || t == TypeUndefined
}

type Rational struct {
	Numerator   int64
	Denominator int64
}

// Float returns the ratio as a float64. ok is false when the denominator is
// zero.
func (r Rational) Float() (value float64, ok bool) {
	if r.Denominator == 0 {
		return 0, false
	}

	return float64(r.Numerator) / float64(r.Denominator), true
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Value is a decoded tag value. Exactly one of the payload fields is used,
// selected by Type.
type Value struct {
	Type ValueType

	Bytes     []byte
	Ints      []int64
	Rationals []Rational
	Floats    []float64
}

func AsciiValue(s string) Value {
	return Value{Type: TypeAscii, Bytes: []byte(s)}
}

func BytesValue(t ValueType, b []byte) Value {
	return Value{Type: t, Bytes: b}
}

func IntValue(t ValueType, ints ...int64) Value {
	return Value{Type: t, Ints: ints}
}

func RationalValue(t ValueType, rationals ...Rational) Value {
	return Value{Type: t, Rationals: rationals}
}

func FloatValue(t ValueType, floats ...float64) Value {
	return Value{Type: t, Floats: floats}
}

// Len is the number of elements in the value. Byte strings count as one.
func (v Value) Len() int {
	switch {
	case v.Type.IsBytes():
		return 1
	case v.Type.IsInteger():
		return len(v.Ints)
	case v.Type.IsRational():
		return len(v.Rationals)
	case v.Type.IsFloat():
		return len(v.Floats)
	}

	return 0
}

// Table is a decoded tag table: section → tag id → value. Tag ids missing
// from the schema are kept as they are.
type Table struct {
	Sections map[Section]map[uint16]Value

	// Thumbnail holds the compressed thumbnail referenced from the first
	// thumbnail section, if any.
	Thumbnail []byte
}

// NewTable returns a table with every standard section present and empty.
func NewTable() *Table {
	t := &Table{Sections: make(map[Section]map[uint16]Value, len(Sections))}
	for _, s := range Sections {
		t.Sections[s] = make(map[uint16]Value)
	}

	return t
}

func (t *Table) Get(s Section, id uint16) (Value, bool) {
	v, ok := t.Sections[s][id]
	return v, ok
}

// Set stores a value, creating the section if it is absent.
func (t *Table) Set(s Section, id uint16, v Value) {
	if t.Sections == nil {
		t.Sections = make(map[Section]map[uint16]Value)
	}

	entries, ok := t.Sections[s]
	if !ok {
		entries = make(map[uint16]Value)
		t.Sections[s] = entries
	}

	entries[id] = v
}

// Delete removes a value and reports whether it was present.
func (t *Table) Delete(s Section, id uint16) bool {
	entries, ok := t.Sections[s]
	if !ok {
		return false
	}

	if _, ok := entries[id]; !ok {
		return false
	}

	delete(entries, id)

	return true
}

// Section returns the entries of one section, which may be nil.
func (t *Table) Section(s Section) map[uint16]Value {
	return t.Sections[s]
}

// IDs returns the tag ids of a section in ascending order.
func (t *Table) IDs(s Section) []uint16 {
	return sortedIDs(t.Sections[s])
}

func sortedIDs[V any](entries map[uint16]V) []uint16 {
	ids := make([]uint16, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

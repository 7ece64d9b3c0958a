package values

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/charlieegan3/metadata-console/pkg/tags"
)

// ConversionError is returned when an Input cannot be coerced to the type a
// tag requires.
type ConversionError struct {
	Type   tags.ValueType
	Input  Input
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: %s", e.Input, e.Type, e.Reason)
}

type intRange struct {
	min, max int64
}

var intRanges = map[tags.ValueType]intRange{
	tags.TypeByte:   {0, math.MaxUint8},
	tags.TypeShort:  {0, math.MaxUint16},
	tags.TypeLong:   {0, math.MaxUint32},
	tags.TypeSShort: {math.MinInt16, math.MaxInt16},
	tags.TypeSLong:  {math.MinInt32, math.MaxInt32},
}

// Denormalize converts an Input into the stored form of the given type.
//
// Ascii and Undefined take strings (UTF-8 encoded), bytes or numbers, which
// are written in their decimal form; Undefined also takes a list of byte
// values. Integer types take numbers, truncated toward zero, or integral
// numeric strings, and lists of them. Rational types take a [numerator,
// denominator] pair, an "N/D" string or a decimal, which is approximated
// with a denominator of at most one million; any other list is converted
// element by element. Float types take numbers or numeric strings.
func Denormalize(in Input, t tags.ValueType) (tags.Value, error) {
	switch {
	case t.IsBytes():
		b, err := toBytes(in, t)
		if err != nil {
			return tags.Value{}, err
		}

		return tags.BytesValue(t, b), nil
	case t.IsInteger():
		ints, err := each(in, t, func(item Input) (int64, error) { return toInt(item, t) })
		if err != nil {
			return tags.Value{}, err
		}

		return tags.IntValue(t, ints...), nil
	case t.IsRational():
		if isPair(in) {
			r, err := pairToRational(in, t)
			if err != nil {
				return tags.Value{}, err
			}

			return tags.RationalValue(t, r), nil
		}

		rationals, err := each(in, t, func(item Input) (tags.Rational, error) { return toRational(item, t) })
		if err != nil {
			return tags.Value{}, err
		}

		return tags.RationalValue(t, rationals...), nil
	case t.IsFloat():
		floats, err := each(in, t, func(item Input) (float64, error) { return toFloat(item, t) })
		if err != nil {
			return tags.Value{}, err
		}

		return tags.FloatValue(t, floats...), nil
	}

	return tags.Value{}, &ConversionError{Type: t, Input: in, Reason: "unknown tag type"}
}

// each applies convert to a scalar, or to every item of a list.
func each[T any](in Input, t tags.ValueType, convert func(Input) (T, error)) ([]T, error) {
	if in.Kind != KindList {
		v, err := convert(in)
		if err != nil {
			return nil, err
		}

		return []T{v}, nil
	}

	if len(in.Items) == 0 {
		return nil, &ConversionError{Type: t, Input: in, Reason: "empty list"}
	}

	out := make([]T, len(in.Items))
	for i, item := range in.Items {
		v, err := convert(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = v
	}

	return out, nil
}

func toBytes(in Input, t tags.ValueType) ([]byte, error) {
	switch in.Kind {
	case KindString, KindNumber:
		return []byte(in.Text), nil
	case KindBytes:
		return in.Bytes, nil
	case KindList:
		if t != tags.TypeUndefined {
			break
		}

		out := make([]byte, len(in.Items))
		for i, item := range in.Items {
			n, err := toInt(item, tags.TypeByte)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = byte(n)
		}

		return out, nil
	}

	return nil, &ConversionError{Type: t, Input: in, Reason: "expected a string"}
}

func toInt(in Input, t tags.ValueType) (int64, error) {
	if in.Kind != KindNumber && in.Kind != KindString {
		return 0, &ConversionError{Type: t, Input: in, Reason: "expected an integer"}
	}

	text := strings.TrimSpace(in.Text)

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
			return 0, &ConversionError{Type: t, Input: in, Reason: "expected an integer"}
		}

		// numbers are truncated toward zero, text must be integral
		if f != math.Trunc(f) && in.Kind != KindNumber {
			return 0, &ConversionError{Type: t, Input: in, Reason: "expected an integer"}
		}
		n = int64(math.Trunc(f))
	}

	if r, ok := intRanges[t]; ok && (n < r.min || n > r.max) {
		return 0, &ConversionError{
			Type:   t,
			Input:  in,
			Reason: fmt.Sprintf("value must be between %d and %d", r.min, r.max),
		}
	}

	return n, nil
}

func toFloat(in Input, t tags.ValueType) (float64, error) {
	if in.Kind != KindNumber && in.Kind != KindString {
		return 0, &ConversionError{Type: t, Input: in, Reason: "expected a number"}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(in.Text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ConversionError{Type: t, Input: in, Reason: "expected a number"}
	}

	if t == tags.TypeFloat && math.Abs(f) > math.MaxFloat32 {
		return 0, &ConversionError{Type: t, Input: in, Reason: "value out of range"}
	}

	return f, nil
}

// isPair reports whether in is a two element list of integers, which is
// read as a single numerator/denominator pair.
func isPair(in Input) bool {
	if in.Kind != KindList || len(in.Items) != 2 {
		return false
	}

	for _, item := range in.Items {
		if item.Kind != KindNumber {
			return false
		}

		if _, err := strconv.ParseInt(item.Text, 10, 64); err != nil {
			return false
		}
	}

	return true
}

func pairToRational(in Input, t tags.ValueType) (tags.Rational, error) {
	num, _ := strconv.ParseInt(in.Items[0].Text, 10, 64)
	den, _ := strconv.ParseInt(in.Items[1].Text, 10, 64)

	return checkRational(tags.Rational{Numerator: num, Denominator: den}, in, t)
}

func toRational(in Input, t tags.ValueType) (tags.Rational, error) {
	switch in.Kind {
	case KindList:
		if !isPair(in) {
			return tags.Rational{}, &ConversionError{Type: t, Input: in, Reason: "expected a [numerator, denominator] pair"}
		}

		return pairToRational(in, t)
	case KindString, KindNumber:
		text := strings.TrimSpace(in.Text)

		if num, den, ok := strings.Cut(text, "/"); ok {
			n, nerr := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
			d, derr := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
			if nerr != nil || derr != nil {
				return tags.Rational{}, &ConversionError{Type: t, Input: in, Reason: "expected N/D with integer parts"}
			}

			return checkRational(tags.Rational{Numerator: n, Denominator: d}, in, t)
		}

		exact, ok := new(big.Rat).SetString(text)
		if !ok {
			return tags.Rational{}, &ConversionError{Type: t, Input: in, Reason: "expected a rational or decimal"}
		}

		approx := limitDenominator(exact, maxDenominator)
		if !approx.Num().IsInt64() {
			return tags.Rational{}, &ConversionError{Type: t, Input: in, Reason: "value out of range"}
		}

		return checkRational(tags.Rational{
			Numerator:   approx.Num().Int64(),
			Denominator: approx.Denom().Int64(),
		}, in, t)
	}

	return tags.Rational{}, &ConversionError{Type: t, Input: in, Reason: "expected a rational"}
}

func checkRational(r tags.Rational, in Input, t tags.ValueType) (tags.Rational, error) {
	lo, hi := int64(0), int64(math.MaxUint32)
	if t == tags.TypeSRational {
		lo, hi = math.MinInt32, math.MaxInt32
	}

	if r.Numerator < lo || r.Numerator > hi || r.Denominator < lo || r.Denominator > hi {
		return tags.Rational{}, &ConversionError{
			Type:   t,
			Input:  in,
			Reason: fmt.Sprintf("parts must be between %d and %d", lo, hi),
		}
	}

	return r, nil
}

package values

import (
	"bytes"
	"encoding/base64"
	"math"
	"unicode/utf8"

	"github.com/charlieegan3/metadata-console/pkg/tags"
)

// Normalize projects a decoded tag value into a JSON safe form. Byte
// strings become text when they are valid UTF-8 once trailing NULs are
// removed, and standard base64 text otherwise. Rationals become float64
// ratios, or nil when the denominator is zero. Single element values are
// returned as scalars and longer ones as []any.
func Normalize(v tags.Value) any {
	switch {
	case v.Type.IsBytes():
		return normalizeBytes(v.Bytes)
	case v.Type.IsInteger():
		return collapse(len(v.Ints), func(i int) any { return v.Ints[i] })
	case v.Type.IsRational():
		return collapse(len(v.Rationals), func(i int) any { return normalizeRational(v.Rationals[i]) })
	case v.Type.IsFloat():
		return collapse(len(v.Floats), func(i int) any { return normalizeFloat(v.Floats[i]) })
	}

	return nil
}

func normalizeBytes(b []byte) any {
	trimmed := bytes.TrimRight(b, "\x00")
	if utf8.Valid(trimmed) {
		return string(trimmed)
	}

	return base64.StdEncoding.EncodeToString(b)
}

func normalizeRational(r tags.Rational) any {
	f, ok := r.Float()
	if !ok {
		return nil
	}

	return f
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	return f
}

func collapse(n int, at func(int) any) any {
	if n == 1 {
		return at(0)
	}

	out := make([]any, n)
	for i := range out {
		out[i] = at(i)
	}

	return out
}

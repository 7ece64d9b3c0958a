package gps

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/charlieegan3/metadata-console/pkg/tags"
)

func triple(d, m, s tags.Rational) tags.Value {
	return tags.RationalValue(tags.TypeRational, d, m, s)
}

func whole(n int64) tags.Rational {
	return tags.Rational{Numerator: n, Denominator: 1}
}

func TestExtract(t *testing.T) {
	lat := triple(whole(40), whole(26), tags.Rational{Numerator: 463, Denominator: 10})
	lon := triple(whole(79), whole(58), tags.Rational{Numerator: 5600, Denominator: 100})

	tests := map[string]struct {
		section map[uint16]tags.Value
		lat     *float64
		lon     *float64
		alt     *float64
	}{
		"northern eastern": {
			section: map[uint16]tags.Value{
				latitudeID:     lat,
				latitudeRefID:  tags.AsciiValue("N"),
				longitudeID:    lon,
				longitudeRefID: tags.AsciiValue("E"),
			},
			lat: ptr(40.446194),
			lon: ptr(79.982222),
		},
		"southern western": {
			section: map[uint16]tags.Value{
				latitudeID:     lat,
				latitudeRefID:  tags.AsciiValue("S\x00"),
				longitudeID:    lon,
				longitudeRefID: tags.AsciiValue("W"),
			},
			lat: ptr(-40.446194),
			lon: ptr(-79.982222),
		},
		"missing reference is positive": {
			section: map[uint16]tags.Value{
				latitudeID: lat,
			},
			lat: ptr(40.446194),
		},
		"altitude above sea level": {
			section: map[uint16]tags.Value{
				altitudeID: tags.RationalValue(tags.TypeRational, tags.Rational{Numerator: 2505, Denominator: 10}),
			},
			alt: ptr(250.5),
		},
		"altitude below sea level": {
			section: map[uint16]tags.Value{
				altitudeID:    tags.RationalValue(tags.TypeRational, whole(12)),
				altitudeRefID: tags.IntValue(tags.TypeByte, 1),
			},
			alt: ptr(-12),
		},
		"zero denominator": {
			section: map[uint16]tags.Value{
				latitudeID: triple(whole(40), tags.Rational{Numerator: 26, Denominator: 0}, whole(1)),
				altitudeID: tags.RationalValue(tags.TypeRational, tags.Rational{Numerator: 1, Denominator: 0}),
			},
		},
		"wrong element count": {
			section: map[uint16]tags.Value{
				latitudeID:  tags.RationalValue(tags.TypeRational, whole(40), whole(26)),
				longitudeID: tags.IntValue(tags.TypeShort, 1, 2, 3),
			},
		},
		"empty section": {
			section: map[uint16]tags.Value{},
		},
	}

	for description, tc := range tests {
		t.Run(description, func(t *testing.T) {
			c := Extract(tc.section)

			assertClose(t, "lat", tc.lat, c.Lat)
			assertClose(t, "lon", tc.lon, c.Lon)
			assertClose(t, "alt", tc.alt, c.Alt)
		})
	}
}

func TestCoordinatesJSONOmitsMissing(t *testing.T) {
	b, err := json.Marshal(Extract(nil))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got, exp := string(b), "{}"; got != exp {
		t.Fatalf("expected %s, got %s", exp, got)
	}
}

func ptr(f float64) *float64 {
	return &f
}

func assertClose(t *testing.T, name string, exp, got *float64) {
	t.Helper()

	if exp == nil {
		if got != nil {
			t.Fatalf("expected no %s, got %f", name, *got)
		}
		return
	}

	if got == nil {
		t.Fatalf("expected %s %f, got none", name, *exp)
	}

	if math.Abs(*exp-*got) > 1e-6 {
		t.Fatalf("expected %s %f, got %f", name, *exp, *got)
	}
}

package gps

import (
	"bytes"
	"fmt"

	"github.com/charlieegan3/metadata-console/pkg/tags"
)

// Coordinates are signed decimal degrees and metres. A nil field means the
// value was missing or malformed, not zero.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
	Alt *float64 `json:"alt,omitempty"`
}

func (c Coordinates) String() string {
	return fmt.Sprintf("lat=%s lon=%s alt=%s", format(c.Lat), format(c.Lon), format(c.Alt))
}

func format(f *float64) string {
	if f == nil {
		return "-"
	}

	return fmt.Sprintf("%f", *f)
}

var (
	latitudeID     = mustID("GPSLatitude")
	latitudeRefID  = mustID("GPSLatitudeRef")
	longitudeID    = mustID("GPSLongitude")
	longitudeRefID = mustID("GPSLongitudeRef")
	altitudeID     = mustID("GPSAltitude")
	altitudeRefID  = mustID("GPSAltitudeRef")
)

func mustID(name string) uint16 {
	e, ok := tags.Standard().Lookup(name)
	if !ok || e.Section != tags.SectionGPS {
		panic(fmt.Sprintf("tag catalogue has no GPS tag %s", name))
	}

	return e.ID
}

// Extract derives coordinates from the entries of a GPS section.
func Extract(section map[uint16]tags.Value) Coordinates {
	var c Coordinates

	if v, ok := section[latitudeID]; ok {
		c.Lat = convertDegrees(v, ref(section[latitudeRefID]), "S")
	}

	if v, ok := section[longitudeID]; ok {
		c.Lon = convertDegrees(v, ref(section[longitudeRefID]), "W")
	}

	if v, ok := section[altitudeID]; ok && v.Type.IsRational() && len(v.Rationals) == 1 {
		if alt, ok := v.Rationals[0].Float(); ok {
			// reference 1 is below sea level
			if r, ok := section[altitudeRefID]; ok && len(r.Ints) == 1 && r.Ints[0] == 1 {
				alt = -alt
			}
			c.Alt = &alt
		}
	}

	return c
}

// convertDegrees converts a degrees, minutes, seconds triple to decimal
// degrees, negated when ref is the negative hemisphere.
func convertDegrees(v tags.Value, ref, negative string) *float64 {
	if !v.Type.IsRational() || len(v.Rationals) != 3 {
		return nil
	}

	var parts [3]float64
	for i, r := range v.Rationals {
		f, ok := r.Float()
		if !ok {
			return nil
		}
		parts[i] = f
	}

	decimal := parts[0] + parts[1]/60 + parts[2]/3600
	if ref == negative {
		decimal = -decimal
	}

	return &decimal
}

func ref(v tags.Value) string {
	return string(bytes.TrimSpace(bytes.TrimRight(v.Bytes, "\x00")))
}

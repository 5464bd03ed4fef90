// Package geo holds the small amount of WGS84 geometry the event store needs:
// a point derived from (lon, lat) and an axis-aligned envelope used as a
// bounding-box filter.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var errBBoxFormat = errors.New("bbox must be four comma-separated numbers: min_lon,min_lat,max_lon,max_lat")

// Point is a lon/lat position in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// NewPoint builds the point stored alongside an event.
func NewPoint(lon, lat float64) Point { return Point{Lon: lon, Lat: lat} }

// WKT renders the point as well-known text; SRID 4326 is implied.
func (p Point) WKT() string {
	return "POINT(" + formatCoord(p.Lon) + " " + formatCoord(p.Lat) + ")"
}

// Envelope is an axis-aligned rectangle (min_lon, min_lat, max_lon, max_lat).
type Envelope struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Intersects is the geometry-vs-envelope test for a point: boundary points
// intersect.
func (e Envelope) Intersects(p Point) bool {
	return p.Lon >= e.MinLon && p.Lon <= e.MaxLon &&
		p.Lat >= e.MinLat && p.Lat <= e.MaxLat
}

// ParseBBox parses "min_lon,min_lat,max_lon,max_lat". Corners given in the
// opposite order describe the same rectangle and are swapped per axis. An
// empty string yields (nil, nil): no spatial filter.
func ParseBBox(s string) (*Envelope, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errBBoxFormat
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: bad value %q", errBBoxFormat, p)
		}
		v[i] = f
	}
	return &Envelope{
		MinLon: math.Min(v[0], v[2]),
		MinLat: math.Min(v[1], v[3]),
		MaxLon: math.Max(v[0], v[2]),
		MaxLat: math.Max(v[1], v[3]),
	}, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// pkg/geo/geo.go
package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// EarthRadiusMeters is the mean Earth radius used for geodesic lengths
const EarthRadiusMeters = 6371010.0

// GeodesicLength returns the length in meters of the line work in g.
// Coordinates are read as longitude, latitude in degrees. Points and
// polygons contribute nothing.
func GeodesicLength(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.LineString:
		return lineLength(t.FlatCoords(), t.Stride())
	case *geom.MultiLineString:
		total := 0.0
		for i := 0; i < t.NumLineStrings(); i++ {
			ls := t.LineString(i)
			total += lineLength(ls.FlatCoords(), ls.Stride())
		}
		return total
	case *geom.GeometryCollection:
		total := 0.0
		for _, child := range t.Geoms() {
			total += GeodesicLength(child)
		}
		return total
	default:
		return 0
	}
}

func lineLength(flat []float64, stride int) float64 {
	if stride < 2 || len(flat) < 2*stride {
		return 0
	}
	total := 0.0
	prev := s2.LatLngFromDegrees(flat[1], flat[0])
	for i := stride; i+1 < len(flat); i += stride {
		next := s2.LatLngFromDegrees(flat[i+1], flat[i])
		total += prev.Distance(next).Radians() * EarthRadiusMeters
		prev = next
	}
	return total
}

// TypeName returns the GeoJSON/GeoParquet name of g's geometry type
func TypeName(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.LineString:
		return "LineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	case *geom.GeometryCollection:
		return "GeometryCollection"
	default:
		return "Unknown"
	}
}

// Summary aggregates geometry facts for diagnostics and file metadata
type Summary struct {
	Types       []string  // Distinct geometry type names, in first-seen order
	BBox        []float64 // minx, miny, maxx, maxy; nil when nothing was seen
	TotalLength float64   // Sum of geodesic lengths in meters
	Count       int       // Non-null geometries
	NullCount   int       // Null geometries
	typeSeen    map[string]bool
}

// NewSummary creates an empty summary
func NewSummary() *Summary {
	return &Summary{typeSeen: make(map[string]bool)}
}

// Add folds one geometry into the summary. A nil geometry counts as null.
func (s *Summary) Add(g geom.T) {
	if g == nil {
		s.NullCount++
		return
	}
	s.Count++
	name := TypeName(g)
	if !s.typeSeen[name] {
		s.typeSeen[name] = true
		s.Types = append(s.Types, name)
	}
	s.extend(g.Bounds())
	s.TotalLength += GeodesicLength(g)
}

func (s *Summary) extend(b *geom.Bounds) {
	// empty bounds have min > max
	if b == nil || b.Layout().Stride() < 2 || b.Min(0) > b.Max(0) || b.Min(1) > b.Max(1) {
		return
	}
	if s.BBox == nil {
		s.BBox = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
		return
	}
	s.BBox[0] = math.Min(s.BBox[0], b.Min(0))
	s.BBox[1] = math.Min(s.BBox[1], b.Min(1))
	s.BBox[2] = math.Max(s.BBox[2], b.Max(0))
	s.BBox[3] = math.Max(s.BBox[3], b.Max(1))
}

// AddWKB decodes and folds a WKB geometry. A nil slice counts as null.
func (s *Summary) AddWKB(b []byte) error {
	if b == nil {
		s.Add(nil)
		return nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return errors.Wrap(err, "decode wkb geometry")
	}
	s.Add(g)
	return nil
}

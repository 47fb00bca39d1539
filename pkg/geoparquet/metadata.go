// pkg/geoparquet/metadata.go
package geoparquet

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/David-Botos/pathprep/pkg/geo"
	"github.com/David-Botos/pathprep/pkg/model"
)

const (
	// MetadataKey is the parquet file key holding GeoParquet metadata
	MetadataKey = "geo"
	// Version is the GeoParquet metadata version written
	Version = "1.0.0"
	// EncodingWKB is the only geometry encoding written
	EncodingWKB = "WKB"
)

// Metadata is the GeoParquet file metadata document
type Metadata struct {
	Version       string                     `json:"version"`
	PrimaryColumn string                     `json:"primary_column"`
	Columns       map[string]*GeometryColumn `json:"columns"`
}

// GeometryColumn describes one geometry column
type GeometryColumn struct {
	Encoding      string    `json:"encoding"`
	GeometryTypes []string  `json:"geometry_types"`
	BBox          []float64 `json:"bbox,omitempty"`
}

// IsGeometryColumn reports whether name is declared as a geometry column
func (m *Metadata) IsGeometryColumn(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Columns[name]
	return ok
}

// BuildMetadata derives GeoParquet metadata from the table's geometry columns.
// The first geometry column becomes the primary column.
func BuildMetadata(t *model.Table) (*Metadata, error) {
	md := &Metadata{
		Version: Version,
		Columns: make(map[string]*GeometryColumn),
	}

	for _, col := range t.Columns {
		if col.Kind != model.KindGeometry {
			continue
		}
		summary := geo.NewSummary()
		for i, row := range t.Rows {
			var b []byte
			if g, ok := row[col.Name].(model.Geometry); ok {
				b = g.WKB
			}
			if err := summary.AddWKB(b); err != nil {
				return nil, errors.Wrapf(err, "column %s row %d", col.Name, i)
			}
		}
		types := summary.Types
		if types == nil {
			types = []string{}
		}
		md.Columns[col.Name] = &GeometryColumn{
			Encoding:      EncodingWKB,
			GeometryTypes: types,
			BBox:          summary.BBox,
		}
		if md.PrimaryColumn == "" {
			md.PrimaryColumn = col.Name
		}
	}

	if md.PrimaryColumn == "" {
		return nil, errors.New("table has no geometry column")
	}
	return md, nil
}

// Marshal encodes the metadata document
func (m *Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMetadata decodes a metadata document
func ParseMetadata(data []byte) (*Metadata, error) {
	md := &Metadata{}
	if err := json.Unmarshal(data, md); err != nil {
		return nil, errors.Wrap(err, "parse geoparquet metadata")
	}
	if md.Columns == nil {
		md.Columns = make(map[string]*GeometryColumn)
	}
	return md, nil
}

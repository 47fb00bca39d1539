// pkg/model/metadata.go
package model

import "strings"

// Kind is the logical type of a table column
type Kind int

const (
	KindString Kind = iota
	KindInt64
	KindFloat64
	KindBool
	KindGeometry
)

// String returns the lower-case kind name
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// Column represents metadata about a table column
type Column struct {
	Name     string // Column name
	Kind     Kind   // Logical type
	Nullable bool   // Whether column allows null values
}

// Geometry holds a geometry value in WKB encoding
type Geometry struct {
	WKB []byte
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (t *Table) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range t.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &t.Columns[i]
		}
	}
	return nil
}

// GeometryColumn returns the first geometry column, or nil
func (t *Table) GeometryColumn() *Column {
	for i, col := range t.Columns {
		if col.Kind == KindGeometry {
			return &t.Columns[i]
		}
	}
	return nil
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *Table {
	t := NewTable(
		Column{Name: "codice", Kind: KindString, Nullable: true},
		Column{Name: "anno", Kind: KindString, Nullable: true},
		Column{Name: "geometry", Kind: KindGeometry, Nullable: true},
	)
	t.Append(Row{"codice": "A1", "anno": "2015", "geometry": Geometry{WKB: []byte{1}}})
	t.Append(Row{"codice": "A2", "anno": nil, "geometry": nil})
	t.Append(Row{"codice": nil, "anno": "2016", "geometry": Geometry{WKB: []byte{1}}})
	return t
}

func TestTable_ColumnLookup(t *testing.T) {
	tbl := sampleTable()

	assert.Equal(t, []string{"codice", "anno", "geometry"}, tbl.ColumnNames())
	assert.Equal(t, 1, tbl.ColumnIndex("anno"))
	assert.Equal(t, -1, tbl.ColumnIndex("ANNO"))
	assert.True(t, tbl.HasColumn("geometry"))

	col := tbl.GetColumnByName(" ANNO ")
	require.NotNil(t, col)
	assert.Equal(t, "anno", col.Name)
	assert.Nil(t, tbl.GetColumnByName("missing"))

	geom := tbl.GeometryColumn()
	require.NotNil(t, geom)
	assert.Equal(t, "geometry", geom.Name)
}

func TestTable_NullCounts(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, map[string]int{"codice": 1, "anno": 1, "geometry": 1}, tbl.NullCounts())
	assert.Equal(t, 3, tbl.TotalNulls())
}

func TestTable_CloneIsIndependent(t *testing.T) {
	tbl := sampleTable()
	clone := tbl.Clone()

	clone.Rows[0]["codice"] = "changed"
	clone.Columns[0].Name = "code"

	assert.Equal(t, "A1", tbl.Rows[0]["codice"])
	assert.Equal(t, "codice", tbl.Columns[0].Name)
}

func TestTable_Head(t *testing.T) {
	tbl := sampleTable()
	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 3, tbl.Head(10).NumRows())
	assert.Equal(t, 3, tbl.Head(-1).NumRows())
	assert.Equal(t, 3, tbl.NumColumns())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "int64", KindInt64.String())
	assert.Equal(t, "float64", KindFloat64.String())
	assert.Equal(t, "bool", KindBool.String())
	assert.Equal(t, "geometry", KindGeometry.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

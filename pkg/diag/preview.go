// pkg/diag/preview.go
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/David-Botos/pathprep/pkg/converter"
	"github.com/David-Botos/pathprep/pkg/geo"
	"github.com/David-Botos/pathprep/pkg/model"
)

const (
	nullValue   = "NULL"
	maxCellText = 48
)

// RenderPreview writes the first n rows of t as a table. n < 0 renders every row.
func RenderPreview(w io.Writer, t *model.Table, n int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	// Keep column names as they are.
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Name
	}
	tw.AppendHeader(header)

	for _, row := range t.Head(n).Rows {
		out := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			out[i] = cell(row[col.Name])
		}
		tw.AppendRow(out)
	}
	tw.Render()
}

// PreviewString renders a preview into a string
func PreviewString(t *model.Table, n int) string {
	var sb strings.Builder
	RenderPreview(&sb, t, n)
	return sb.String()
}

func cell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return nullValue
	case model.Geometry:
		return geometryCell(val)
	default:
		s := converter.ToString(val)
		if len(s) > maxCellText {
			s = s[:maxCellText-3] + "..."
		}
		return s
	}
}

func geometryCell(g model.Geometry) string {
	if g.WKB == nil {
		return nullValue
	}
	decoded, err := wkb.Unmarshal(g.WKB)
	if err != nil {
		return fmt.Sprintf("<invalid wkb, %d bytes>", len(g.WKB))
	}
	points := 0
	if stride := decoded.Stride(); stride > 0 {
		points = len(decoded.FlatCoords()) / stride
	}
	return fmt.Sprintf("<%s, %d pts>", geo.TypeName(decoded), points)
}

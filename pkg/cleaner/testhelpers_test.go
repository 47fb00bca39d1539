package cleaner

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/David-Botos/pathprep/pkg/geoparquet"
	"github.com/David-Botos/pathprep/pkg/model"
)

var rawColumns = []model.Column{
	{Name: "codice", Kind: model.KindString, Nullable: true},
	{Name: "duso", Kind: model.KindString, Nullable: true},
	{Name: "dtipologia2", Kind: model.KindString, Nullable: true},
	{Name: "tipologia2", Kind: model.KindString, Nullable: true},
	{Name: "lunghezza", Kind: model.KindFloat64, Nullable: true},
	{Name: "length", Kind: model.KindFloat64, Nullable: true},
	{Name: "geo_point_2d", Kind: model.KindString, Nullable: true},
	{Name: "anno", Kind: model.KindString, Nullable: true},
	{Name: "zona_fiu", Kind: model.KindString, Nullable: true},
	{Name: "nomequart", Kind: model.KindString, Nullable: true},
	{Name: "geometry", Kind: model.KindGeometry, Nullable: true},
}

var rawYears = []string{"A.2015", "2016", "2017", "2018", "19", "N/A", "2020", "2021", "A.2022", "02015"}

func segment(t *testing.T, i int) model.Geometry {
	t.Helper()
	x := 11.30 + float64(i)*0.01
	ls := geom.NewLineString(geom.XY).MustSetCoords([]geom.Coord{{x, 44.40}, {x + 0.005, 44.41}})
	b, err := wkb.Marshal(ls, wkb.NDR)
	require.NoError(t, err)
	return model.Geometry{WKB: b}
}

// rawTable builds ten source rows; rows 3 and 7 have a null tipologia2
// and rows 4 and 5 carry unparseable years.
func rawTable(t *testing.T) *model.Table {
	t.Helper()
	tbl := model.NewTable(rawColumns...)
	for i := 0; i < 10; i++ {
		var secondary interface{} = "Ciclabile"
		if i == 3 || i == 7 {
			secondary = nil
		}
		tbl.Append(model.Row{
			"codice":       fmt.Sprintf("P%d", i),
			"duso":         "C",
			"dtipologia2":  "Pista",
			"tipologia2":   secondary,
			"lunghezza":    100.0 + float64(i),
			"length":       100.0 + float64(i),
			"geo_point_2d": `{"lat":44.4,"lon":11.3}`,
			"anno":         rawYears[i],
			"zona_fiu":     " Navile! ",
			"nomequart":    "Bolognina",
			"geometry":     segment(t, i),
		})
	}
	return tbl
}

func writeRaw(t *testing.T, tbl *model.Table) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw", "piste-ciclopedonali.parquet")
	require.NoError(t, geoparquet.NewWriter(nil).WriteFile(context.Background(), path, tbl))
	return path
}
